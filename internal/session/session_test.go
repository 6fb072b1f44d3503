package session

import (
	"context"
	"encoding/hex"
	"path/filepath"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"basebond/internal/config"
	"basebond/internal/contracts"
	"basebond/internal/failure"
	"basebond/internal/model"
	"basebond/internal/storage"
	"basebond/internal/wallet"
)

func baseConfig() config.Config {
	return config.Config{
		RPCURL:          "http://127.0.0.1:1",
		ExplorerURL:     "https://sepolia.basescan.org",
		ConfirmTimeout:  time.Second,
		PollInterval:    10 * time.Millisecond,
		Confirmations:   1,
		MaxBatch:        100,
		TokenDecimals:   18,
		RewardRateScale: 100,
		Locale:          "id",
		FractionDigits:  2,
		Store:           config.StoreNone,
	}
}

func TestOpenReadOnly(t *testing.T) {
	cfg := baseConfig()
	cfg.Addresses = contracts.Addresses{contracts.EventFactory: "0x00000000000000000000000000000000000000f1"}

	s, err := Open(context.Background(), cfg, nil, WithConfirmer(wallet.AutoApprove{}))
	require.NoError(t, err)
	defer s.Close()

	assert.Equal(t, common.Address{}, s.Tracker.From())
	assert.True(t, s.Registry.Available(contracts.EventFactory))
	assert.False(t, s.Registry.Available(contracts.LoyaltyStaking))

	_, err = s.Actions.Claim(context.Background())
	assert.ErrorIs(t, err, failure.ErrConfiguration)
}

func TestOpenWithNodeManagedAccount(t *testing.T) {
	cfg := baseConfig()
	cfg.From = "0x1111111111111111111111111111111111111111"

	s, err := Open(context.Background(), cfg, nil, WithConfirmer(wallet.AutoApprove{}))
	require.NoError(t, err)
	defer s.Close()
	assert.Equal(t, common.HexToAddress(cfg.From), s.Tracker.From())
}

func TestOpenWithPrivateKey(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	cfg := baseConfig()
	cfg.ChainID = 84532
	cfg.PrivateKey = "0x" + hex.EncodeToString(crypto.FromECDSA(key))

	s, err := Open(context.Background(), cfg, nil, WithConfirmer(wallet.AutoApprove{}))
	require.NoError(t, err)
	defer s.Close()
	assert.Equal(t, crypto.PubkeyToAddress(key.PublicKey), s.Tracker.From())
}

func TestOpenConfigurationErrors(t *testing.T) {
	cfg := baseConfig()
	cfg.RPCURL = ""
	_, err := Open(context.Background(), cfg, nil)
	assert.ErrorIs(t, err, failure.ErrConfiguration)

	cfg = baseConfig()
	cfg.From = "nope"
	_, err = Open(context.Background(), cfg, nil, WithConfirmer(wallet.AutoApprove{}))
	assert.ErrorIs(t, err, failure.ErrConfiguration)

	cfg = baseConfig()
	cfg.PrivateKey = "zz"
	cfg.ChainID = 1
	_, err = Open(context.Background(), cfg, nil, WithConfirmer(wallet.AutoApprove{}))
	assert.ErrorIs(t, err, failure.ErrConfiguration)
}

func TestFileStoreHistory(t *testing.T) {
	dir := t.TempDir()
	cfg := baseConfig()
	cfg.Store = config.StoreFile
	cfg.StorePath = filepath.Join(dir, "operations.json")

	s, err := Open(context.Background(), cfg, nil, WithConfirmer(wallet.AutoApprove{}))
	require.NoError(t, err)
	defer s.Close()

	_, ok := s.Store.(*storage.Journaled)
	require.True(t, ok)

	now := time.Now().UTC()
	require.NoError(t, s.Store.Put(context.Background(), model.PendingOperation{
		ID: "x", Kind: model.OpClaim, Phase: model.PhaseConfirmed, CreatedAt: now, UpdatedAt: now,
	}))
	ops, err := s.History(context.Background())
	require.NoError(t, err)
	require.Len(t, ops, 1)
	assert.FileExists(t, filepath.Join(dir, "operations.jsonl"))

	trackers, err := s.Track(context.Background())
	require.NoError(t, err)
	assert.Empty(t, trackers)
}

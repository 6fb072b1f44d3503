package contracts

import (
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"basebond/internal/failure"
)

func TestResolveConfigured(t *testing.T) {
	reg, err := NewRegistry(Addresses{
		EventFactory: "0x00000000000000000000000000000000000000aa",
		IDRXToken:    "0x00000000000000000000000000000000000000bb",
	})
	require.NoError(t, err)

	d, err := reg.Resolve(EventFactory)
	require.NoError(t, err)
	assert.Equal(t, EventFactory, d.Name)
	assert.Equal(t, common.HexToAddress("0xaa"), d.Address)
	assert.Contains(t, d.Functions, "getEventDetails")
	assert.Contains(t, d.Functions, "hasUserCheckedIn")
	assert.True(t, reg.Available(IDRXToken))
}

func TestResolveUnsetOrZeroIsConfigurationError(t *testing.T) {
	reg, err := NewRegistry(Addresses{
		LoyaltyStaking: "0x0000000000000000000000000000000000000000",
	})
	require.NoError(t, err)

	for _, name := range []Name{LoyaltyStaking, EventTreasury, Name("bogus")} {
		_, err := reg.Resolve(name)
		require.Error(t, err)
		assert.True(t, errors.Is(err, failure.ErrConfiguration), "name %s", name)
		assert.False(t, reg.Available(name))
	}
}

func TestNewRegistryRejectsBadAddress(t *testing.T) {
	_, err := NewRegistry(Addresses{EventPOAP: "not-an-address"})
	require.Error(t, err)

	_, err = NewRegistry(Addresses{Name("other"): "0x00000000000000000000000000000000000000aa"})
	require.Error(t, err)
}

func TestExtraViewsPresent(t *testing.T) {
	staking, err := LoyaltyStakingABI()
	require.NoError(t, err)
	for _, m := range []string{"pendingPoints", "totalStaked", "pointsPerTokenPerDay", "minStakeAmount"} {
		_, ok := staking.Methods[m]
		assert.True(t, ok, m)
	}
	treasury, err := EventTreasuryABI()
	require.NoError(t, err)
	_, ok := treasury.Methods["organizerBalances"]
	assert.True(t, ok)
}

package wallet

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"
)

// Backend is what a local key needs from the node.
type Backend interface {
	NonceSource
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	SuggestGasTipCap(ctx context.Context) (*big.Int, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
}

// KeyedSender signs EIP-1559 transactions with a local private key.
type KeyedSender struct {
	backend Backend
	auth    *bind.TransactOpts
	chainID *big.Int
	nonces  *NonceManager
	logger  *zap.Logger
}

// NewKeyedSender parses a hex private key (with or without 0x).
func NewKeyedSender(backend Backend, privateKey string, chainID *big.Int, logger *zap.Logger) (*KeyedSender, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(privateKey), "0x"))
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	return newKeyedSender(backend, key, chainID, logger)
}

func newKeyedSender(backend Backend, key *ecdsa.PrivateKey, chainID *big.Int, logger *zap.Logger) (*KeyedSender, error) {
	auth, err := bind.NewKeyedTransactorWithChainID(key, chainID)
	if err != nil {
		return nil, fmt.Errorf("keyed transactor: %w", err)
	}
	return &KeyedSender{
		backend: backend,
		auth:    auth,
		chainID: chainID,
		nonces:  NewNonceManager(auth.From, backend),
		logger:  logger,
	}, nil
}

// From returns the signing address.
func (s *KeyedSender) From() common.Address {
	return s.auth.From
}

// Send estimates gas (a reverting call fails here), signs and broadcasts.
func (s *KeyedSender) Send(ctx context.Context, req TxRequest) (common.Hash, error) {
	value := req.Value
	if value == nil {
		value = new(big.Int)
	}
	to := req.To
	gas, err := s.backend.EstimateGas(ctx, ethereum.CallMsg{From: s.auth.From, To: &to, Data: req.Data, Value: value})
	if err != nil {
		return common.Hash{}, fmt.Errorf("estimate gas: %w", err)
	}
	// Headroom for state drift between estimation and inclusion.
	gas += gas / 5

	tip, err := s.backend.SuggestGasTipCap(ctx)
	if err != nil {
		return common.Hash{}, fmt.Errorf("suggest tip: %w", err)
	}
	head, err := s.backend.HeaderByNumber(ctx, nil)
	if err != nil {
		return common.Hash{}, fmt.Errorf("latest header: %w", err)
	}
	feeCap := new(big.Int).Set(tip)
	if head.BaseFee != nil {
		feeCap.Add(feeCap, new(big.Int).Mul(head.BaseFee, big.NewInt(2)))
	}

	nonce, err := s.nonces.GetNonce(ctx)
	if err != nil {
		return common.Hash{}, fmt.Errorf("nonce: %w", err)
	}
	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   s.chainID,
		Nonce:     nonce,
		GasTipCap: tip,
		GasFeeCap: feeCap,
		Gas:       gas,
		To:        &to,
		Value:     value,
		Data:      req.Data,
	})
	signed, err := s.auth.Signer(s.auth.From, tx)
	if err != nil {
		s.nonces.Reset()
		return common.Hash{}, fmt.Errorf("sign: %w", err)
	}
	if err := s.backend.SendTransaction(ctx, signed); err != nil {
		s.nonces.Reset()
		return common.Hash{}, fmt.Errorf("send transaction: %w", err)
	}
	s.logger.Debug("transaction sent",
		zap.String("tx_hash", signed.Hash().Hex()),
		zap.Uint64("nonce", nonce),
		zap.Uint64("gas", gas),
	)
	return signed.Hash(), nil
}

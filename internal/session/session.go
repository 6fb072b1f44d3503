// Package session wires every component of a basebond process once and tears
// them down in reverse order.
package session

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"basebond/internal/actions"
	"basebond/internal/chain"
	"basebond/internal/config"
	"basebond/internal/contracts"
	"basebond/internal/failure"
	"basebond/internal/invalidate"
	"basebond/internal/model"
	"basebond/internal/projection"
	"basebond/internal/reader"
	"basebond/internal/storage"
	"basebond/internal/storage/postgres"
	"basebond/internal/tracker"
	"basebond/internal/wallet"
)

// Session holds the components shared by one process.
type Session struct {
	Config    config.Config
	Logger    *zap.Logger
	Client    *chain.Client
	Registry  *contracts.Registry
	Reader    *reader.Aggregator
	Bus       *invalidate.Bus
	Store     storage.OperationStore
	Tracker   *tracker.Manager
	Actions   *actions.Service
	Formatter projection.Formatter

	nats    *invalidate.NATSPublisher
	closers []func() error
}

type options struct {
	confirmer wallet.Confirmer
}

// Option adjusts Open.
type Option func(*options)

// WithConfirmer replaces the interactive terminal prompt.
func WithConfirmer(c wallet.Confirmer) Option {
	return func(o *options) { o.confirmer = c }
}

// Open builds the session. Missing contract addresses and a missing signer
// are not errors here; the features that need them fail when used.
func Open(ctx context.Context, cfg config.Config, logger *zap.Logger, opts ...Option) (*Session, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.confirmer == nil {
		if cfg.Yes {
			o.confirmer = wallet.AutoApprove{}
		} else {
			o.confirmer = wallet.NewPrompt(os.Stdin, os.Stderr)
		}
	}

	if cfg.RPCURL == "" {
		return nil, failure.New(failure.Configuration, "rpc", errors.New("rpc url is required"))
	}

	registry, err := contracts.NewRegistry(cfg.Addresses)
	if err != nil {
		return nil, failure.New(failure.Configuration, "contracts", err)
	}

	s := &Session{
		Config:   cfg,
		Logger:   logger,
		Registry: registry,
		Formatter: projection.Formatter{
			Locale:         projection.Locale(cfg.Locale),
			FractionDigits: cfg.FractionDigits,
			Symbol:         projection.DefaultFormatter.Symbol,
		},
	}

	client, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("rpc client: %w", err)
	}
	s.Client = client
	s.closers = append(s.closers, func() error { client.Close(); return nil })

	s.Reader = reader.New(registry, client, reader.Options{
		MaxBatch:     cfg.MaxBatch,
		MaxRetries:   cfg.MaxRetries,
		RetryBackoff: cfg.RetryBackoff,
	}, logger.Named("reader"))

	var forwarder invalidate.Forwarder
	if cfg.NATSURL != "" {
		pub, err := invalidate.DialNATS(cfg.NATSURL, cfg.NATSSubject)
		if err != nil {
			s.Close()
			return nil, err
		}
		s.nats = pub
		forwarder = pub
		s.closers = append(s.closers, func() error { pub.Close(); return nil })
	}
	s.Bus = invalidate.NewBus(forwarder, logger.Named("invalidate"))

	store, err := OpenStore(ctx, cfg)
	if err != nil {
		s.Close()
		return nil, err
	}
	s.Store = store
	s.closers = append(s.closers, store.Close)

	sender, err := s.openSender(ctx, o.confirmer)
	if err != nil {
		s.Close()
		return nil, err
	}

	s.Tracker = tracker.NewManager(client, sender, s.Bus, store, tracker.Options{
		ConfirmTimeout: cfg.ConfirmTimeout,
		PollInterval:   cfg.PollInterval,
		Confirmations:  cfg.Confirmations,
	}, logger.Named("tracker"))

	s.Actions = actions.NewService(registry, s.Reader, s.Tracker, s.Bus, actions.Options{
		Decimals:  cfg.TokenDecimals,
		Formatter: s.Formatter,
	}, logger.Named("actions"))

	logger.Debug("session opened",
		zap.String("store", cfg.Store),
		zap.Bool("nats", s.nats != nil),
		zap.String("from", s.Tracker.From().Hex()),
	)
	return s, nil
}

// openSender returns nil when no signer is configured.
func (s *Session) openSender(ctx context.Context, confirmer wallet.Confirmer) (wallet.Sender, error) {
	cfg := s.Config
	var base wallet.Sender
	switch {
	case cfg.PrivateKey != "":
		chainID := new(big.Int).SetUint64(cfg.ChainID)
		if cfg.ChainID == 0 {
			id, err := s.Client.GetChainID(ctx)
			if err != nil {
				return nil, fmt.Errorf("get chain id: %w", err)
			}
			chainID = id
		}
		keyed, err := wallet.NewKeyedSender(s.Client, cfg.PrivateKey, chainID, s.Logger.Named("wallet"))
		if err != nil {
			return nil, failure.New(failure.Configuration, "private-key", err)
		}
		base = keyed
	case cfg.From != "":
		if !common.IsHexAddress(cfg.From) {
			return nil, failure.New(failure.Configuration, "from", fmt.Errorf("invalid address %q", cfg.From))
		}
		base = wallet.NewRPCSender(s.Client, common.HexToAddress(cfg.From))
	default:
		return nil, nil
	}
	return wallet.WithConfirmation(base, confirmer), nil
}

// OpenStore opens the configured operation history backend.
func OpenStore(ctx context.Context, cfg config.Config) (storage.OperationStore, error) {
	switch cfg.Store {
	case config.StoreNone, "":
		return storage.NoneStore{}, nil
	case config.StoreFile:
		store := storage.NewFileStore(cfg.StorePath)
		journal := storage.NewJournal(strings.TrimSuffix(cfg.StorePath, filepath.Ext(cfg.StorePath)) + ".jsonl")
		return storage.WithJournal(store, journal), nil
	case config.StorePostgres:
		return postgres.NewStore(ctx, cfg.PGDSN)
	case config.StoreRedis:
		return storage.NewRedisStore(cfg.RedisURL, cfg.RedisTTL), nil
	default:
		return nil, failure.New(failure.Configuration, "store", fmt.Errorf("unknown store %q", cfg.Store))
	}
}

// Track resumes every resumable operation in the history.
func (s *Session) Track(ctx context.Context) ([]*tracker.Tracker, error) {
	ops, err := s.Store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list operations: %w", err)
	}
	return s.Tracker.Sweep(ctx, s.Client, storage.Resumable(ops), s.Config.MaxBatch)
}

// History lists recorded operations.
func (s *Session) History(ctx context.Context) ([]model.PendingOperation, error) {
	return s.Store.List(ctx)
}

// Close releases resources in reverse order of creation.
func (s *Session) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}

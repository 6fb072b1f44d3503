// Package actions turns user intents into tracked writes. Writes that spend
// tokens are serialized behind an approve whose effect is observed before the
// dependent write is submitted.
package actions

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"basebond/internal/contracts"
	"basebond/internal/failure"
	"basebond/internal/invalidate"
	"basebond/internal/model"
	"basebond/internal/projection"
	"basebond/internal/tracker"
)

// ErrAllowanceNotObserved is returned when an approve confirmed but the
// re-read allowance is still below the amount to spend.
var ErrAllowanceNotObserved = errors.New("basebond: approved allowance not observed")

// ErrInvalidInput wraps malformed user input.
var ErrInvalidInput = errors.New("basebond: invalid input")

// Reader is the part of the read aggregator actions depend on.
type Reader interface {
	Allowance(ctx context.Context, token, owner, spender common.Address) (*big.Int, error)
	EventDetails(ctx context.Context, id uint64) (model.EventRecord, error)
}

// Submitter starts tracked writes.
type Submitter interface {
	Submit(ctx context.Context, req tracker.Request) (*tracker.Tracker, error)
	From() common.Address
}

// Expecter registers interest in an invalidation key before it is published.
type Expecter interface {
	Expect(key string) *invalidate.Expectation
}

// Service builds and submits every write kind.
type Service struct {
	registry  *contracts.Registry
	reader    Reader
	submitter Submitter
	bus       Expecter
	decimals  uint8
	format    projection.Formatter
	logger    *zap.Logger
}

// Options configures amount parsing and prompt summaries.
type Options struct {
	Decimals  uint8
	Formatter projection.Formatter
}

func NewService(registry *contracts.Registry, reader Reader, submitter Submitter, bus Expecter, opts Options, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Formatter.Symbol == "" {
		opts.Formatter = projection.DefaultFormatter
	}
	return &Service{
		registry:  registry,
		reader:    reader,
		submitter: submitter,
		bus:       bus,
		decimals:  opts.Decimals,
		format:    opts.Formatter,
		logger:    logger,
	}
}

// ParseAmount converts a decimal token string to minor units.
func (s *Service) ParseAmount(text string) (*big.Int, error) {
	amount, err := projection.ParseUnits(text, s.decimals)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return amount, nil
}

func (s *Service) wallet() (common.Address, error) {
	from := s.submitter.From()
	if from == (common.Address{}) {
		return common.Address{}, failure.New(failure.Configuration, "wallet", errors.New("no signer configured"))
	}
	return from, nil
}

func (s *Service) label(amount *big.Int) string {
	return s.format.CurrencyLabel(amount, s.decimals)
}

// write packs method on the named contract and submits it.
func (s *Service) write(ctx context.Context, kind model.OperationKind, name contracts.Name, method, summary string, keys []string, args ...interface{}) (*tracker.Tracker, error) {
	desc, err := s.registry.Resolve(name)
	if err != nil {
		return nil, err
	}
	data, err := desc.ABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}
	return s.submitter.Submit(ctx, tracker.Request{
		Kind:           kind,
		Contract:       name,
		To:             desc.Address,
		Method:         method,
		Data:           data,
		InvalidateKeys: keys,
		Summary:        summary,
	})
}

// Approve lets spender move amount of the payment token from the wallet.
func (s *Service) Approve(ctx context.Context, spender contracts.Name, amount *big.Int) (*tracker.Tracker, error) {
	owner, err := s.wallet()
	if err != nil {
		return nil, err
	}
	spenderDesc, err := s.registry.Resolve(spender)
	if err != nil {
		return nil, err
	}
	token, err := s.registry.Resolve(contracts.IDRXToken)
	if err != nil {
		return nil, err
	}
	keys := []string{
		invalidate.AllowanceKey(token.Address, owner, spenderDesc.Address),
		invalidate.BalanceKey(token.Address, owner),
	}
	summary := fmt.Sprintf("Approve %s to spend %s", spender, s.label(amount))
	return s.write(ctx, model.OpApprove, contracts.IDRXToken, "approve", summary, keys, spenderDesc.Address, amount)
}

// ensureAllowance makes sure spender may move amount. When the current
// allowance is short it approves, waits for the approve to confirm and for
// the allowance key to be invalidated, then re-reads the allowance.
func (s *Service) ensureAllowance(ctx context.Context, spender contracts.Name, amount *big.Int) error {
	owner, err := s.wallet()
	if err != nil {
		return err
	}
	spenderDesc, err := s.registry.Resolve(spender)
	if err != nil {
		return err
	}
	token, err := s.registry.Resolve(contracts.IDRXToken)
	if err != nil {
		return err
	}

	current, err := s.reader.Allowance(ctx, token.Address, owner, spenderDesc.Address)
	if err != nil {
		return fmt.Errorf("read allowance: %w", err)
	}
	if current.Cmp(amount) >= 0 {
		return nil
	}

	key := invalidate.AllowanceKey(token.Address, owner, spenderDesc.Address)
	exp := s.bus.Expect(key)
	defer exp.Close()

	approve, err := s.Approve(ctx, spender, amount)
	if err != nil {
		return err
	}
	if _, err := approve.Wait(ctx); err != nil {
		return err
	}
	if err := exp.Wait(ctx); err != nil {
		return err
	}

	fresh, err := s.reader.Allowance(ctx, token.Address, owner, spenderDesc.Address)
	if err != nil {
		return fmt.Errorf("re-read allowance: %w", err)
	}
	if fresh.Cmp(amount) < 0 {
		s.logger.Warn("allowance still short after approve",
			zap.String("spender", string(spender)),
			zap.String("allowance", fresh.String()),
			zap.String("amount", amount.String()),
		)
		return ErrAllowanceNotObserved
	}
	return nil
}

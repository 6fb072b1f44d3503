// Package tracker follows a write from signing to a terminal outcome:
// confirmed, reverted, rejected by the signer, or timed out while waiting.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"basebond/internal/contracts"
	"basebond/internal/failure"
	"basebond/internal/model"
	"basebond/internal/wallet"
)

// Backend is what the confirmation watch needs from the node.
type Backend interface {
	TransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error)
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	LatestBlockNumber(ctx context.Context) (uint64, error)
}

// Publisher receives the invalidation keys of a confirmed write.
type Publisher interface {
	Publish(ctx context.Context, keys ...string) error
}

// Recorder persists every phase transition.
type Recorder interface {
	Put(ctx context.Context, op model.PendingOperation) error
}

// Options bounds the confirmation watch.
type Options struct {
	ConfirmTimeout time.Duration
	PollInterval   time.Duration
	Confirmations  uint64
}

// Request describes one write.
type Request struct {
	Kind           model.OperationKind
	Contract       contracts.Name
	To             common.Address
	Method         string
	Data           []byte
	Value          *big.Int
	InvalidateKeys []string
	Summary        string
}

// Manager creates trackers sharing one backend, signer and history.
type Manager struct {
	backend   Backend
	sender    wallet.Sender
	publisher Publisher
	recorder  Recorder
	opts      Options
	logger    *zap.Logger
	now       func() time.Time
	newID     func() string
}

// NewManager builds a manager. sender may be nil for read-only sessions;
// publisher and recorder may be nil.
func NewManager(backend Backend, sender wallet.Sender, publisher Publisher, recorder Recorder, opts Options, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.ConfirmTimeout <= 0 {
		opts.ConfirmTimeout = 2 * time.Minute
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 2 * time.Second
	}
	return &Manager{
		backend:   backend,
		sender:    sender,
		publisher: publisher,
		recorder:  recorder,
		opts:      opts,
		logger:    logger,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// From returns the signing address, zero without a signer.
func (m *Manager) From() common.Address {
	if m.sender == nil {
		return common.Address{}
	}
	return m.sender.From()
}

// Tracker owns one write. All methods are safe for concurrent use.
type Tracker struct {
	m   *Manager
	req Request

	mu   sync.Mutex
	op   model.PendingOperation
	err  error
	done chan struct{}
	once sync.Once
}

func (m *Manager) newTracker(req Request) *Tracker {
	now := m.now().UTC()
	keys := append([]string(nil), req.InvalidateKeys...)
	return &Tracker{
		m:   m,
		req: req,
		op: model.PendingOperation{
			ID:             m.newID(),
			Kind:           req.Kind,
			Phase:          model.PhaseIdle,
			Contract:       string(req.Contract),
			Method:         req.Method,
			To:             req.To.Hex(),
			Input:          hexutil.Encode(req.Data),
			InvalidateKeys: keys,
			CreatedAt:      now,
			UpdatedAt:      now,
		},
		done: make(chan struct{}),
	}
}

// Submit signs and broadcasts req, then starts the confirmation watch in the
// background. The watch is detached from ctx: cancelling ctx abandons waiting
// for the outcome but never the tracking, which only the confirm timeout
// bounds. The tracker is returned even when submission fails.
func (m *Manager) Submit(ctx context.Context, req Request) (*Tracker, error) {
	t := m.newTracker(req)
	t.transition(model.PhaseSubmitting, nil)

	if m.sender == nil {
		err := failure.New(failure.Configuration, req.Method, errors.New("no signer configured"))
		t.finish(model.PhaseFailed, err)
		return t, err
	}

	hash, err := m.sender.Send(ctx, wallet.TxRequest{
		To:      req.To,
		Data:    req.Data,
		Value:   req.Value,
		Summary: req.Summary,
	})
	if err != nil {
		fe := classify(req.Method, err)
		t.finish(model.PhaseFailed, fe)
		return t, fe
	}

	t.transition(model.PhaseSubmitted, func(op *model.PendingOperation) { op.TxHash = hash.Hex() })
	t.startWatch(ctx)
	return t, nil
}

// Resume restarts the confirmation watch of a previously submitted write.
func (m *Manager) Resume(ctx context.Context, op model.PendingOperation) (*Tracker, error) {
	t, err := m.restore(op)
	if err != nil {
		return nil, err
	}
	t.startWatch(ctx)
	return t, nil
}

func (m *Manager) restore(op model.PendingOperation) (*Tracker, error) {
	if op.TxHash == "" {
		return nil, fmt.Errorf("operation %s has no transaction hash", op.ID)
	}
	req := Request{
		Kind:           op.Kind,
		Contract:       contracts.Name(op.Contract),
		Method:         op.Method,
		InvalidateKeys: op.InvalidateKeys,
	}
	if common.IsHexAddress(op.To) {
		req.To = common.HexToAddress(op.To)
	}
	if op.Input != "" {
		if data, err := hexutil.Decode(op.Input); err == nil {
			req.Data = data
		}
	}
	op.Phase = model.PhaseSubmitted
	op.FailureKind = ""
	op.Reason = ""
	return &Tracker{m: m, req: req, op: op, done: make(chan struct{})}, nil
}

func (t *Tracker) startWatch(ctx context.Context) {
	t.transition(model.PhaseConfirming, nil)
	t.launch(ctx)
}

func (t *Tracker) launch(ctx context.Context) {
	watchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), t.m.opts.ConfirmTimeout)
	go t.watch(watchCtx, cancel)
}

func (t *Tracker) hash() common.Hash {
	t.mu.Lock()
	defer t.mu.Unlock()
	return common.HexToHash(t.op.TxHash)
}

func (t *Tracker) watch(ctx context.Context, cancel context.CancelFunc) {
	defer cancel()
	hash := t.hash()
	ticker := time.NewTicker(t.m.opts.PollInterval)
	defer ticker.Stop()

	for {
		receipt, err := t.m.backend.TransactionReceipt(ctx, hash)
		switch {
		case err == nil && receipt != nil:
			if t.settle(ctx, receipt) {
				return
			}
		case err != nil && !errors.Is(err, ethereum.NotFound) && ctx.Err() == nil:
			t.m.logger.Debug("receipt poll failed", zap.String("tx_hash", hash.Hex()), zap.Error(err))
		}

		select {
		case <-ctx.Done():
			t.finish(model.PhaseFailed, &failure.Error{
				Kind:   failure.ConfirmationTimeout,
				Op:     t.req.Method,
				Reason: fmt.Sprintf("no confirmation within %s", t.m.opts.ConfirmTimeout),
			})
			return
		case <-ticker.C:
		}
	}
}

// settle handles a mined receipt and reports whether the write is terminal.
func (t *Tracker) settle(ctx context.Context, receipt *types.Receipt) bool {
	if receipt.Status == types.ReceiptStatusFailed {
		t.finish(model.PhaseFailed, &failure.Error{
			Kind:   failure.ExecutionReverted,
			Op:     t.req.Method,
			Reason: t.replayReason(ctx, receipt.BlockNumber),
		})
		return true
	}
	if want := t.m.opts.Confirmations; want > 1 && receipt.BlockNumber != nil {
		latest, err := t.m.backend.LatestBlockNumber(ctx)
		if err != nil {
			return false
		}
		mined := receipt.BlockNumber.Uint64()
		if latest < mined || latest-mined+1 < want {
			return false
		}
	}
	t.confirm(ctx)
	return true
}

// replayReason re-executes the call at the block that reverted it to recover
// the revert reason.
func (t *Tracker) replayReason(ctx context.Context, block *big.Int) string {
	if len(t.req.Data) == 0 && t.req.To == (common.Address{}) {
		return ""
	}
	to := t.req.To
	_, err := t.m.backend.CallContract(ctx, ethereum.CallMsg{
		From:  t.m.From(),
		To:    &to,
		Data:  t.req.Data,
		Value: t.req.Value,
	}, block)
	return RevertReason(err)
}

func (t *Tracker) confirm(ctx context.Context) {
	t.transition(model.PhaseConfirmed, nil)
	if t.m.publisher != nil && len(t.req.InvalidateKeys) > 0 {
		if err := t.m.publisher.Publish(ctx, t.req.InvalidateKeys...); err != nil {
			t.m.logger.Warn("publish invalidation failed", zap.Error(err))
		}
	}
	t.once.Do(func() { close(t.done) })
}

func (t *Tracker) finish(phase model.Phase, fe *failure.Error) {
	t.mu.Lock()
	if fe != nil {
		if t.op.TxHash != "" {
			fe.TxHash = t.op.TxHash
		}
		t.err = fe
	}
	t.mu.Unlock()

	t.transition(phase, func(op *model.PendingOperation) {
		if fe != nil {
			op.FailureKind = string(fe.Kind)
			op.Reason = fe.Reason
			if op.Reason == "" && fe.Err != nil && fe.Kind != failure.UserRejected {
				op.Reason = fe.Err.Error()
			}
		}
	})
	t.once.Do(func() { close(t.done) })
}

func (t *Tracker) transition(phase model.Phase, mutate func(*model.PendingOperation)) {
	t.mu.Lock()
	t.op.Phase = phase
	t.op.UpdatedAt = t.m.now().UTC()
	if mutate != nil {
		mutate(&t.op)
	}
	snapshot := t.snapshotLocked()
	t.mu.Unlock()

	fields := []zap.Field{
		zap.String("op_id", snapshot.ID),
		zap.String("kind", string(snapshot.Kind)),
		zap.String("phase", string(phase)),
	}
	if snapshot.TxHash != "" {
		fields = append(fields, zap.String("tx_hash", snapshot.TxHash))
	}
	if snapshot.FailureKind != "" {
		fields = append(fields, zap.String("failure", snapshot.FailureKind))
	}
	t.m.logger.Info("operation", fields...)

	if t.m.recorder == nil {
		return
	}
	recordCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := t.m.recorder.Put(recordCtx, snapshot); err != nil {
		t.m.logger.Warn("record operation failed", zap.String("op_id", snapshot.ID), zap.Error(err))
	}
}

func (t *Tracker) snapshotLocked() model.PendingOperation {
	op := t.op
	op.InvalidateKeys = append([]string(nil), t.op.InvalidateKeys...)
	return op
}

// State returns a snapshot of the operation.
func (t *Tracker) State() model.PendingOperation {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshotLocked()
}

// Done is closed when the operation reaches a terminal phase.
func (t *Tracker) Done() <-chan struct{} {
	return t.done
}

// Err returns the classified failure once terminal, nil when confirmed.
func (t *Tracker) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

// Wait blocks until the operation is terminal or ctx is done. Returning on
// ctx does not stop the tracking.
func (t *Tracker) Wait(ctx context.Context) (model.PendingOperation, error) {
	select {
	case <-t.done:
		return t.State(), t.Err()
	case <-ctx.Done():
		return t.State(), ctx.Err()
	}
}

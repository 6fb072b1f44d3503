package tracker

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rpc"
	"go.uber.org/zap"

	"basebond/internal/chain"
	"basebond/internal/model"
)

// ReceiptBatcher fetches several receipts in one request.
type ReceiptBatcher interface {
	BatchCallContext(ctx context.Context, elems []rpc.BatchElem) error
}

// Sweep picks up every resumable operation, fetches all their receipts in
// batches of maxBatch, settles the ones already mined and resumes the watch
// for the rest. Operations that are not resumable are skipped.
func (m *Manager) Sweep(ctx context.Context, batcher ReceiptBatcher, ops []model.PendingOperation, maxBatch int) ([]*Tracker, error) {
	if maxBatch <= 0 {
		maxBatch = 100
	}
	trackers := make([]*Tracker, 0, len(ops))
	for _, op := range ops {
		if !op.Resumable() {
			continue
		}
		t, err := m.restore(op)
		if err != nil {
			return nil, err
		}
		trackers = append(trackers, t)
	}

	receipts := make([]*types.Receipt, len(trackers))
	spans, err := chain.SplitSpans(len(trackers), maxBatch)
	if err != nil {
		return nil, err
	}
	for _, span := range spans {
		batch := make([]rpc.BatchElem, 0, span.To-span.From)
		for i := span.From; i < span.To; i++ {
			batch = append(batch, rpc.BatchElem{
				Method: "eth_getTransactionReceipt",
				Args:   []interface{}{trackers[i].hash()},
				Result: &receipts[i],
			})
		}
		if err := batcher.BatchCallContext(ctx, batch); err != nil {
			return nil, fmt.Errorf("batch receipt call: %w", err)
		}
		for k, elem := range batch {
			if elem.Error != nil {
				m.logger.Debug("receipt lookup failed",
					zap.String("op_id", trackers[span.From+k].op.ID),
					zap.Error(elem.Error),
				)
				receipts[span.From+k] = nil
			}
		}
	}

	for i, t := range trackers {
		t.transition(model.PhaseConfirming, nil)
		if r := receipts[i]; r != nil && r.BlockNumber != nil && t.settle(ctx, r) {
			continue
		}
		t.launch(ctx)
	}
	return trackers, nil
}

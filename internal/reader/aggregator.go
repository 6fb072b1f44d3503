// Package reader batches contract view calls into JSON-RPC batch requests and
// turns the results into typed records.
package reader

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
	"go.uber.org/zap"

	"basebond/internal/chain"
	"basebond/internal/contracts"
	"basebond/internal/failure"
)

// BatchCaller sends several JSON-RPC calls in one request.
type BatchCaller interface {
	BatchCallContext(ctx context.Context, elems []rpc.BatchElem) error
}

// Call is one contract view call.
type Call struct {
	Contract contracts.Name
	// Address overrides the registry address, for token contracts picked at
	// call time. The ABI still comes from Contract.
	Address *common.Address
	Method  string
	Args    []interface{}
}

// Result is the outcome of one call. Err is a PartialReadFailure when set.
type Result struct {
	Values []interface{}
	Err    error
}

// OK reports whether the call succeeded.
func (r Result) OK() bool {
	return r.Err == nil
}

// Options tunes batching and retries.
type Options struct {
	MaxBatch     int
	MaxRetries   int
	RetryBackoff time.Duration
}

// Aggregator reads contract state. It keeps no cache: every call reaches the node.
type Aggregator struct {
	registry *contracts.Registry
	caller   BatchCaller
	opts     Options
	logger   *zap.Logger
	now      func() time.Time
}

// New builds an aggregator.
func New(registry *contracts.Registry, caller BatchCaller, opts Options, logger *zap.Logger) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.MaxBatch <= 0 {
		opts.MaxBatch = 100
	}
	return &Aggregator{
		registry: registry,
		caller:   caller,
		opts:     opts,
		logger:   logger,
		now:      time.Now,
	}
}

type prepared struct {
	index int
	call  Call
	desc  contracts.Descriptor
	out   *hexutil.Bytes
}

// Batch executes calls and returns one Result per call, at the same index.
// Calls that cannot be resolved, packed, executed or unpacked fail alone.
// The returned error is set only when the request itself could not be
// delivered after retries, or ctx was cancelled.
func (a *Aggregator) Batch(ctx context.Context, calls []Call) ([]Result, error) {
	results := make([]Result, len(calls))
	if len(calls) == 0 {
		return results, nil
	}

	pending := make([]prepared, 0, len(calls))
	elems := make([]rpc.BatchElem, 0, len(calls))
	for i, call := range calls {
		desc, err := a.resolve(call)
		if err != nil {
			results[i] = a.partial(i, call, err)
			continue
		}
		data, err := desc.ABI.Pack(call.Method, call.Args...)
		if err != nil {
			results[i] = a.partial(i, call, fmt.Errorf("pack: %w", err))
			continue
		}
		out := new(hexutil.Bytes)
		pending = append(pending, prepared{index: i, call: call, desc: desc, out: out})
		elems = append(elems, rpc.BatchElem{
			Method: "eth_call",
			Args: []interface{}{
				map[string]interface{}{"to": desc.Address, "data": hexutil.Bytes(data)},
				"latest",
			},
			Result: out,
		})
	}

	if len(elems) > 0 {
		if err := a.send(ctx, elems); err != nil {
			return nil, err
		}
	}

	for k, p := range pending {
		elem := elems[k]
		if elem.Error != nil {
			results[p.index] = a.partial(p.index, p.call, elem.Error)
			continue
		}
		values, err := p.desc.ABI.Unpack(p.call.Method, *p.out)
		if err != nil {
			results[p.index] = a.partial(p.index, p.call, fmt.Errorf("unpack: %w", err))
			continue
		}
		results[p.index] = Result{Values: values}
	}
	return results, nil
}

func (a *Aggregator) resolve(call Call) (contracts.Descriptor, error) {
	if call.Address == nil {
		return a.registry.Resolve(call.Contract)
	}
	parsed, err := contracts.ABIOf(call.Contract)
	if err != nil {
		return contracts.Descriptor{}, err
	}
	return contracts.Descriptor{Name: call.Contract, Address: *call.Address, ABI: parsed}, nil
}

func (a *Aggregator) send(ctx context.Context, elems []rpc.BatchElem) error {
	spans, err := chain.SplitSpans(len(elems), a.opts.MaxBatch)
	if err != nil {
		return err
	}
	for _, span := range spans {
		chunk := elems[span.From:span.To]
		err := chain.WithRetry(ctx, a.opts.MaxRetries, a.opts.RetryBackoff, func(ctx context.Context) error {
			for i := range chunk {
				chunk[i].Error = nil
			}
			return a.caller.BatchCallContext(ctx, chunk)
		})
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			a.logger.Warn("batch eth_call failed",
				zap.Int("from", span.From),
				zap.Int("to", span.To),
				zap.Error(err),
			)
			return fmt.Errorf("batch eth_call: %w", err)
		}
	}
	return nil
}

func (a *Aggregator) partial(index int, call Call, err error) Result {
	a.logger.Debug("read failed",
		zap.String("contract", string(call.Contract)),
		zap.String("method", call.Method),
		zap.Int("index", index),
		zap.Error(err),
	)
	if failure.KindOf(err) == failure.Configuration {
		return Result{Err: err}
	}
	return Result{Err: &failure.Error{Kind: failure.PartialRead, Op: call.Method, Index: index, Err: err}}
}

// one runs a single call and returns its values or its error.
func (a *Aggregator) one(ctx context.Context, call Call) ([]interface{}, error) {
	results, err := a.Batch(ctx, []Call{call})
	if err != nil {
		return nil, err
	}
	return results[0].Values, results[0].Err
}

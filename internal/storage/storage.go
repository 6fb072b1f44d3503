// Package storage keeps the history of write operations so an interrupted
// confirmation watch can be resumed later.
package storage

import (
	"context"
	"errors"
	"sort"

	"basebond/internal/model"
)

// ErrNotFound is returned by Get for an unknown operation id.
var ErrNotFound = errors.New("basebond: operation not found")

// OperationStore persists PendingOperation records keyed by id. Put replaces
// the previous record of the same id.
type OperationStore interface {
	Put(ctx context.Context, op model.PendingOperation) error
	Get(ctx context.Context, id string) (model.PendingOperation, error)
	List(ctx context.Context) ([]model.PendingOperation, error)
	Close() error
}

// NoneStore keeps nothing.
type NoneStore struct{}

func (NoneStore) Put(context.Context, model.PendingOperation) error { return nil }

func (NoneStore) Get(context.Context, string) (model.PendingOperation, error) {
	return model.PendingOperation{}, ErrNotFound
}

func (NoneStore) List(context.Context) ([]model.PendingOperation, error) {
	return []model.PendingOperation{}, nil
}

func (NoneStore) Close() error { return nil }

// Resumable filters the operations whose confirmation watch can restart.
func Resumable(ops []model.PendingOperation) []model.PendingOperation {
	out := make([]model.PendingOperation, 0, len(ops))
	for _, op := range ops {
		if op.Resumable() {
			out = append(out, op)
		}
	}
	return out
}

// sortOperations orders by creation time, oldest first, then by id.
func sortOperations(ops []model.PendingOperation) {
	sort.Slice(ops, func(i, j int) bool {
		if !ops[i].CreatedAt.Equal(ops[j].CreatedAt) {
			return ops[i].CreatedAt.Before(ops[j].CreatedAt)
		}
		return ops[i].ID < ops[j].ID
	})
}

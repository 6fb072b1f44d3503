// Package postgres keeps the operation history in a Postgres table.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"basebond/internal/model"
	"basebond/internal/storage"
)

const schema = `
CREATE TABLE IF NOT EXISTS operations (
	id TEXT PRIMARY KEY,
	kind TEXT NOT NULL,
	tx_hash TEXT NOT NULL DEFAULT '',
	phase TEXT NOT NULL,
	failure_kind TEXT NOT NULL DEFAULT '',
	reason TEXT NOT NULL DEFAULT '',
	contract TEXT NOT NULL,
	method TEXT NOT NULL,
	to_address TEXT NOT NULL DEFAULT '',
	input TEXT NOT NULL DEFAULT '',
	invalidate_keys TEXT[] NOT NULL DEFAULT '{}',
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
)`

const columns = `id, kind, tx_hash, phase, failure_kind, reason, contract, method, to_address, input, invalidate_keys, created_at, updated_at`

// Store provides Postgres persistence for operations.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	s := &Store{pool: pool}
	if err := s.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

// EnsureSchema creates the operations table when missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create operations table: %w", err)
	}
	return nil
}

func (s *Store) Put(ctx context.Context, op model.PendingOperation) error {
	return s.PutMany(ctx, []model.PendingOperation{op})
}

// PutMany upserts operations in one batch.
func (s *Store) PutMany(ctx context.Context, ops []model.PendingOperation) error {
	if len(ops) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, op := range ops {
		keys := op.InvalidateKeys
		if keys == nil {
			keys = []string{}
		}
		batch.Queue(`
			INSERT INTO operations (`+columns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
			ON CONFLICT (id)
			DO UPDATE SET
				tx_hash = EXCLUDED.tx_hash,
				phase = EXCLUDED.phase,
				failure_kind = EXCLUDED.failure_kind,
				reason = EXCLUDED.reason,
				invalidate_keys = EXCLUDED.invalidate_keys,
				updated_at = EXCLUDED.updated_at
		`,
			op.ID,
			string(op.Kind),
			op.TxHash,
			string(op.Phase),
			op.FailureKind,
			op.Reason,
			op.Contract,
			op.Method,
			op.To,
			op.Input,
			keys,
			op.CreatedAt,
			op.UpdatedAt,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range ops {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) Get(ctx context.Context, id string) (model.PendingOperation, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+columns+` FROM operations WHERE id=$1`, id)
	op, err := scan(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.PendingOperation{}, storage.ErrNotFound
		}
		return model.PendingOperation{}, err
	}
	return op, nil
}

func (s *Store) List(ctx context.Context) ([]model.PendingOperation, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+columns+` FROM operations ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.PendingOperation, 0)
	for rows.Next() {
		op, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, op)
	}
	return out, rows.Err()
}

func scan(row pgx.Row) (model.PendingOperation, error) {
	var (
		op          model.PendingOperation
		kind, phase string
	)
	err := row.Scan(
		&op.ID,
		&kind,
		&op.TxHash,
		&phase,
		&op.FailureKind,
		&op.Reason,
		&op.Contract,
		&op.Method,
		&op.To,
		&op.Input,
		&op.InvalidateKeys,
		&op.CreatedAt,
		&op.UpdatedAt,
	)
	op.Kind = model.OperationKind(kind)
	op.Phase = model.Phase(phase)
	return op, err
}

var _ storage.OperationStore = (*Store)(nil)

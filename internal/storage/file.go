package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"basebond/internal/model"
)

// FileStore keeps every operation in one JSON snapshot, rewritten atomically
// on each Put.
type FileStore struct {
	path string
	mu   sync.Mutex
}

type fileSnapshot struct {
	Operations []model.PendingOperation `json:"operations"`
	UpdatedAt  string                   `json:"updated_at"`
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) load() (map[string]model.PendingOperation, error) {
	ops := make(map[string]model.PendingOperation)
	stat, err := os.Stat(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return ops, nil
		}
		return nil, fmt.Errorf("stat history: %w", err)
	}
	if stat.IsDir() {
		return nil, fmt.Errorf("history path is a directory")
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}
	var snap fileSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("parse history: %w", err)
	}
	for _, op := range snap.Operations {
		ops[op.ID] = op
	}
	return ops, nil
}

func (s *FileStore) save(ops map[string]model.PendingOperation) error {
	dir := filepath.Dir(s.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create history dir: %w", err)
		}
	}

	snap := fileSnapshot{
		Operations: make([]model.PendingOperation, 0, len(ops)),
		UpdatedAt:  time.Now().UTC().Format(time.RFC3339Nano),
	}
	for _, op := range ops {
		snap.Operations = append(snap.Operations, op)
	}
	sortOperations(snap.Operations)
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal history: %w", err)
	}

	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write history tmp: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("rename history: %w", err)
	}
	return nil
}

func (s *FileStore) Put(_ context.Context, op model.PendingOperation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ops, err := s.load()
	if err != nil {
		return err
	}
	ops[op.ID] = op
	return s.save(ops)
}

func (s *FileStore) Get(_ context.Context, id string) (model.PendingOperation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ops, err := s.load()
	if err != nil {
		return model.PendingOperation{}, err
	}
	op, ok := ops[id]
	if !ok {
		return model.PendingOperation{}, ErrNotFound
	}
	return op, nil
}

func (s *FileStore) List(_ context.Context) ([]model.PendingOperation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ops, err := s.load()
	if err != nil {
		return nil, err
	}
	out := make([]model.PendingOperation, 0, len(ops))
	for _, op := range ops {
		out = append(out, op)
	}
	sortOperations(out)
	return out, nil
}

func (s *FileStore) Close() error { return nil }

package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"basebond/internal/model"
)

// Journal appends every recorded transition as one JSON line. It is an audit
// trail next to a store, not a store itself.
type Journal struct {
	path string
	mu   sync.Mutex
}

func NewJournal(path string) *Journal {
	return &Journal{path: path}
}

// Append writes a batch of records as JSON lines.
func (j *Journal) Append(ops []model.PendingOperation) error {
	if len(ops) == 0 {
		return nil
	}

	dir := filepath.Dir(j.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create journal dir: %w", err)
		}
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	file, err := os.OpenFile(j.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	for _, op := range ops {
		line, err := json.Marshal(op)
		if err != nil {
			return fmt.Errorf("marshal operation: %w", err)
		}
		if _, err := writer.Write(line); err != nil {
			return fmt.Errorf("write operation: %w", err)
		}
		if err := writer.WriteByte('\n'); err != nil {
			return fmt.Errorf("write newline: %w", err)
		}
	}

	if err := writer.Flush(); err != nil {
		return fmt.Errorf("flush journal: %w", err)
	}
	return nil
}

// Journaled records every Put in a journal before passing it to the store.
type Journaled struct {
	OperationStore
	journal *Journal
}

// WithJournal wraps store.
func WithJournal(store OperationStore, journal *Journal) *Journaled {
	return &Journaled{OperationStore: store, journal: journal}
}

func (s *Journaled) Put(ctx context.Context, op model.PendingOperation) error {
	if err := s.journal.Append([]model.PendingOperation{op}); err != nil {
		return err
	}
	return s.OperationStore.Put(ctx, op)
}

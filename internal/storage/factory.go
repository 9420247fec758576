package storage

import (
	"fmt"
	"log/slog"
)

const (
	MemoryBackend = "memory"
	SQLiteBackend = "sqlite"
)

// Result bundles a backend with its cleanup function.
type Result struct {
	KV      KV
	Cleanup func() error
}

// NewBackend selects and initializes a KV backend by name.
func NewBackend(logger *slog.Logger, backend, dbPath string) (*Result, error) {
	if logger == nil {
		logger = slog.Default()
	}

	switch backend {
	case SQLiteBackend:
		kv, err := NewSQLiteKV(dbPath)
		if err != nil {
			return nil, fmt.Errorf("initialize sqlite backend: %w", err)
		}
		logger.Info("Initialized sqlite backend", "db_path", dbPath)
		return &Result{KV: kv, Cleanup: kv.Close}, nil
	case MemoryBackend:
		logger.Info("Initialized memory backend")
		return &Result{KV: NewMemoryKV(), Cleanup: nil}, nil
	default:
		return nil, fmt.Errorf("invalid backend type: %s", backend)
	}
}

// Package storage provides the durable key-value layer behind the record
// store: independent keys mapping to JSON documents, with sqlite and
// in-memory backends.
package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a key has no stored value.
var ErrNotFound = errors.New("key not found")

// KV is a durable key→JSON-document layer. Writes are last-write-wins;
// there is no versioning and no cross-key schema.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

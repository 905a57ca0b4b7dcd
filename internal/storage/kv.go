// Package storage implements the persistence side of todo: a small
// key-value abstraction with several backends, and the TaskRepository that
// stores the whole task collection as a single JSON blob under one key.
package storage

import (
	"context"
	"errors"
)

// ErrKeyNotFound is returned by KeyValueStore.Get when the key has never
// been written or was deleted.
var ErrKeyNotFound = errors.New("key not found")

// KeyValueStore is a minimal durable string-keyed blob store. Set overwrites
// any previous value as one unit.
type KeyValueStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

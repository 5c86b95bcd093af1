// Package store persists cache entries for company profiles and question
// answers. Backends are byte-oriented key/value stores; encoding and
// expiry live in the cache package.
package store

import (
	"context"
	"time"
)

// Entry is a stored value and the time it was written.
type Entry struct {
	Key       string
	Value     []byte
	CreatedAt time.Time
}

// Store is a durable key/value backend. Put replaces any existing value for
// the key, so concurrent writers of the same key converge on the last write.
type Store interface {
	// Get returns nil, nil when the key is absent.
	Get(ctx context.Context, key string) (*Entry, error)
	Put(ctx context.Context, key string, value []byte) error
	// Delete reports whether a value was removed.
	Delete(ctx context.Context, key string) (bool, error)

	Migrate(ctx context.Context) error
	Close() error
}

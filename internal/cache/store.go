package cache

import (
	"context"
	"time"
)

// StoredEntry is the persisted form of a cache entry. The value is an opaque
// JSON payload; freshness is derived from ExpiresAt, never stored.
type StoredEntry struct {
	Key       string
	Value     []byte
	StoredAt  time.Time
	ExpiresAt time.Time
}

// Store is the persistent tier behind the in-memory cache. Implementations
// are expected to be last-write-wins per key with no merge logic.
type Store interface {
	// GetEntry returns the entry for key, or (nil, nil) when absent.
	GetEntry(ctx context.Context, key string) (*StoredEntry, error)
	PutEntry(ctx context.Context, entry StoredEntry) error
	DeleteEntry(ctx context.Context, key string) error
	// SweepEntries deletes entries whose expiry is before now and reports
	// how many were removed.
	SweepEntries(ctx context.Context, now time.Time) (int, error)
}

// Package cache implements a two-tier TTL cache: an in-memory LRU tier in
// front of a pluggable persistent store. Lookups that miss the memory tier
// fall through to the store and promote fresh entries back up. Fetches for
// the same key are de-duplicated (single-flight), and expired entries can be
// served stale while a background revalidation runs.
package cache

import (
	"context"
	"log"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/errors"
	lru "github.com/hashicorp/golang-lru/v2"
	jsoniter "github.com/json-iterator/go"
	"golang.org/x/sync/singleflight"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// FetchFunc produces a fresh value for a key. A FetchFunc must honour ctx
// cancellation; a cancelled fetch never updates the cache.
type FetchFunc[T any] func(ctx context.Context) (T, error)

type memEntry[T any] struct {
	value     T
	storedAt  time.Time
	expiresAt time.Time
}

type Cache[T any] struct {
	name     string
	mem      *lru.Cache[string, *memEntry[T]]
	store    Store
	group    singleflight.Group
	now      func() time.Time
	sweeping atomic.Bool
}

type Option[T any] func(*Cache[T])

// WithClock overrides the cache's time source.
func WithClock[T any](now func() time.Time) Option[T] {
	return func(c *Cache[T]) {
		c.now = now
	}
}

// New creates a cache with an LRU memory tier of the given size. store may be
// nil for a memory-only cache.
func New[T any](name string, size int, store Store, opts ...Option[T]) (*Cache[T], error) {
	mem, err := lru.New[string, *memEntry[T]](size)
	if err != nil {
		return nil, errors.Wrap(err, "creating LRU tier")
	}

	c := &Cache[T]{
		name:  name,
		mem:   mem,
		store: store,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Get returns the fresh value for key, if any. A found-but-expired entry is
// deleted from both tiers and reported as a miss.
func (c *Cache[T]) Get(ctx context.Context, key string) (T, bool, error) {
	var zero T
	entry, ok, err := c.peek(ctx, key)
	if err != nil || !ok {
		return zero, false, err
	}
	if !c.fresh(entry) {
		c.mem.Remove(key)
		if c.store != nil {
			if err := c.store.DeleteEntry(ctx, key); err != nil {
				log.Printf("cache %s: failed to purge expired entry %q: %v", c.name, key, err)
			}
		}
		return zero, false, nil
	}
	return entry.value, true, nil
}

// Set writes value to both tiers with storedAt = now and
// expiresAt = now + ttl. Writes are last-write-wins per key.
func (c *Cache[T]) Set(ctx context.Context, key string, value T, ttl time.Duration) error {
	now := c.now()
	entry := StoredEntry{Key: key, StoredAt: now, ExpiresAt: now.Add(ttl)}

	if c.store != nil {
		payload, err := json.Marshal(value)
		if err != nil {
			return errors.Wrap(err, "encoding cache value")
		}
		entry.Value = payload
	}

	c.mem.Add(key, &memEntry[T]{value: value, storedAt: now, expiresAt: entry.ExpiresAt})

	if c.store == nil {
		return nil
	}
	return c.store.PutEntry(ctx, entry)
}

// Delete removes key from both tiers.
func (c *Cache[T]) Delete(ctx context.Context, key string) error {
	c.mem.Remove(key)
	if c.store == nil {
		return nil
	}
	return c.store.DeleteEntry(ctx, key)
}

// GetOrSet returns the fresh cached value for key, or invokes fetch, stores
// the result, and returns it. Concurrent callers for the same key share one
// in-flight fetch. If the fetch fails but a previous (possibly expired) value
// still exists, that value is served instead of the error; with no previous
// value the error is surfaced. Context cancellation is surfaced as-is and is
// never papered over with a stale value.
func (c *Cache[T]) GetOrSet(ctx context.Context, key string, ttl time.Duration, fetch FetchFunc[T]) (T, error) {
	var zero T

	entry, ok, err := c.peek(ctx, key)
	if ok && c.fresh(entry) {
		return entry.value, nil
	}
	if err != nil {
		log.Printf("cache %s: persistent tier read for %q failed: %v", c.name, key, err)
	}

	result, err, _ := c.group.Do(key, func() (any, error) {
		// Another flight may have populated the key while we queued.
		if entry, ok, _ := c.peek(ctx, key); ok && c.fresh(entry) {
			return entry.value, nil
		}
		value, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		if err := c.Set(ctx, key, value, ttl); err != nil {
			log.Printf("cache %s: failed to persist %q: %v", c.name, key, err)
		}
		return value, nil
	})
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return zero, err
		}
		if entry, ok, _ := c.peek(ctx, key); ok {
			staleServes.WithLabelValues(c.name).Inc()
			log.Printf("cache %s: fetch for %q failed, serving stale value: %v", c.name, key, err)
			return entry.value, nil
		}
		return zero, err
	}
	return result.(T), nil
}

// GetStale returns any existing value for key immediately, flagging whether
// it has expired. An expired entry triggers a fire-and-forget background
// revalidation; its errors are logged, not surfaced, since the caller already
// has an answer. A cold cache behaves like GetOrSet.
func (c *Cache[T]) GetStale(ctx context.Context, key string, ttl time.Duration, fetch FetchFunc[T]) (T, bool, error) {
	entry, ok, err := c.peek(ctx, key)
	if err != nil {
		log.Printf("cache %s: persistent tier read for %q failed: %v", c.name, key, err)
	}
	if ok {
		if !c.fresh(entry) {
			staleServes.WithLabelValues(c.name).Inc()
			c.revalidate(ctx, key, ttl, fetch)
			return entry.value, true, nil
		}
		return entry.value, false, nil
	}

	value, err := c.GetOrSet(ctx, key, ttl, fetch)
	return value, false, err
}

func (c *Cache[T]) revalidate(ctx context.Context, key string, ttl time.Duration, fetch FetchFunc[T]) {
	// Detached from the caller's lifetime: the caller already has its
	// answer, so tearing it down must not abort the refresh.
	bg := context.WithoutCancel(ctx)
	go func() {
		_, err, _ := c.group.Do(key, func() (any, error) {
			value, err := fetch(bg)
			if err != nil {
				return nil, err
			}
			if err := c.Set(bg, key, value, ttl); err != nil {
				return nil, err
			}
			return value, nil
		})
		if err != nil {
			revalidations.WithLabelValues(c.name, "error").Inc()
			log.Printf("cache %s: background revalidation for %q failed: %v", c.name, key, err)
			return
		}
		revalidations.WithLabelValues(c.name, "ok").Inc()
	}()
}

// Sweep deletes expired entries from both tiers and reports how many were
// removed. A sweep already in progress is skipped, not queued.
func (c *Cache[T]) Sweep(ctx context.Context) (int, error) {
	if !c.sweeping.CompareAndSwap(false, true) {
		return 0, nil
	}
	defer c.sweeping.Store(false)

	now := c.now()
	removed := 0
	for _, key := range c.mem.Keys() {
		if entry, ok := c.mem.Peek(key); ok && !now.Before(entry.expiresAt) {
			c.mem.Remove(key)
			removed++
		}
	}

	if c.store != nil {
		n, err := c.store.SweepEntries(ctx, now)
		if err != nil {
			return removed, errors.Wrap(err, "sweeping persistent tier")
		}
		removed += n
	}
	return removed, nil
}

func (c *Cache[T]) fresh(entry *memEntry[T]) bool {
	return c.now().Before(entry.expiresAt)
}

// peek returns any entry for key, fresh or expired, without purging either
// tier. Fresh store hits are promoted into memory; freshness is the caller's
// concern.
func (c *Cache[T]) peek(ctx context.Context, key string) (*memEntry[T], bool, error) {
	now := c.now()

	if entry, ok := c.mem.Get(key); ok {
		if now.Before(entry.expiresAt) {
			tierHits.WithLabelValues(c.name, "memory").Inc()
		} else {
			tierMisses.WithLabelValues(c.name, "memory").Inc()
		}
		return entry, true, nil
	}
	tierMisses.WithLabelValues(c.name, "memory").Inc()

	if c.store == nil {
		return nil, false, nil
	}

	stored, err := c.store.GetEntry(ctx, key)
	if err != nil {
		return nil, false, errors.Wrap(err, "reading persistent tier")
	}
	if stored == nil {
		tierMisses.WithLabelValues(c.name, "store").Inc()
		return nil, false, nil
	}

	var value T
	if err := json.Unmarshal(stored.Value, &value); err != nil {
		// Malformed payloads are purged rather than served.
		_ = c.store.DeleteEntry(ctx, key)
		return nil, false, errors.Wrap(err, "decoding persistent tier entry")
	}

	entry := &memEntry[T]{value: value, storedAt: stored.StoredAt, expiresAt: stored.ExpiresAt}
	if now.Before(stored.ExpiresAt) {
		tierHits.WithLabelValues(c.name, "store").Inc()
		c.mem.Add(key, entry)
	} else {
		tierMisses.WithLabelValues(c.name, "store").Inc()
	}
	return entry, true, nil
}

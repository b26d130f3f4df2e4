package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fakeStore struct {
	mu      sync.Mutex
	entries map[string]StoredEntry
	getErr  error
}

func newFakeStore() *fakeStore {
	return &fakeStore{entries: make(map[string]StoredEntry)}
}

func (s *fakeStore) GetEntry(_ context.Context, key string) (*StoredEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return nil, s.getErr
	}
	entry, ok := s.entries[key]
	if !ok {
		return nil, nil
	}
	return &entry, nil
}

func (s *fakeStore) PutEntry(_ context.Context, entry StoredEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[entry.Key] = entry
	return nil
}

func (s *fakeStore) DeleteEntry(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}

func (s *fakeStore) SweepEntries(_ context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for key, entry := range s.entries {
		if entry.ExpiresAt.Before(now) {
			delete(s.entries, key)
			removed++
		}
	}
	return removed, nil
}

func (s *fakeStore) has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.entries[key]
	return ok
}

type payload struct {
	N int `json:"n"`
}

func setupCache(t *testing.T) (*Cache[payload], *fakeStore, *fakeClock) {
	t.Helper()
	clock := newFakeClock()
	store := newFakeStore()
	c, err := New("test", 16, store, WithClock[payload](clock.Now))
	require.NoError(t, err)
	return c, store, clock
}

func TestCacheFreshness(t *testing.T) {
	c, store, clock := setupCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", payload{N: 1}, 60*time.Second))

	value, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, payload{N: 1}, value)

	clock.Advance(61 * time.Second)

	_, ok, err = c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
	// The expired entry was purged from the persistent tier too.
	assert.False(t, store.has("k"))
}

func TestCachePersistentTierPromotion(t *testing.T) {
	clock := newFakeClock()
	store := newFakeStore()
	ctx := context.Background()

	first, err := New("test", 16, store, WithClock[payload](clock.Now))
	require.NoError(t, err)
	require.NoError(t, first.Set(ctx, "k", payload{N: 7}, time.Minute))

	// A fresh cache instance with an empty memory tier reads through to
	// the shared store.
	second, err := New("test", 16, store, WithClock[payload](clock.Now))
	require.NoError(t, err)

	value, ok, err := second.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, payload{N: 7}, value)
}

func TestCacheGetOrSet(t *testing.T) {
	t.Run("fetches on miss and caches", func(t *testing.T) {
		c, _, _ := setupCache(t)
		ctx := context.Background()

		var calls atomic.Int32
		value, err := c.GetOrSet(ctx, "k", time.Minute, func(ctx context.Context) (payload, error) {
			calls.Add(1)
			return payload{N: 42}, nil
		})
		require.NoError(t, err)
		assert.Equal(t, payload{N: 42}, value)

		// Second call is served from cache.
		value, err = c.GetOrSet(ctx, "k", time.Minute, func(ctx context.Context) (payload, error) {
			calls.Add(1)
			return payload{N: 43}, nil
		})
		require.NoError(t, err)
		assert.Equal(t, payload{N: 42}, value)
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("single-flight de-duplicates concurrent fetches", func(t *testing.T) {
		c, _, _ := setupCache(t)
		ctx := context.Background()

		var calls atomic.Int32
		fetcher := func(ctx context.Context) (payload, error) {
			calls.Add(1)
			time.Sleep(100 * time.Millisecond)
			return payload{N: 9}, nil
		}

		var wg sync.WaitGroup
		results := make([]payload, 2)
		for i := range results {
			wg.Add(1)
			go func() {
				defer wg.Done()
				value, err := c.GetOrSet(ctx, "k", time.Minute, fetcher)
				assert.NoError(t, err)
				results[i] = value
			}()
		}
		wg.Wait()

		assert.Equal(t, int32(1), calls.Load())
		assert.Equal(t, results[0], results[1])
	})

	t.Run("serves stale value when the fetch fails", func(t *testing.T) {
		c, _, clock := setupCache(t)
		ctx := context.Background()

		require.NoError(t, c.Set(ctx, "k", payload{N: 1}, time.Minute))
		clock.Advance(2 * time.Minute)

		value, err := c.GetOrSet(ctx, "k", time.Minute, func(ctx context.Context) (payload, error) {
			return payload{}, errors.New("upstream down")
		})
		require.NoError(t, err)
		assert.Equal(t, payload{N: 1}, value)
	})

	t.Run("propagates the error with no previous value", func(t *testing.T) {
		c, _, _ := setupCache(t)

		_, err := c.GetOrSet(context.Background(), "k", time.Minute, func(ctx context.Context) (payload, error) {
			return payload{}, errors.New("upstream down")
		})
		require.Error(t, err)
		assert.ErrorContains(t, err, "upstream down")
	})

	t.Run("cancellation is surfaced, never papered over", func(t *testing.T) {
		c, _, clock := setupCache(t)
		ctx, cancel := context.WithCancel(context.Background())

		require.NoError(t, c.Set(ctx, "k", payload{N: 1}, time.Minute))
		clock.Advance(2 * time.Minute)

		cancel()
		_, err := c.GetOrSet(ctx, "k", time.Minute, func(ctx context.Context) (payload, error) {
			return payload{}, ctx.Err()
		})
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestCacheGetStale(t *testing.T) {
	t.Run("fresh entry served without revalidation", func(t *testing.T) {
		c, _, _ := setupCache(t)
		ctx := context.Background()

		require.NoError(t, c.Set(ctx, "k", payload{N: 1}, time.Minute))

		var calls atomic.Int32
		value, stale, err := c.GetStale(ctx, "k", time.Minute, func(ctx context.Context) (payload, error) {
			calls.Add(1)
			return payload{N: 2}, nil
		})
		require.NoError(t, err)
		assert.False(t, stale)
		assert.Equal(t, payload{N: 1}, value)
		assert.Zero(t, calls.Load())
	})

	t.Run("expired entry served stale, then revalidated in the background", func(t *testing.T) {
		c, _, clock := setupCache(t)
		ctx := context.Background()

		require.NoError(t, c.Set(ctx, "k", payload{N: 1}, time.Minute))
		clock.Advance(2 * time.Minute)

		value, stale, err := c.GetStale(ctx, "k", time.Minute, func(ctx context.Context) (payload, error) {
			return payload{N: 2}, nil
		})
		require.NoError(t, err)
		assert.True(t, stale)
		assert.Equal(t, payload{N: 1}, value)

		// The background fetch eventually replaces the entry.
		require.Eventually(t, func() bool {
			value, ok, err := c.Get(ctx, "k")
			return err == nil && ok && value.N == 2
		}, 2*time.Second, 10*time.Millisecond)
	})

	t.Run("failed revalidation keeps serving the old value", func(t *testing.T) {
		c, _, clock := setupCache(t)
		ctx := context.Background()

		require.NoError(t, c.Set(ctx, "k", payload{N: 1}, time.Minute))
		clock.Advance(2 * time.Minute)

		var calls atomic.Int32
		fetcher := func(ctx context.Context) (payload, error) {
			calls.Add(1)
			return payload{}, errors.New("still down")
		}

		value, stale, err := c.GetStale(ctx, "k", time.Minute, fetcher)
		require.NoError(t, err)
		assert.True(t, stale)
		assert.Equal(t, payload{N: 1}, value)

		require.Eventually(t, func() bool {
			return calls.Load() >= 1
		}, 2*time.Second, 10*time.Millisecond)

		value, stale, err = c.GetStale(ctx, "k", time.Minute, fetcher)
		require.NoError(t, err)
		assert.True(t, stale)
		assert.Equal(t, payload{N: 1}, value)
	})

	t.Run("cold cache fetches synchronously", func(t *testing.T) {
		c, _, _ := setupCache(t)

		value, stale, err := c.GetStale(context.Background(), "k", time.Minute, func(ctx context.Context) (payload, error) {
			return payload{N: 5}, nil
		})
		require.NoError(t, err)
		assert.False(t, stale)
		assert.Equal(t, payload{N: 5}, value)
	})
}

func TestCacheDelete(t *testing.T) {
	c, store, _ := setupCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", payload{N: 1}, time.Minute))
	require.NoError(t, c.Delete(ctx, "k"))

	_, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.False(t, store.has("k"))
}

func TestCacheSweep(t *testing.T) {
	c, store, clock := setupCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "old", payload{N: 1}, time.Minute))
	require.NoError(t, c.Set(ctx, "new", payload{N: 2}, time.Hour))
	clock.Advance(2 * time.Minute)

	removed, err := c.Sweep(ctx)
	require.NoError(t, err)
	// "old" is counted once per tier.
	assert.Equal(t, 2, removed)

	assert.False(t, store.has("old"))
	assert.True(t, store.has("new"))

	value, ok, err := c.Get(ctx, "new")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, payload{N: 2}, value)
}

func TestCacheLastWriteWins(t *testing.T) {
	c, _, _ := setupCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", payload{N: 1}, time.Minute))
	require.NoError(t, c.Set(ctx, "k", payload{N: 2}, time.Minute))

	value, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, payload{N: 2}, value)
}

func TestCacheMemoryOnly(t *testing.T) {
	clock := newFakeClock()
	c, err := New[payload]("mem-only", 4, nil, WithClock[payload](clock.Now))
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", payload{N: 3}, time.Minute))

	value, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, payload{N: 3}, value)

	clock.Advance(2 * time.Minute)
	_, ok, err = c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

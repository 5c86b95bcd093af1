// Package cache memoizes company profiles and question answers on top of a
// store.Store. Lookups never fail: backend errors, expired entries and
// entries that no longer decode or validate are all treated as misses.
//
// Concurrent computations of one key are collapsed within a process. Across
// processes sharing a backend there is no coordination; writers replace each
// other's values, which is safe because every value for a key is equivalent.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/sells-group/company-analyzer/internal/store"
)

// Lookup outcomes reported to OnLookup.
const (
	OutcomeHit     = "hit"
	OutcomeMiss    = "miss"
	OutcomeExpired = "expired"
	OutcomeCorrupt = "corrupt"
	OutcomeError   = "error"
)

// maxInheritedRetries bounds how often a waiter restarts a flight whose
// leader was cancelled.
const maxInheritedRetries = 3

// Options configures a Cache.
type Options struct {
	// TTL expires entries older than this. Zero keeps entries forever.
	TTL time.Duration
	// OnLookup observes every lookup by namespace and outcome.
	OnLookup func(namespace, outcome string)
}

// Cache is a typed, single-flight cache over a store.Store.
type Cache struct {
	backend store.Store
	opts    Options
	group   singleflight.Group
	now     func() time.Time
}

// New creates a Cache over backend.
func New(backend store.Store, opts Options) *Cache {
	return &Cache{backend: backend, opts: opts, now: time.Now}
}

// Validator is implemented by cached values that can check their invariants.
type Validator interface {
	Validate() error
}

// Get returns the raw bytes stored under key. Backend failures and expired
// entries are reported as misses.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool) {
	return c.get(ctx, key, c.observe)
}

func (c *Cache) get(ctx context.Context, key string, observe func(key, outcome string)) ([]byte, bool) {
	e, err := c.backend.Get(ctx, key)
	switch {
	case err != nil:
		zap.L().Warn("cache: get failed", zap.String("key", key), zap.Error(err))
		observe(key, OutcomeError)
		return nil, false
	case e == nil:
		observe(key, OutcomeMiss)
		return nil, false
	case c.opts.TTL > 0 && c.now().Sub(e.CreatedAt) > c.opts.TTL:
		observe(key, OutcomeExpired)
		return nil, false
	}
	return e.Value, true
}

// Put stores value under key. Failures are logged and swallowed.
func (c *Cache) Put(ctx context.Context, key string, value []byte) {
	if err := c.backend.Put(ctx, key, value); err != nil {
		zap.L().Warn("cache: put failed", zap.String("key", key), zap.Error(err))
	}
}

// Delete removes key from the backend. Unlike lookups, failures surface.
func (c *Cache) Delete(ctx context.Context, key string) (bool, error) {
	return c.backend.Delete(ctx, key)
}

func (c *Cache) observe(key, outcome string) {
	if c.opts.OnLookup != nil {
		c.opts.OnLookup(Namespace(key), outcome)
	}
}

// Load decodes the value stored under key. Entries that fail to decode or
// validate are misses.
func Load[T any](ctx context.Context, c *Cache, key string) (T, bool) {
	return load[T](ctx, c, key, c.observe)
}

func load[T any](ctx context.Context, c *Cache, key string, observe func(key, outcome string)) (T, bool) {
	var v T
	raw, ok := c.get(ctx, key, observe)
	if !ok {
		return v, false
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		zap.L().Warn("cache: undecodable entry", zap.String("key", key), zap.Error(err))
		observe(key, OutcomeCorrupt)
		return v, false
	}
	if val, isVal := any(&v).(Validator); isVal {
		if err := val.Validate(); err != nil {
			zap.L().Warn("cache: invalid entry", zap.String("key", key), zap.Error(err))
			observe(key, OutcomeCorrupt)
			var zero T
			return zero, false
		}
	}
	observe(key, OutcomeHit)
	return v, true
}

// Store encodes v and writes it under key.
func Store[T any](ctx context.Context, c *Cache, key string, v T) {
	raw, err := json.Marshal(v)
	if err != nil {
		zap.L().Warn("cache: encode failed", zap.String("key", key), zap.Error(err))
		return
	}
	c.Put(ctx, key, raw)
}

// ComputeFunc produces a value on a miss. The boolean reports whether the
// value may be cached.
type ComputeFunc[T any] func(ctx context.Context) (T, bool, error)

type flightResult[T any] struct {
	value  T
	cached bool
}

// LoadOrCompute returns the cached value for key or computes, stores and
// returns it. Concurrent callers for one key share a single computation. A
// value is written only when compute succeeds, allows caching and the
// computing caller's context is still live. The boolean reports whether the
// value came from the cache.
func LoadOrCompute[T any](ctx context.Context, c *Cache, key string, compute ComputeFunc[T]) (T, bool, error) {
	if v, ok := Load[T](ctx, c, key); ok {
		return v, true, nil
	}

	var zero T
	for attempt := 0; ; attempt++ {
		led := false
		ch := c.group.DoChan(key, func() (any, error) {
			led = true
			// Another flight may have stored the value since the first lookup.
			if v, ok := load[T](ctx, c, key, quiet); ok {
				return flightResult[T]{value: v, cached: true}, nil
			}
			v, cacheable, err := compute(ctx)
			if err != nil {
				return nil, err
			}
			if cacheable && ctx.Err() == nil {
				Store(ctx, c, key, v)
			}
			return flightResult[T]{value: v}, nil
		})

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case res := <-ch:
			if res.Err != nil {
				// A waiter whose leader was cancelled starts its own flight.
				if !led && ctx.Err() == nil && isCancellation(res.Err) && attempt < maxInheritedRetries {
					continue
				}
				return zero, res.Err
			}
			fr := res.Val.(flightResult[T])
			return fr.value, fr.cached, nil
		}
	}
}

func quiet(string, string) {}

func isCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// Package apicache caches the results of idempotent asynchronous lookups
// keyed by their semantic parameters, with a TTL, and collapses concurrent
// identical requests into a single in-flight call.
package apicache

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	// DefaultTTL matches the search-result cache lifetime.
	DefaultTTL = 5 * time.Minute

	// DefaultSweepInterval bounds how long expired entries linger. Sweep
	// cadence is a memory concern, not a correctness one: lookups check
	// expiry themselves.
	DefaultSweepInterval = time.Minute
)

type entry[T any] struct {
	value     T
	expiresAt time.Time
}

// call is a single in-flight fetch shared by all concurrent callers.
type call[T any] struct {
	done  chan struct{}
	value T
	err   error
}

// Cache is a TTL cache with single-flight deduplication.
type Cache[T any] struct {
	mu       sync.Mutex
	entries  map[string]entry[T]
	inflight map[string]*call[T]

	ttl    time.Duration
	now    func() time.Time
	logger zerolog.Logger

	done      chan struct{}
	closeOnce sync.Once
}

type options struct {
	ttl   time.Duration
	sweep time.Duration
	now   func() time.Time
}

// Option configures a Cache.
type Option func(*options)

// WithTTL sets the default entry lifetime.
func WithTTL(ttl time.Duration) Option {
	return func(o *options) { o.ttl = ttl }
}

// WithSweepInterval sets how often expired entries are removed.
func WithSweepInterval(d time.Duration) Option {
	return func(o *options) { o.sweep = d }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// New creates a Cache and starts its background sweep.
// Callers must Close it when done.
func New[T any](logger zerolog.Logger, opts ...Option) *Cache[T] {
	o := options{
		ttl:   DefaultTTL,
		sweep: DefaultSweepInterval,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}

	c := &Cache[T]{
		entries:  make(map[string]entry[T]),
		inflight: make(map[string]*call[T]),
		ttl:      o.ttl,
		now:      o.now,
		logger:   logger.With().Str("component", "apicache").Logger(),
		done:     make(chan struct{}),
	}
	go c.sweepLoop(o.sweep)
	return c
}

// GetOrFetch returns the cached value for key if a live entry exists.
// Otherwise it joins an in-flight fetch for the same key, or invokes fetch
// itself and caches the result for ttl (ttl <= 0 uses the cache default).
// Fetch failures are returned to the caller and never cached; the in-flight
// marker is cleared before the result becomes observable, so a new caller
// always gets a fresh attempt after a failure.
func (c *Cache[T]) GetOrFetch(ctx context.Context, key string, ttl time.Duration, fetch func(context.Context) (T, error)) (T, error) {
	if ttl <= 0 {
		ttl = c.ttl
	}

	c.mu.Lock()
	if e, ok := c.entries[key]; ok && e.expiresAt.After(c.now()) {
		c.mu.Unlock()
		c.logger.Debug().Str("key", key).Msg("cache hit")
		return e.value, nil
	}

	if cl, ok := c.inflight[key]; ok {
		c.mu.Unlock()
		c.logger.Debug().Str("key", key).Msg("joining in-flight fetch")
		select {
		case <-cl.done:
			return cl.value, cl.err
		case <-ctx.Done():
			var zero T
			return zero, ctx.Err()
		}
	}

	cl := &call[T]{done: make(chan struct{})}
	c.inflight[key] = cl
	c.mu.Unlock()

	c.logger.Debug().Str("key", key).Msg("fetching")
	value, err := fetch(ctx)

	c.mu.Lock()
	delete(c.inflight, key)
	if err == nil {
		c.entries[key] = entry[T]{value: value, expiresAt: c.now().Add(ttl)}
	}
	c.mu.Unlock()

	cl.value = value
	cl.err = err
	close(cl.done)
	return value, err
}

// Invalidate removes a single entry.
func (c *Cache[T]) Invalidate(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// Clear removes all entries.
func (c *Cache[T]) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]entry[T])
	c.mu.Unlock()
}

// Stats reports cache occupancy.
type Stats struct {
	Entries  int
	Inflight int
}

// GetStats returns current cache statistics.
func (c *Cache[T]) GetStats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{Entries: len(c.entries), Inflight: len(c.inflight)}
}

// Close stops the background sweep. Safe to call more than once.
func (c *Cache[T]) Close() {
	c.closeOnce.Do(func() { close(c.done) })
}

func (c *Cache[T]) sweepLoop(interval time.Duration) {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.sweep()
		}
	}
}

func (c *Cache[T]) sweep() {
	now := c.now()
	c.mu.Lock()
	removed := 0
	for key, e := range c.entries {
		if e.expiresAt.Before(now) {
			delete(c.entries, key)
			removed++
		}
	}
	c.mu.Unlock()
	if removed > 0 {
		c.logger.Debug().Int("removed", removed).Msg("swept expired entries")
	}
}

// Package querycache is the shared request cache screens fetch through.
// Identical in-flight fetches are collapsed into one backend call and stale
// entries are served immediately while a single background refresh runs.
package querycache

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Proton-105/spinhall-bot/pkg/metrics"
)

// Lookup results reported to metrics.
const (
	ResultHit    = "hit"
	ResultStale  = "stale"
	ResultMiss   = "miss"
	ResultShared = "shared"
)

// Options controls freshness per query.
type Options struct {
	// StaleTime is how long an entry is served without revalidation.
	StaleTime time.Duration
	// CacheTime is how long an entry is kept at all.
	CacheTime time.Duration
	// NoBackgroundRefresh serves stale entries as-is until CacheTime passes.
	NoBackgroundRefresh bool
}

func (o Options) withDefaults(d Options) Options {
	if o.StaleTime <= 0 {
		o.StaleTime = d.StaleTime
	}
	if o.CacheTime <= 0 {
		o.CacheTime = d.CacheTime
	}
	if o.CacheTime < o.StaleTime {
		o.CacheTime = o.StaleTime
	}
	return o
}

// Fetcher loads the value for a key from the backend.
type Fetcher func(ctx context.Context) (any, error)

type entry struct {
	value     any
	staleAt   time.Time
	expiresAt time.Time
}

// Cache is safe for concurrent use.
type Cache struct {
	mu         sync.RWMutex
	entries    map[string]entry
	refreshing map[string]struct{}
	group      singleflight.Group
	wg         sync.WaitGroup

	defaults Options
	log      *slog.Logger
	now      func() time.Time
	record   func(result string)
}

// Option customizes a Cache.
type Option func(*Cache)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// WithLookupRecorder replaces the metrics hook.
func WithLookupRecorder(record func(result string)) Option {
	return func(c *Cache) { c.record = record }
}

// New builds a cache with the given defaults. Zero defaults mean one minute
// stale time and five minutes cache time.
func New(defaults Options, log *slog.Logger, opts ...Option) *Cache {
	if log == nil {
		log = slog.Default()
	}
	defaults = defaults.withDefaults(Options{StaleTime: time.Minute, CacheTime: 5 * time.Minute})

	c := &Cache{
		entries:    make(map[string]entry),
		refreshing: make(map[string]struct{}),
		defaults:   defaults,
		log:        log,
		now:        time.Now,
		record:     metrics.RecordCacheLookup,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch returns the cached value for key or loads it with fn. Errors are
// returned to every waiting caller and never cached.
func (c *Cache) Fetch(ctx context.Context, key string, fn Fetcher, opts ...Options) (any, error) {
	o := c.defaults
	if len(opts) > 0 {
		o = opts[0].withDefaults(c.defaults)
	}

	now := c.now()

	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if ok && now.Before(e.expiresAt) {
		if now.Before(e.staleAt) || o.NoBackgroundRefresh {
			c.record(ResultHit)
			return e.value, nil
		}
		c.record(ResultStale)
		c.revalidate(ctx, key, fn, o)
		return e.value, nil
	}

	ch := c.group.DoChan(key, func() (any, error) {
		return c.load(context.WithoutCancel(ctx), key, fn, o)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Shared {
			c.record(ResultShared)
		} else {
			c.record(ResultMiss)
		}
		return res.Val, res.Err
	}
}

// Peek returns the cached value regardless of freshness.
func (c *Cache) Peek(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok || !c.now().Before(e.expiresAt) {
		return nil, false
	}
	return e.value, true
}

// Set stores value under key as freshly fetched. The last write wins.
func (c *Cache) Set(key string, value any, opts ...Options) {
	o := c.defaults
	if len(opts) > 0 {
		o = opts[0].withDefaults(c.defaults)
	}
	c.store(key, value, o)
}

// Invalidate drops key so the next Fetch goes to the backend.
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// InvalidatePrefix drops every key starting with prefix.
func (c *Cache) InvalidatePrefix(prefix string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for key := range c.entries {
		if strings.HasPrefix(key, prefix) {
			delete(c.entries, key)
			n++
		}
	}
	return n
}

// Sweep removes expired entries and reports how many were dropped.
func (c *Cache) Sweep() int {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for key, e := range c.entries {
		if !now.Before(e.expiresAt) {
			delete(c.entries, key)
			n++
		}
	}
	return n
}

// Len returns the number of stored entries, expired ones included.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Wait blocks until background refreshes started so far have finished.
func (c *Cache) Wait() {
	c.wg.Wait()
}

func (c *Cache) revalidate(ctx context.Context, key string, fn Fetcher, o Options) {
	c.mu.Lock()
	if _, busy := c.refreshing[key]; busy {
		c.mu.Unlock()
		return
	}
	c.refreshing[key] = struct{}{}
	c.wg.Add(1)
	c.mu.Unlock()

	bg := context.WithoutCancel(ctx)
	go func() {
		defer c.wg.Done()
		defer func() {
			c.mu.Lock()
			delete(c.refreshing, key)
			c.mu.Unlock()
		}()

		if _, err, _ := c.group.Do(key, func() (any, error) {
			return c.load(bg, key, fn, o)
		}); err != nil {
			c.log.Warn("background revalidation failed", slog.String("key", key), slog.Any("error", err))
		}
	}()
}

func (c *Cache) load(ctx context.Context, key string, fn Fetcher, o Options) (value any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("query %s panicked: %v", key, r)
		}
	}()

	value, err = fn(ctx)
	if err != nil {
		return nil, err
	}
	c.store(key, value, o)
	return value, nil
}

func (c *Cache) store(key string, value any, o Options) {
	now := c.now()

	c.mu.Lock()
	c.entries[key] = entry{
		value:     value,
		staleAt:   now.Add(o.StaleTime),
		expiresAt: now.Add(o.CacheTime),
	}
	c.mu.Unlock()
}

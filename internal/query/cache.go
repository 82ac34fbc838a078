// Package query caches remote status queries by key.
//
// A Cache serves fresh data without calling the loader, collapses
// concurrent requests for the same key into one load, and keeps the last
// good value when a load fails. Failed loads are reported to subscribers.
package query

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rileyhilliard/provmon/internal/errors"
	"github.com/rileyhilliard/provmon/internal/logger"
)

// DefaultStaleTime is how long machine and provider data is served
// without revalidating.
const DefaultStaleTime = 30 * time.Second

// Loader produces the value for a key. The context it receives carries the
// triggering caller's values but is never cancelled by that caller.
type Loader func(ctx context.Context) (any, error)

// Entry is a snapshot of one cache slot.
type Entry struct {
	Key           Key
	Data          any
	HasData       bool
	LastFetchedAt time.Time // zero when never loaded or invalidated
	IsFetching    bool
	FailureCount  int
	LastError     error
}

// FailureEvent describes one failed load.
type FailureEvent struct {
	Key          Key
	Err          error
	FailureCount int
}

// call is one in-flight load shared by every caller of the same key.
type call struct {
	done    chan struct{}
	val     any
	err     error
	waiters int
	stale   bool // invalidated while running; the result is stored but not fresh
}

type slot struct {
	key           Key
	data          any
	hasData       bool
	lastFetchedAt time.Time
	failureCount  int
	lastError     error
	inflight      *call
}

func (s *slot) markStale() {
	s.lastFetchedAt = time.Time{}
	if s.inflight != nil {
		s.inflight.stale = true
	}
}

type observer struct {
	id int
	fn func(FailureEvent)
}

// Cache is an isolated query cache. Create one with New and release it
// with Dispose.
type Cache struct {
	mu        sync.Mutex
	slots     map[string]*slot
	observers []observer
	nextObs   int
	disposed  bool

	now func() time.Time
	log logger.Logger
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock overrides the time source used for staleness.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		c.now = now
	}
}

// WithLogger sets where failed loads are logged.
func WithLogger(l logger.Logger) Option {
	return func(c *Cache) {
		c.log = l
	}
}

// New creates an empty cache.
func New(opts ...Option) *Cache {
	c := &Cache{
		slots: make(map[string]*slot),
		now:   time.Now,
		log:   logger.NewEnvLogger("[query]"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Dispose drops all entries and observers. Any later Get fails.
// Loads already in flight still deliver their result to attached callers.
func (c *Cache) Dispose() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.slots = make(map[string]*slot)
	c.observers = nil
	c.disposed = true
}

// Get returns the value for key.
//
// Data younger than staleTime is returned without calling loader. If a load
// for key is already running, Get waits for its outcome. Otherwise it starts
// one. A caller whose ctx ends stops waiting; the load itself keeps going.
func (c *Cache) Get(ctx context.Context, key Key, loader Loader, staleTime time.Duration) (any, error) {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return nil, errors.New(errors.ErrExec, "Query cache has been disposed", "")
	}

	id := key.id()
	s, ok := c.slots[id]
	if !ok {
		s = &slot{key: append(Key(nil), key...)}
		c.slots[id] = s
	}

	if s.hasData && !s.lastFetchedAt.IsZero() && c.now().Sub(s.lastFetchedAt) < staleTime {
		data := s.data
		c.mu.Unlock()
		return data, nil
	}

	cl := s.inflight
	if cl != nil {
		cl.waiters++
	} else {
		cl = &call{done: make(chan struct{})}
		s.inflight = cl
		go c.load(context.WithoutCancel(ctx), s, cl, loader)
	}
	c.mu.Unlock()

	select {
	case <-cl.done:
		return cl.val, cl.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *Cache) load(ctx context.Context, s *slot, cl *call, loader Loader) {
	val, err := runLoader(ctx, loader)

	c.mu.Lock()
	if err == nil {
		s.data = val
		s.hasData = true
		s.failureCount = 0
		s.lastError = nil
		if !cl.stale {
			s.lastFetchedAt = c.now()
		}
	} else {
		val = nil
		s.failureCount++
		s.lastError = err
	}
	s.inflight = nil
	event := FailureEvent{Key: s.key, Err: err, FailureCount: s.failureCount}
	observers := make([]observer, len(c.observers))
	copy(observers, c.observers)
	c.mu.Unlock()

	if err != nil {
		c.log.Warn("query %s failed (%d in a row): %s", s.key, event.FailureCount, errors.Summary(err))
		for _, o := range observers {
			c.notify(o, event)
		}
	}

	cl.val, cl.err = val, err
	close(cl.done)
}

// runLoader turns a panicking loader into an error so waiters are released.
func runLoader(ctx context.Context, loader Loader) (val any, err error) {
	defer func() {
		if r := recover(); r != nil {
			val = nil
			err = errors.New(errors.ErrExec, fmt.Sprintf("Query loader panicked: %v", r), "")
		}
	}()
	return loader(ctx)
}

// notify calls one observer. A panicking observer is logged and skipped
// so the remaining observers and the attached callers still run.
func (c *Cache) notify(o observer, event FailureEvent) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Error("query observer panicked on %s: %v", event.Key, r)
		}
	}()
	o.fn(event)
}

// Subscribe registers fn to be called synchronously after every failed
// load. The returned function unregisters it.
func (c *Cache) Subscribe(fn func(FailureEvent)) (unsubscribe func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextObs++
	id := c.nextObs
	c.observers = append(c.observers, observer{id: id, fn: fn})

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		for i, o := range c.observers {
			if o.id == id {
				c.observers = append(c.observers[:i:i], c.observers[i+1:]...)
				return
			}
		}
	}
}

// Invalidate marks key stale so the next Get loads regardless of age.
// Cached data stays available through Peek. A load already running for
// key still delivers its value but does not count as fresh.
func (c *Cache) Invalidate(key Key) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if s, ok := c.slots[key.id()]; ok {
		s.markStale()
	}
}

// InvalidatePrefix invalidates key prefix and every key nested under it.
func (c *Cache) InvalidatePrefix(prefix Key) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, s := range c.slots {
		if s.key.HasPrefix(prefix) {
			s.markStale()
			n++
		}
	}
	return n
}

// Peek returns a snapshot of the entry for key without loading.
func (c *Cache) Peek(key Key) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.slots[key.id()]
	if !ok {
		return Entry{}, false
	}
	return Entry{
		Key:           s.key,
		Data:          s.data,
		HasData:       s.hasData,
		LastFetchedAt: s.lastFetchedAt,
		IsFetching:    s.inflight != nil,
		FailureCount:  s.failureCount,
		LastError:     s.lastError,
	}, true
}

// Fetch is Get with a typed loader and result.
func Fetch[T any](ctx context.Context, c *Cache, key Key, loader func(context.Context) (T, error), staleTime time.Duration) (T, error) {
	var zero T
	v, err := c.Get(ctx, key, func(ctx context.Context) (any, error) {
		return loader(ctx)
	}, staleTime)
	if err != nil {
		return zero, err
	}
	t, ok := v.(T)
	if !ok {
		return zero, errors.New(errors.ErrExec, fmt.Sprintf("Cached value for %s has type %T", key, v), "")
	}
	return t, nil
}

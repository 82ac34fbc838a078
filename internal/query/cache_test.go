package query

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rileyhilliard/provmon/internal/errors"
	"github.com/rileyhilliard/provmon/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock is a manually advanced time source.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
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

func newTestCache(clock *fakeClock) (*Cache, *logger.BufferLogger) {
	log := logger.NewBufferLogger()
	return New(WithClock(clock.Now), WithLogger(log)), log
}

// countingLoader returns the values in order, one per call, and records calls.
func countingLoader(calls *atomic.Int32, results ...any) Loader {
	return func(context.Context) (any, error) {
		n := int(calls.Add(1)) - 1
		if n >= len(results) {
			n = len(results) - 1
		}
		if err, ok := results[n].(error); ok {
			return nil, err
		}
		return results[n], nil
	}
}

// waitForWaiters blocks until n callers have attached to key's in-flight load.
func waitForWaiters(t *testing.T, c *Cache, key Key, n int) {
	t.Helper()
	require.Eventually(t, func() bool {
		c.mu.Lock()
		defer c.mu.Unlock()
		s, ok := c.slots[key.id()]
		return ok && s.inflight != nil && s.inflight.waiters >= n
	}, 2*time.Second, time.Millisecond)
}

func TestCache_FreshHitSkipsLoader(t *testing.T) {
	clock := newFakeClock()
	c, _ := newTestCache(clock)
	var calls atomic.Int32
	loader := countingLoader(&calls, "v1", "v2")
	key := MachinesList()

	v, err := c.Get(context.Background(), key, loader, 30*time.Second)
	require.NoError(t, err)
	assert.Equal(t, "v1", v)

	clock.Advance(29 * time.Second)
	v, err = c.Get(context.Background(), key, loader, 30*time.Second)
	require.NoError(t, err)
	assert.Equal(t, "v1", v)
	assert.Equal(t, int32(1), calls.Load())

	clock.Advance(time.Second)
	v, err = c.Get(context.Background(), key, loader, 30*time.Second)
	require.NoError(t, err)
	assert.Equal(t, "v2", v)
	assert.Equal(t, int32(2), calls.Load())

	entry, ok := c.Peek(key)
	require.True(t, ok)
	assert.Equal(t, clock.Now(), entry.LastFetchedAt)
	assert.False(t, entry.IsFetching)
}

func TestCache_ZeroStaleTimeAlwaysLoads(t *testing.T) {
	c, _ := newTestCache(newFakeClock())
	var calls atomic.Int32
	loader := countingLoader(&calls, "v")

	for i := 0; i < 3; i++ {
		_, err := c.Get(context.Background(), MachinesList(), loader, 0)
		require.NoError(t, err)
	}
	assert.Equal(t, int32(3), calls.Load())
}

func TestCache_ConcurrentCallersShareOneLoad(t *testing.T) {
	c, _ := newTestCache(newFakeClock())
	key := MachineDetail("m1")
	release := make(chan struct{})
	var calls atomic.Int32

	loader := func(context.Context) (any, error) {
		calls.Add(1)
		<-release
		return "shared", nil
	}

	const callers = 10
	results := make([]any, callers)
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = c.Get(context.Background(), key, loader, time.Hour)
		}(i)
	}

	waitForWaiters(t, c, key, callers-1)
	entry, _ := c.Peek(key)
	assert.True(t, entry.IsFetching)

	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for i := 0; i < callers; i++ {
		assert.NoError(t, errs[i])
		assert.Equal(t, "shared", results[i])
	}
}

func TestCache_ConcurrentCallersShareFailure(t *testing.T) {
	c, _ := newTestCache(newFakeClock())
	key := MachineDetail("m1")
	release := make(chan struct{})
	var calls atomic.Int32
	boom := errors.Transport("http://m1/providers", fmt.Errorf("connection refused"))

	loader := func(context.Context) (any, error) {
		calls.Add(1)
		<-release
		return nil, boom
	}

	const callers = 4
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = c.Get(context.Background(), key, loader, time.Hour)
		}(i)
	}

	waitForWaiters(t, c, key, callers-1)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for _, err := range errs {
		assert.Same(t, boom, err)
	}

	entry, _ := c.Peek(key)
	assert.Equal(t, 1, entry.FailureCount)
}

func TestCache_FailureKeepsData(t *testing.T) {
	clock := newFakeClock()
	c, log := newTestCache(clock)
	key := MachineProviders("m1")
	var calls atomic.Int32
	first := fmt.Errorf("first failure")
	second := fmt.Errorf("second failure")
	loader := countingLoader(&calls, "good", first, second, "better")

	_, err := c.Get(context.Background(), key, loader, time.Second)
	require.NoError(t, err)
	fetchedAt := clock.Now()

	clock.Advance(2 * time.Second)
	_, err = c.Get(context.Background(), key, loader, time.Second)
	assert.Same(t, first, err)

	entry, _ := c.Peek(key)
	assert.Equal(t, "good", entry.Data)
	assert.True(t, entry.HasData)
	assert.Equal(t, 1, entry.FailureCount)
	assert.Same(t, first, entry.LastError)
	assert.Equal(t, fetchedAt, entry.LastFetchedAt)

	_, err = c.Get(context.Background(), key, loader, time.Second)
	assert.Same(t, second, err)
	entry, _ = c.Peek(key)
	assert.Equal(t, "good", entry.Data)
	assert.Equal(t, 2, entry.FailureCount)
	assert.Same(t, second, entry.LastError)

	v, err := c.Get(context.Background(), key, loader, time.Second)
	require.NoError(t, err)
	assert.Equal(t, "better", v)
	entry, _ = c.Peek(key)
	assert.Equal(t, 0, entry.FailureCount)
	assert.Nil(t, entry.LastError)

	assert.Equal(t, 2, log.Count("warn"))
}

func TestCache_FailureWithoutPriorData(t *testing.T) {
	c, _ := newTestCache(newFakeClock())
	key := MachineDetail("m1")
	var calls atomic.Int32

	_, err := c.Get(context.Background(), key, countingLoader(&calls, fmt.Errorf("down")), time.Hour)
	require.Error(t, err)

	entry, ok := c.Peek(key)
	require.True(t, ok)
	assert.False(t, entry.HasData)
	assert.Nil(t, entry.Data)

	_, err = c.Get(context.Background(), key, countingLoader(&calls, fmt.Errorf("down")), time.Hour)
	require.Error(t, err)
	assert.Equal(t, int32(2), calls.Load(), "failures are not cached")
}

func TestCache_Observers(t *testing.T) {
	c, _ := newTestCache(newFakeClock())
	key := MachineDetail("m1")
	boom := fmt.Errorf("boom")

	var events []FailureEvent
	unsubscribe := c.Subscribe(func(e FailureEvent) {
		events = append(events, e)
	})
	var second int
	c.Subscribe(func(FailureEvent) { second++ })

	failing := func(context.Context) (any, error) { return nil, boom }

	_, _ = c.Get(context.Background(), key, failing, time.Hour)
	_, _ = c.Get(context.Background(), key, failing, time.Hour)
	_, _ = c.Get(context.Background(), key, func(context.Context) (any, error) { return "ok", nil }, 0)

	require.Len(t, events, 2)
	assert.Equal(t, FailureEvent{Key: key, Err: boom, FailureCount: 1}, events[0])
	assert.Equal(t, 2, events[1].FailureCount)
	assert.Equal(t, 2, second)

	unsubscribe()
	unsubscribe()
	_, _ = c.Get(context.Background(), key, failing, 0)
	assert.Len(t, events, 2)
	assert.Equal(t, 3, second)
}

func TestCache_PanickingObserver(t *testing.T) {
	c, log := newTestCache(newFakeClock())
	key := MachineDetail("m1")
	boom := fmt.Errorf("boom")

	c.Subscribe(func(FailureEvent) { panic("observer bug") })
	var after int
	c.Subscribe(func(FailureEvent) { after++ })

	_, err := c.Get(context.Background(), key, func(context.Context) (any, error) { return nil, boom }, 0)

	assert.Equal(t, boom, err)
	assert.Equal(t, 1, after)
	assert.True(t, log.HasLevel("error"))
	entry, _ := c.Peek(key)
	assert.False(t, entry.IsFetching)
}

func TestCache_ObserverCanPeek(t *testing.T) {
	c, _ := newTestCache(newFakeClock())
	key := MachinesList()

	var seen Entry
	c.Subscribe(func(e FailureEvent) {
		seen, _ = c.Peek(e.Key)
	})

	_, _ = c.Get(context.Background(), key, func(context.Context) (any, error) { return nil, fmt.Errorf("x") }, 0)
	assert.Equal(t, 1, seen.FailureCount)
	assert.False(t, seen.IsFetching)
}

func TestCache_Invalidate(t *testing.T) {
	c, _ := newTestCache(newFakeClock())
	var calls atomic.Int32
	loader := countingLoader(&calls, "v1", "v2")
	key := MachineDetail("m1")

	_, _ = c.Get(context.Background(), key, loader, time.Hour)
	c.Invalidate(key)

	entry, _ := c.Peek(key)
	assert.True(t, entry.LastFetchedAt.IsZero())
	assert.Equal(t, "v1", entry.Data, "invalidation keeps data")

	v, err := c.Get(context.Background(), key, loader, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, "v2", v)

	c.Invalidate(MachineDetail("never-loaded"))
	_, ok := c.Peek(MachineDetail("never-loaded"))
	assert.False(t, ok)
}

func TestCache_InvalidateDuringLoad(t *testing.T) {
	tests := []struct {
		name       string
		invalidate func(c *Cache)
	}{
		{"key", func(c *Cache) { c.Invalidate(MachinesList()) }},
		{"prefix", func(c *Cache) { c.InvalidatePrefix(MachinesRoot()) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestCache(newFakeClock())
			key := MachinesList()
			release := make(chan struct{})
			var calls atomic.Int32
			loader := func(context.Context) (any, error) {
				if calls.Add(1) == 1 {
					<-release
				}
				return int(calls.Load()), nil
			}

			first := make(chan any, 1)
			go func() {
				v, _ := c.Get(context.Background(), key, loader, time.Minute)
				first <- v
			}()
			require.Eventually(t, func() bool {
				e, ok := c.Peek(key)
				return ok && e.IsFetching
			}, 2*time.Second, time.Millisecond)

			tt.invalidate(c)
			close(release)
			assert.Equal(t, 1, <-first, "the running load still delivers")

			entry, _ := c.Peek(key)
			assert.Equal(t, 1, entry.Data)
			assert.True(t, entry.LastFetchedAt.IsZero())

			v, err := c.Get(context.Background(), key, loader, time.Minute)
			require.NoError(t, err)
			assert.Equal(t, 2, v)
			assert.Equal(t, int32(2), calls.Load())

			// a load that started after the invalidation is fresh again
			_, _ = c.Get(context.Background(), key, loader, time.Minute)
			assert.Equal(t, int32(2), calls.Load())
		})
	}
}

func TestCache_InvalidatePrefix(t *testing.T) {
	c, _ := newTestCache(newFakeClock())
	ok := func(context.Context) (any, error) { return "v", nil }

	for _, k := range []Key{MachinesList(), MachineDetail("m1"), ProviderDetail("m1", "p1"), MachineDetail("m2")} {
		_, err := c.Get(context.Background(), k, ok, time.Hour)
		require.NoError(t, err)
	}

	assert.Equal(t, 2, c.InvalidatePrefix(MachineDetail("m1")))

	stale := func(k Key) bool {
		e, _ := c.Peek(k)
		return e.LastFetchedAt.IsZero()
	}
	assert.True(t, stale(MachineDetail("m1")))
	assert.True(t, stale(ProviderDetail("m1", "p1")))
	assert.False(t, stale(MachineDetail("m2")))
	assert.False(t, stale(MachinesList()))

	assert.Equal(t, 4, c.InvalidatePrefix(MachinesRoot()))
}

func TestCache_CancelledWaiterDoesNotAbortLoad(t *testing.T) {
	c, _ := newTestCache(newFakeClock())
	key := MachineDetail("m1")
	release := make(chan struct{})
	var loaderCtxErr atomic.Value

	loader := func(ctx context.Context) (any, error) {
		<-release
		loaderCtxErr.Store(fmt.Sprint(ctx.Err()))
		return "done", nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	triggerErr := make(chan error, 1)
	go func() {
		_, err := c.Get(ctx, key, loader, time.Hour)
		triggerErr <- err
	}()

	var waiterVal any
	var waiterErr error
	waiterDone := make(chan struct{})
	go func() {
		defer close(waiterDone)
		waiterVal, waiterErr = c.Get(context.Background(), key, loader, time.Hour)
	}()

	waitForWaiters(t, c, key, 1)
	cancel()
	assert.ErrorIs(t, <-triggerErr, context.Canceled)

	close(release)
	<-waiterDone
	require.NoError(t, waiterErr)
	assert.Equal(t, "done", waiterVal)
	assert.Equal(t, "<nil>", loaderCtxErr.Load())

	entry, _ := c.Peek(key)
	assert.Equal(t, "done", entry.Data)
}

func TestCache_PanickingLoader(t *testing.T) {
	c, _ := newTestCache(newFakeClock())

	_, err := c.Get(context.Background(), MachinesList(), func(context.Context) (any, error) {
		panic("kaboom")
	}, time.Hour)

	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrExec))
	assert.Contains(t, err.Error(), "kaboom")
}

func TestCache_Dispose(t *testing.T) {
	c, _ := newTestCache(newFakeClock())
	var called bool
	c.Subscribe(func(FailureEvent) { called = true })

	_, err := c.Get(context.Background(), MachinesList(), func(context.Context) (any, error) { return "v", nil }, time.Hour)
	require.NoError(t, err)

	c.Dispose()

	_, ok := c.Peek(MachinesList())
	assert.False(t, ok)

	_, err = c.Get(context.Background(), MachinesList(), func(context.Context) (any, error) { return nil, fmt.Errorf("x") }, time.Hour)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrExec))
	assert.False(t, called)
}

func TestCache_IsolatedInstances(t *testing.T) {
	a, _ := newTestCache(newFakeClock())
	b, _ := newTestCache(newFakeClock())

	_, err := a.Get(context.Background(), MachinesList(), func(context.Context) (any, error) { return "a", nil }, time.Hour)
	require.NoError(t, err)

	_, ok := b.Peek(MachinesList())
	assert.False(t, ok)
}

func TestFetch_Typed(t *testing.T) {
	c, _ := newTestCache(newFakeClock())

	n, err := Fetch(context.Background(), c, MachinesList(), func(context.Context) (int, error) {
		return 42, nil
	}, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 42, n)

	_, err = Fetch(context.Background(), c, MachinesList(), func(context.Context) (string, error) {
		return "unused", nil
	}, time.Hour)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "has type int")

	_, err = Fetch(context.Background(), c, MachineDetail("x"), func(context.Context) ([]string, error) {
		return nil, fmt.Errorf("nope")
	}, time.Hour)
	assert.EqualError(t, err, "nope")
}

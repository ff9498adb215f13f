package ratelimit

import (
	"context"
	"runtime"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
	runtime.Gosched()
	return ctx.Err()
}

func TestThirdCallWaitsForOldestToAgeOut(t *testing.T) {
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := &fakeClock{now: start}
	var waits []time.Duration
	sleep := func(ctx context.Context, d time.Duration) error {
		waits = append(waits, d)
		return clock.Sleep(ctx, d)
	}
	l := New(2, time.Minute, WithClock(clock.Now, sleep))

	require.NoError(t, l.Acquire(context.Background()))
	clock.Sleep(context.Background(), 10*time.Second)
	require.NoError(t, l.Acquire(context.Background()))
	assert.Empty(t, waits)

	require.NoError(t, l.Acquire(context.Background()))
	assert.Equal(t, []time.Duration{50 * time.Second}, waits)
	assert.Equal(t, start.Add(time.Minute), clock.Now())
	assert.Equal(t, 2, l.InWindow())
}

func TestConcurrentAcquireNeverExceedsWindow(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	l := New(2, time.Minute, WithClock(clock.Now, clock.Sleep))
	var mu sync.Mutex
	var grants []time.Time
	l.onGrant = func(ts time.Time) {
		mu.Lock()
		grants = append(grants, ts)
		mu.Unlock()
	}

	var wg sync.WaitGroup
	for i := 0; i < 12; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, l.Acquire(context.Background()))
		}()
	}
	wg.Wait()

	require.Len(t, grants, 12)
	sort.Slice(grants, func(i, j int) bool { return grants[i].Before(grants[j]) })
	for i := 0; i+2 < len(grants); i++ {
		assert.GreaterOrEqual(t, grants[i+2].Sub(grants[i]), time.Minute,
			"grants %d..%d fall inside one window", i, i+2)
	}
}

func TestAcquireHonoursCancellation(t *testing.T) {
	l := New(1, time.Hour)
	require.NoError(t, l.Acquire(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := l.Acquire(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, l.InWindow())
}

func TestUnlimitedLimiterNeverBlocks(t *testing.T) {
	l := New(0, time.Minute)
	for i := 0; i < 100; i++ {
		require.NoError(t, l.Acquire(context.Background()))
	}
	var nilLimiter *Limiter
	require.NoError(t, nilLimiter.Acquire(context.Background()))
}

package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

func newTestCache(ttl time.Duration) (*TTL[string], *fakeClock) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	c := New[string](ttl)
	c.now = clock.Now
	return c, clock
}

func TestTTL_CachesLoad(t *testing.T) {
	c, _ := newTestCache(time.Minute)
	ctx := context.Background()
	var calls int

	load := func(context.Context) (string, error) {
		calls++
		return "user_1", nil
	}

	v, hit, err := c.GetOrLoad(ctx, "user", load)
	if err != nil || hit || v != "user_1" {
		t.Fatalf("first load = (%q, %v, %v), want (user_1, false, nil)", v, hit, err)
	}
	v, hit, _ = c.GetOrLoad(ctx, "user", load)
	if !hit || v != "user_1" {
		t.Errorf("second load = (%q, %v), want cached user_1", v, hit)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1 (should cache)", calls)
	}
}

func TestTTL_ExpiresAfterTTL(t *testing.T) {
	c, clock := newTestCache(time.Minute)
	ctx := context.Background()
	var calls int
	load := func(context.Context) (string, error) {
		calls++
		return "v", nil
	}

	_, _, _ = c.GetOrLoad(ctx, "k", load)
	clock.Advance(time.Minute)
	_, _, _ = c.GetOrLoad(ctx, "k", load)

	if calls != 2 {
		t.Errorf("calls = %d, want 2 (TTL expired)", calls)
	}
}

func TestTTL_ErrorsAreNotCached(t *testing.T) {
	c, _ := newTestCache(time.Minute)
	ctx := context.Background()
	boom := errors.New("boom")
	var calls int

	_, _, err := c.GetOrLoad(ctx, "k", func(context.Context) (string, error) {
		calls++
		return "", boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}
	v, _, err := c.GetOrLoad(ctx, "k", func(context.Context) (string, error) {
		calls++
		return "ok", nil
	})
	if err != nil || v != "ok" || calls != 2 {
		t.Errorf("got (%q, %v) after %d calls, want ok after 2", v, err, calls)
	}
}

func TestTTL_ZeroTTLDisables(t *testing.T) {
	c, _ := newTestCache(0)
	ctx := context.Background()
	var calls int
	load := func(context.Context) (string, error) {
		calls++
		return "v", nil
	}

	_, _, _ = c.GetOrLoad(ctx, "k", load)
	_, _, _ = c.GetOrLoad(ctx, "k", load)
	c.Set("k", "v")

	if calls != 2 {
		t.Errorf("calls = %d, want 2 (caching disabled)", calls)
	}
	if c.Len() != 0 {
		t.Errorf("Len() = %d, want 0", c.Len())
	}
}

func TestTTL_DeleteAndClear(t *testing.T) {
	c, _ := newTestCache(time.Minute)
	c.Set("a", "1")
	c.Set("b", "2")

	c.Delete("a")
	if _, ok := c.Get("a"); ok {
		t.Error("Get(a) after Delete should miss")
	}
	if v, ok := c.Get("b"); !ok || v != "2" {
		t.Errorf("Get(b) = (%q, %v), want (2, true)", v, ok)
	}

	c.Clear()
	if c.Len() != 0 {
		t.Errorf("Len() after Clear = %d, want 0", c.Len())
	}
}

func TestTTL_ConcurrentMissesShareLoad(t *testing.T) {
	c, _ := newTestCache(time.Minute)
	ctx := context.Background()
	var calls int32
	release := make(chan struct{})

	load := func(context.Context) (string, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return "v", nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if v, _, err := c.GetOrLoad(ctx, "k", load); err != nil || v != "v" {
				t.Errorf("GetOrLoad = (%q, %v)", v, err)
			}
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Errorf("calls = %d, want 1 (singleflight)", n)
	}
}

func TestTTL_CanceledCallerDoesNotFailSharedLoad(t *testing.T) {
	c, _ := newTestCache(time.Minute)
	var calls int32
	started := make(chan struct{}, 1)
	release := make(chan struct{})

	load := func(ctx context.Context) (string, error) {
		atomic.AddInt32(&calls, 1)
		started <- struct{}{}
		select {
		case <-release:
			return "v", nil
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	firstCtx, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, _, err := c.GetOrLoad(firstCtx, "k", load)
		firstErr <- err
	}()
	<-started

	type result struct {
		v   string
		err error
	}
	second := make(chan result, 1)
	go func() {
		v, _, err := c.GetOrLoad(context.Background(), "k", load)
		second <- result{v, err}
	}()
	time.Sleep(20 * time.Millisecond)

	cancel()
	if err := <-firstErr; !errors.Is(err, context.Canceled) {
		t.Fatalf("first caller err = %v, want context.Canceled", err)
	}

	close(release)
	res := <-second
	if res.err != nil || res.v != "v" {
		t.Fatalf("second caller = (%q, %v), want (\"v\", nil)", res.v, res.err)
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Errorf("calls = %d, want 1", n)
	}
	if v, ok := c.Get("k"); !ok || v != "v" {
		t.Errorf("Get after load = (%q, %v), want cached value", v, ok)
	}
}

package demo

import (
	"math"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// visitor tracks the token bucket and daily message count of one client.
type visitor struct {
	limiter  *rate.Limiter
	day      string
	count    int
	lastSeen time.Time
}

// decision is the outcome of a visitor limit check.
type decision struct {
	allowed    bool
	reason     string
	remaining  int
	retryAfter time.Duration
}

// visitorLimiter applies a per-visitor token bucket and a daily cap.
type visitorLimiter struct {
	mu        sync.Mutex
	visitors  map[string]*visitor
	perSecond rate.Limit
	burst     int
	daily     int
	idleTTL   time.Duration
	lastSweep time.Time
	now       func() time.Time
}

func newVisitorLimiter(perMinute float64, burst, daily int, now func() time.Time) *visitorLimiter {
	if now == nil {
		now = time.Now
	}
	if burst < 1 {
		burst = 1
	}
	limit := rate.Inf
	if perMinute > 0 {
		limit = rate.Limit(perMinute / 60)
	}
	return &visitorLimiter{
		visitors:  make(map[string]*visitor),
		perSecond: limit,
		burst:     burst,
		daily:     daily,
		idleTTL:   24 * time.Hour,
		now:       now,
	}
}

// allow consumes one message for key if both limits permit it.
func (l *visitorLimiter) allow(key string) decision {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.sweep(now)

	v, ok := l.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.perSecond, l.burst)}
		l.visitors[key] = v
	}
	v.lastSeen = now

	day := now.UTC().Format(time.DateOnly)
	if v.day != day {
		v.day = day
		v.count = 0
	}
	if l.daily > 0 && v.count >= l.daily {
		midnight := now.UTC().Truncate(24 * time.Hour).Add(24 * time.Hour)
		return decision{reason: "daily message limit reached", retryAfter: midnight.Sub(now)}
	}

	r := v.limiter.ReserveN(now, 1)
	if !r.OK() {
		return decision{reason: "rate limit exceeded", retryAfter: time.Minute}
	}
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return decision{reason: "rate limit exceeded", retryAfter: delay}
	}

	v.count++
	remaining := -1
	if l.daily > 0 {
		remaining = l.daily - v.count
	}
	return decision{allowed: true, remaining: remaining}
}

// sweep drops visitors idle for longer than idleTTL. Runs at most once a
// minute.
func (l *visitorLimiter) sweep(now time.Time) {
	if now.Sub(l.lastSweep) < time.Minute {
		return
	}
	l.lastSweep = now
	for key, v := range l.visitors {
		if now.Sub(v.lastSeen) > l.idleTTL {
			delete(l.visitors, key)
		}
	}
}

func (l *visitorLimiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.visitors)
}

// retryAfterSeconds renders d for the Retry-After header, rounding up.
func retryAfterSeconds(d time.Duration) int {
	s := int(math.Ceil(d.Seconds()))
	if s < 1 {
		s = 1
	}
	return s
}

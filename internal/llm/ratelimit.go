package llm

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Veraticus/finflow/internal/common"
)

const (
	defaultCallsPerWindow = 10
	rateWindowLength      = time.Minute
	defaultCaller         = "default"
)

type callerKey struct{}

// WithCaller tags ctx with the identity whose call budget a request is charged to.
func WithCaller(ctx context.Context, caller string) context.Context {
	if caller == "" {
		return ctx
	}
	return context.WithValue(ctx, callerKey{}, caller)
}

// CallerFromContext returns the caller tagged by WithCaller, or a shared default.
func CallerFromContext(ctx context.Context) string {
	if caller, ok := ctx.Value(callerKey{}).(string); ok && caller != "" {
		return caller
	}
	return defaultCaller
}

type callWindow struct {
	resetAt time.Time
	count   int
}

// rateLimiter gives every caller a fixed budget of calls per window.
type rateLimiter struct {
	now     func() time.Time
	windows map[string]*callWindow
	limit   int
	window  time.Duration
	mu      sync.Mutex
}

// newRateLimiter allows callsPerMinute narrative calls per caller per minute.
func newRateLimiter(callsPerMinute int) *rateLimiter {
	if callsPerMinute <= 0 {
		callsPerMinute = defaultCallsPerWindow
	}

	return &rateLimiter{
		now:     time.Now,
		windows: make(map[string]*callWindow),
		limit:   callsPerMinute,
		window:  rateWindowLength,
	}
}

// allow charges one call to caller. When the budget is spent it reports
// how long until the caller's window resets.
func (rl *rateLimiter) allow(caller string) (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	rl.prune(now)

	w, ok := rl.windows[caller]
	if !ok {
		rl.windows[caller] = &callWindow{count: 1, resetAt: now.Add(rl.window)}
		return true, 0
	}
	if w.count < rl.limit {
		w.count++
		return true, 0
	}
	return false, w.resetAt.Sub(now)
}

// remaining reports how many calls caller has left in its current window.
func (rl *rateLimiter) remaining(caller string) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	w, ok := rl.windows[caller]
	if !ok || rl.now().After(w.resetAt) {
		return rl.limit
	}
	return max(0, rl.limit-w.count)
}

// prune drops expired windows. Callers must hold mu.
func (rl *rateLimiter) prune(now time.Time) {
	for caller, w := range rl.windows {
		if now.After(w.resetAt) {
			delete(rl.windows, caller)
		}
	}
}

// wait blocks until the caller tagged on ctx has budget or ctx is done.
func (rl *rateLimiter) wait(ctx context.Context) error {
	caller := CallerFromContext(ctx)

	for {
		ok, retryAfter := rl.allow(caller)
		if ok {
			return nil
		}

		timer := time.NewTimer(retryAfter + time.Millisecond)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("%w: caller %s over budget: %w", common.ErrRateLimit, caller, ctx.Err())
		case <-timer.C:
		}
	}
}

// Close forgets all caller windows.
func (rl *rateLimiter) Close() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	clear(rl.windows)
}

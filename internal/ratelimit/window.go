// Package ratelimit enforces a call budget over a rolling time window.
//
// Unlike a token bucket (golang.org/x/time/rate), a sliding-window log
// guarantees that no window of the configured length ever contains more
// than N admissions, which is how the completion APIs count requests.
package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fleveque/company-summarizer/internal/clock"
)

// DefaultWindow is the rolling window the completion APIs budget against.
const DefaultWindow = time.Minute

// Window admits at most limit calls in any rolling window of the given length.
// It is safe for concurrent use; waiters block until budget frees up.
type Window struct {
	mu     sync.Mutex
	limit  int
	window time.Duration
	clock  clock.Clock
	stamps []time.Time // admission times, oldest first

	// OnWait, if set, is called with every wait duration before sleeping.
	OnWait func(time.Duration)
}

// New creates a limiter for limit calls per window.
func New(limit int, window time.Duration, c clock.Clock) (*Window, error) {
	if limit < 1 {
		return nil, fmt.Errorf("rate limit must be at least 1, got %d", limit)
	}
	if window <= 0 {
		return nil, fmt.Errorf("rate limit window must be positive, got %s", window)
	}
	if c == nil {
		c = clock.New()
	}
	return &Window{
		limit:  limit,
		window: window,
		clock:  c,
		stamps: make([]time.Time, 0, limit),
	}, nil
}

// Acquire blocks until a call may be made, then records it.
// It returns ctx.Err() if the context ends while waiting; in that case no
// budget is consumed.
func (w *Window) Acquire(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		wait, ok := w.tryAdmit()
		if ok {
			return nil
		}

		if w.OnWait != nil {
			w.OnWait(wait)
		}
		if err := w.clock.Sleep(ctx, wait); err != nil {
			return err
		}
	}
}

// tryAdmit records an admission if budget is available. Otherwise it returns
// how long until the oldest admission leaves the window.
func (w *Window) tryAdmit() (time.Duration, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.clock.Now()
	w.evict(now)

	if len(w.stamps) < w.limit {
		w.stamps = append(w.stamps, now)
		return 0, true
	}
	return w.stamps[0].Add(w.window).Sub(now), false
}

// evict drops admissions that are a full window or more in the past.
func (w *Window) evict(now time.Time) {
	i := 0
	for i < len(w.stamps) && now.Sub(w.stamps[i]) >= w.window {
		i++
	}
	if i > 0 {
		// Shift in place so the backing array is reused.
		n := copy(w.stamps, w.stamps[i:])
		w.stamps = w.stamps[:n]
	}
}

// InWindow returns how many admissions currently count against the budget.
func (w *Window) InWindow() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.evict(w.clock.Now())
	return len(w.stamps)
}

// Limit returns the configured budget.
func (w *Window) Limit() int { return w.limit }

// Package clock abstracts time so that rate budgets and retry backoffs can be
// driven by a simulated clock in tests.
package clock

import (
	"context"
	"time"
)

// Clock tells the time and blocks for a duration.
// Sleep must return early with ctx.Err() when the context is cancelled.
type Clock interface {
	Now() time.Time
	Sleep(ctx context.Context, d time.Duration) error
}

// Real is the wall clock.
type Real struct{}

// New returns the wall clock.
func New() Real { return Real{} }

func (Real) Now() time.Time { return time.Now() }

// Sleep waits for d or until ctx is done, whichever comes first.
// select on two channels is Go's way of saying "whichever happens first".
func (Real) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

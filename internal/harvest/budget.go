package harvest

import (
	"context"
	"time"
)

// SleepFunc blocks for d or until ctx is done. Pacing code never calls
// time.Sleep directly so tests can swap in a fake clock.
type SleepFunc func(ctx context.Context, d time.Duration) error

// SleepContext is the wall-clock SleepFunc.
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// RequestBudget counts calls made against one rate-limited endpoint inside
// its current window. It must only be reset after a pause at least as long
// as the window.
type RequestBudget struct {
	Endpoint string
	Limit    int
	Window   time.Duration

	used int
}

// NewRequestBudget creates a budget of limit calls per window.
func NewRequestBudget(endpoint string, limit int, window time.Duration) *RequestBudget {
	return &RequestBudget{
		Endpoint: endpoint,
		Limit:    limit,
		Window:   window,
	}
}

// Used returns the number of calls counted in the current window.
func (b *RequestBudget) Used() int {
	return b.used
}

// Consume counts one call.
func (b *RequestBudget) Consume() {
	b.used++
}

// Exhausted reports whether the counter has reached the ceiling.
func (b *RequestBudget) Exhausted() bool {
	return b.used >= b.Limit
}

// NextWouldCross reports whether one more call would reach the ceiling, so
// callers can pause before being throttled.
func (b *RequestBudget) NextWouldCross() bool {
	return b.used+1 >= b.Limit
}

// WaitForWindow sleeps a full window and then resets the counter. The counter
// is left untouched if the sleep is interrupted.
func (b *RequestBudget) WaitForWindow(ctx context.Context, sleep SleepFunc) error {
	if err := sleep(ctx, b.Window); err != nil {
		return err
	}
	b.used = 0
	return nil
}

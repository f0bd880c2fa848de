// Package quota bounds how many synchronous grades the service performs per day.
package quota

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/okian/pickgrader/pkg/metrics"
)

// ErrExhausted is returned when a budget has no room for the request.
var ErrExhausted = errors.New("grading quota exhausted")

// Unlimited is reported by Remaining for budgets without a limit.
const Unlimited = -1

// Budget meters units of work.
type Budget interface {
	// Consume takes n units or fails with ErrExhausted without taking any.
	Consume(ctx context.Context, n int) error
	// Remaining returns the units left in the current window, or Unlimited.
	Remaining(ctx context.Context) int
}

// DailyBudget allows limit units per UTC day.
type DailyBudget struct {
	mu    sync.Mutex
	limit int
	used  int
	day   time.Time
	now   func() time.Time
}

// Option applies a configuration option to the DailyBudget.
type Option func(*DailyBudget)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(b *DailyBudget) {
		if now != nil {
			b.now = now
		}
	}
}

// NewDailyBudget returns a budget of limit units per UTC day. limit <= 0 is unlimited.
func NewDailyBudget(limit int, opts ...Option) *DailyBudget {
	b := &DailyBudget{limit: limit, now: time.Now}
	for _, opt := range opts {
		opt(b)
	}
	b.day = dayOf(b.now())
	metrics.UpdateQuotaRemaining(b.remainingLocked())
	return b
}

func dayOf(t time.Time) time.Time {
	return t.UTC().Truncate(24 * time.Hour)
}

// rollLocked resets usage when the UTC day has changed. Caller holds b.mu.
func (b *DailyBudget) rollLocked() {
	if today := dayOf(b.now()); !today.Equal(b.day) {
		b.day = today
		b.used = 0
	}
}

func (b *DailyBudget) remainingLocked() int {
	if b.limit <= 0 {
		return Unlimited
	}
	return b.limit - b.used
}

// Consume implements Budget.
func (b *DailyBudget) Consume(ctx context.Context, n int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if n < 0 {
		return fmt.Errorf("quota: negative consume %d", n)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.limit <= 0 {
		return nil
	}
	b.rollLocked()
	if b.used+n > b.limit {
		return fmt.Errorf("%w: %d requested, %d of %d left today", ErrExhausted, n, b.limit-b.used, b.limit)
	}
	b.used += n
	metrics.UpdateQuotaRemaining(b.remainingLocked())
	return nil
}

// Remaining implements Budget.
func (b *DailyBudget) Remaining(_ context.Context) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rollLocked()
	return b.remainingLocked()
}

// ResetsAt returns the start of the next UTC day.
func (b *DailyBudget) ResetsAt() time.Time {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rollLocked()
	return b.day.Add(24 * time.Hour)
}

package testsupport

import (
	"context"
	"sync"
	"time"
)

// FakeClock records every Sleep and returns immediately, advancing its own
// notion of now by the requested duration. When Gate is set, each Sleep
// also waits for a value on it.
type FakeClock struct {
	Gate chan struct{}

	mu     sync.Mutex
	now    time.Time
	sleeps []time.Duration
}

// NewFakeClock starts the clock at a fixed instant
func NewFakeClock() *FakeClock {
	return &FakeClock{now: time.Date(2026, time.October, 14, 10, 0, 0, 0, time.UTC)}
}

func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *FakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if c.Gate != nil {
		select {
		case <-c.Gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.sleeps = append(c.sleeps, d)
	c.now = c.now.Add(d)
	return nil
}

// Sleeps returns the durations slept so far, in order
func (c *FakeClock) Sleeps() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]time.Duration, len(c.sleeps))
	copy(out, c.sleeps)
	return out
}

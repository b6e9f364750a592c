package pace

import (
	"context"
	"time"
)

// Clock abstracts time so pacing decisions can be tested deterministically.
type Clock interface {
	Now() time.Time
	Sleep(ctx context.Context, d time.Duration) error
}

type systemClock struct{}

// SystemClock is backed by the wall clock.
func SystemClock() Clock {
	return systemClock{}
}

func (systemClock) Now() time.Time {
	return time.Now()
}

func (systemClock) Sleep(ctx context.Context, d time.Duration) error {
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

// FakeClock only moves forward when something sleeps on it (or when Advance is called). It records every
// requested sleep.
type FakeClock struct {
	now    time.Time
	Sleeps []time.Duration
}

func NewFakeClock(start time.Time) *FakeClock {
	return &FakeClock{now: start}
}

func (c *FakeClock) Now() time.Time {
	return c.now
}

func (c *FakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d <= 0 {
		return nil
	}
	c.Sleeps = append(c.Sleeps, d)
	c.now = c.now.Add(d)
	return nil
}

// Advance simulates time spent doing work (e.g. response latency).
func (c *FakeClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

// Slept is the total time spent sleeping.
func (c *FakeClock) Slept() time.Duration {
	var total time.Duration
	for _, d := range c.Sleeps {
		total += d
	}
	return total
}

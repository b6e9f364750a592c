package pace

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

const (
	// DefaultAuthenticatedInterval keeps NVD keyed clients under 50 requests per rolling 30 seconds.
	DefaultAuthenticatedInterval = 600 * time.Millisecond

	// DefaultUnauthenticatedInterval keeps anonymous NVD clients under 5 requests per rolling 30 seconds.
	DefaultUnauthenticatedInterval = 6 * time.Second
)

// Mode selects how the minimum interval between requests is enforced.
type Mode int

const (
	// Adaptive waits before a call only for whatever is left of the window since the previous call started.
	// Calls that never happen (cache hits) cost nothing.
	Adaptive Mode = iota

	// Fixed always waits the full interval after every lookup regardless of how long the call took or
	// whether a call was made at all.
	Fixed
)

func (m Mode) String() string {
	if m == Fixed {
		return "fixed"
	}
	return "adaptive"
}

type Policy struct {
	Mode     Mode
	Interval time.Duration
}

// ForCredential picks the NVD pacing policy for the presence (or absence) of an API key.
func ForCredential(hasCredential bool, authenticated, unauthenticated time.Duration) Policy {
	if hasCredential {
		return Policy{Mode: Adaptive, Interval: authenticated}
	}
	return Policy{Mode: Fixed, Interval: unauthenticated}
}

// Pacer enforces a policy for a single provider. A nil *Pacer never waits. A Pacer is not safe for concurrent
// use; every request to one provider must go through the same instance.
type Pacer struct {
	policy  Policy
	clock   Clock
	limiter *rate.Limiter

	// dispatched is when the previous request was released.
	dispatched time.Time
}

func New(policy Policy, clock Clock) *Pacer {
	if clock == nil {
		clock = SystemClock()
	}
	p := &Pacer{
		policy: policy,
		clock:  clock,
	}
	if policy.Mode == Adaptive && policy.Interval > 0 {
		p.limiter = rate.NewLimiter(rate.Every(policy.Interval), 1)
	}
	return p
}

func (p *Pacer) Policy() Policy {
	if p == nil {
		return Policy{}
	}
	return p.policy
}

// Before must be called immediately before a request is dispatched.
func (p *Pacer) Before(ctx context.Context) error {
	if p == nil || p.limiter == nil {
		return nil
	}
	now := p.clock.Now()
	delay := p.remainder(now, p.limiter.ReserveN(now, 1).DelayFrom(now))
	if err := p.clock.Sleep(ctx, delay); err != nil {
		return err
	}
	p.dispatched = p.clock.Now()
	return nil
}

// remainder raises the limiter's delay to exactly what is left of the window since the previous dispatch.
func (p *Pacer) remainder(now time.Time, delay time.Duration) time.Duration {
	if p.dispatched.IsZero() {
		return delay
	}
	if left := p.policy.Interval - now.Sub(p.dispatched); left > delay {
		return left
	}
	return delay
}

// After must be called once a lookup has completed, whether or not it resulted in a request.
func (p *Pacer) After(ctx context.Context) error {
	if p == nil || p.policy.Mode != Fixed {
		return nil
	}
	return p.clock.Sleep(ctx, p.policy.Interval)
}

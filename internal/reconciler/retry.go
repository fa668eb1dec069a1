package reconciler

import (
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// Retry policies.
const (
	// RetryFixed waits the configured interval after every tick.
	RetryFixed = "fixed"
	// RetryExponential waits a growing delay after failed ticks.
	RetryExponential = "exponential"
)

// RetryConfig selects the delay before the next tick.
type RetryConfig struct {
	Policy  string        // fixed, exponential
	Initial time.Duration // first delay after a failure
	Max     time.Duration // cap on failure delays, zero means the interval
}

// scheduler computes the wait between ticks. It is not safe for concurrent
// use; only the run loop calls it.
type scheduler struct {
	interval time.Duration
	max      time.Duration
	backoff  *backoff.ExponentialBackOff // nil for the fixed policy
}

func newScheduler(interval time.Duration, cfg RetryConfig) (*scheduler, error) {
	s := &scheduler{interval: interval}

	switch cfg.Policy {
	case "", RetryFixed:
		return s, nil
	case RetryExponential:
	default:
		return nil, fmt.Errorf("unknown retry policy %q", cfg.Policy)
	}

	if cfg.Initial <= 0 {
		return nil, fmt.Errorf("exponential retry needs a positive initial delay, got %s", cfg.Initial)
	}

	s.max = cfg.Max
	if s.max <= 0 {
		s.max = interval
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = cfg.Initial
	b.MaxInterval = s.max
	b.Reset()
	s.backoff = b

	return s, nil
}

// next returns the delay before the tick following one that ended with
// outcome. Success always resets to the regular interval.
func (s *scheduler) next(outcome Outcome) time.Duration {
	if s.backoff == nil {
		return s.interval
	}

	if outcome.Succeeded() {
		s.backoff.Reset()
		return s.interval
	}

	d := s.backoff.NextBackOff()
	if d == backoff.Stop || d > s.max {
		// jitter can overshoot the cap
		d = s.max
	}
	return d
}

// Package backoff computes retry delays and drives retry loops for the CLI's
// calls to the grading server.
package backoff

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"
)

const (
	Fixed          = "fixed"
	Linear         = "linear"
	Exponential    = "exponential"
	ExpEqualJitter = "exp_equal_jitter"
	ExpFullJitter  = "exp_full_jitter"
)

// Policy describes how long to wait between attempts.
type Policy struct {
	Name     string        `yaml:"policy"`
	Base     time.Duration `yaml:"base"`
	Max      time.Duration `yaml:"max"`
	Attempts int           `yaml:"attempts"`
}

// DefaultPolicy is what the CLI uses when the profile sets nothing.
var DefaultPolicy = Policy{Name: ExpFullJitter, Base: 250 * time.Millisecond, Max: 4 * time.Second, Attempts: 4}

// Delay returns the wait before retry number attempt (0-based).
func (p Policy) Delay(attempt int, rng *rand.Rand) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	base := p.Base
	if base <= 0 {
		base = time.Millisecond
	}
	limit := p.Max
	if limit <= 0 {
		limit = base
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	exp := func() time.Duration {
		d := float64(base) * math.Pow(2, float64(attempt))
		if d >= float64(limit) {
			return limit
		}
		return time.Duration(d)
	}

	switch p.Name {
	case Fixed:
		return minDuration(base, limit)
	case Linear:
		return minDuration(base*time.Duration(maxInt(1, attempt)), limit)
	case Exponential:
		return exp()
	case ExpEqualJitter:
		ceiling := exp()
		half := ceiling / 2
		return half + time.Duration(rng.Int63n(int64(half)+1))
	default:
		ceiling := exp()
		if ceiling <= 0 {
			return 0
		}
		return time.Duration(rng.Int63n(int64(ceiling) + 1))
	}
}

// RetryableError marks a failure worth another attempt. After, when set,
// overrides the policy delay (for example from a Retry-After header).
type RetryableError struct {
	Err   error
	After time.Duration
}

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// Retryable wraps err so Retry tries again.
func Retryable(err error, after time.Duration) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err, After: after}
}

// Retry calls fn until it succeeds, returns a non-retryable error, the policy
// runs out of attempts, or ctx ends. The last error is returned unwrapped.
func Retry(ctx context.Context, p Policy, rng *rand.Rand, fn func(attempt int) error) error {
	attempts := p.Attempts
	if attempts <= 0 {
		attempts = 1
	}
	var err error
	for attempt := 0; attempt < attempts; attempt++ {
		err = fn(attempt)
		var re *RetryableError
		if err == nil || !errors.As(err, &re) {
			return err
		}
		if attempt == attempts-1 {
			return re.Err
		}
		wait := re.After
		if wait <= 0 {
			wait = p.Delay(attempt, rng)
		}
		if p.Max > 0 && wait > p.Max {
			wait = p.Max
		}
		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}
	return err
}

func minDuration(a, b time.Duration) time.Duration {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

package resilience

import (
	"context"
	"math"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"
)

// Policy controls how an operation is retried.
type Policy struct {
	// Attempts is the total number of tries, including the first. Default: 3.
	Attempts int
	// Initial is the delay before the first retry. Default: 1s.
	Initial time.Duration
	// Max caps a single delay. Default: 10s.
	Max time.Duration
	// Factor scales the delay after each retry. Default: 2.
	Factor float64
	// Jitter spreads each delay by up to ±Jitter of its value.
	Jitter float64
	// Retryable decides whether an error is worth another try.
	// Nil means IsTransient.
	Retryable func(err error) bool
	// Service and Op label retry log lines.
	Service string
	Op      string
}

// DefaultPolicy returns the policy used for third-party API calls.
func DefaultPolicy(service, op string) Policy {
	return Policy{
		Attempts: 3,
		Initial:  time.Second,
		Max:      10 * time.Second,
		Factor:   2,
		Jitter:   0.2,
		Service:  service,
		Op:       op,
	}
}

func (p Policy) withDefaults() Policy {
	if p.Attempts <= 0 {
		p.Attempts = 3
	}
	if p.Initial <= 0 {
		p.Initial = time.Second
	}
	if p.Max <= 0 {
		p.Max = 10 * time.Second
	}
	if p.Factor < 1 {
		p.Factor = 2
	}
	if p.Jitter < 0 {
		p.Jitter = 0
	}
	if p.Retryable == nil {
		p.Retryable = IsTransient
	}
	return p
}

// delay returns the wait before retry number n (0-based).
func (p Policy) delay(n int) time.Duration {
	d := float64(p.Initial) * math.Pow(p.Factor, float64(n))
	if d > float64(p.Max) {
		d = float64(p.Max)
	}
	if p.Jitter > 0 {
		d += d * p.Jitter * (rand.Float64()*2 - 1)
	}
	if d < 0 {
		return 0
	}
	return time.Duration(d)
}

// Retry runs fn until it succeeds, returns a non-retryable error, the
// attempts run out, or ctx is done. The last error is returned.
func Retry[T any](ctx context.Context, p Policy, fn func(ctx context.Context) (T, error)) (T, error) {
	p = p.withDefaults()

	var zero T
	var err error
	for n := 0; n < p.Attempts; n++ {
		var v T
		v, err = fn(ctx)
		if err == nil {
			return v, nil
		}
		if ctx.Err() != nil || !p.Retryable(err) || n == p.Attempts-1 {
			return zero, err
		}

		wait := p.delay(n)
		zap.L().Warn("resilience: retrying",
			zap.String("service", p.Service),
			zap.String("op", p.Op),
			zap.Int("attempt", n+1),
			zap.Duration("wait", wait),
			zap.Error(err),
		)

		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return zero, err
		case <-t.C:
		}
	}
	return zero, err
}

// Sleep waits for d or until ctx is done, returning ctx.Err() in the latter
// case. A non-positive d returns immediately.
func Sleep(ctx context.Context, d time.Duration) error {
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

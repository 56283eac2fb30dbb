// Package retry provides a capped exponential backoff with jitter for
// provider calls, per the transient-error retry policy: retry 429/5xx
// from embedding or LLM providers, then surface.
package retry

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Transient marks an error as retryable. Providers should wrap 429/5xx
// responses in Transient before returning them from a call passed to Do.
type Transient struct{ Err error }

func (t Transient) Error() string { return t.Err.Error() }
func (t Transient) Unwrap() error { return t.Err }

// AsTransient wraps err as retryable, or returns nil if err is nil.
func AsTransient(err error) error {
	if err == nil {
		return nil
	}
	return Transient{Err: err}
}

// Policy configures the backoff schedule.
type Policy struct {
	InitialInterval time.Duration
	MaxInterval     time.Duration
	MaxElapsedTime  time.Duration
}

// DefaultPolicy is a short, bounded retry suitable for request-path calls:
// initial ~1s, cap ~30s, give up after ~2 minutes total.
var DefaultPolicy = Policy{
	InitialInterval: time.Second,
	MaxInterval:     30 * time.Second,
	MaxElapsedTime:  2 * time.Minute,
}

// Do runs fn, retrying on errors wrapped with Transient according to
// policy. A non-Transient error fails immediately without retrying.
func Do(ctx context.Context, policy Policy, fn func(ctx context.Context) error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = policy.InitialInterval
	b.MaxInterval = policy.MaxInterval
	b.MaxElapsedTime = policy.MaxElapsedTime

	operation := func() error {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		var t Transient
		if errors.As(err, &t) {
			return err
		}
		return backoff.Permanent(err)
	}

	return backoff.Retry(operation, backoff.WithContext(b, ctx))
}

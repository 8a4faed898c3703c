// Package retry wraps a registry Backend with bounded exponential backoff and
// turns its error returns into the nil-on-failure Client contract.
package retry

import (
	"context"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/ipam-rir/rir-manager/internal/registry"
	"github.com/ipam-rir/rir-manager/internal/telemetry"
)

const (
	// DefaultMaxAttempts is the number of calls made before giving up
	DefaultMaxAttempts = 3

	// DefaultBase is the exponential backoff multiplier
	DefaultBase = 2
)

// Policy configures retry of transient registry failures.
type Policy struct {
	// MaxAttempts is the total number of calls, including the first.
	MaxAttempts int
	// Base scales the waits: the first wait is Base units and waits double
	// from there, capped at Base*MaxAttempts units.
	Base float64
	// Unit is the backoff time unit, one second unless overridden.
	Unit time.Duration
}

// DefaultPolicy returns the standard policy of 3 attempts with a base of 2 seconds.
func DefaultPolicy() Policy {
	return Policy{MaxAttempts: DefaultMaxAttempts, Base: DefaultBase, Unit: time.Second}
}

func (p Policy) withDefaults() Policy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = DefaultMaxAttempts
	}
	if p.Base <= 0 {
		p.Base = DefaultBase
	}
	if p.Unit <= 0 {
		p.Unit = time.Second
	}
	return p
}

// MaxWait is the cap applied to any single wait.
func (p Policy) MaxWait() time.Duration {
	p = p.withDefaults()
	return time.Duration(p.Base * float64(p.MaxAttempts) * float64(p.Unit))
}

func (p Policy) backOff() backoff.BackOff {
	p = p.withDefaults()
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = time.Duration(p.Base * float64(p.Unit))
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxInterval = p.MaxWait()
	b.Reset()
	return b
}

// do runs fn under the policy. Transient failures are retried; anything else
// stops immediately. The last error is returned once attempts run out.
func do[T any](
	ctx context.Context,
	p Policy,
	metrics *telemetry.RegistryMetrics,
	op string,
	fn func(context.Context) (T, error),
) (T, error) {
	p = p.withDefaults()

	return backoff.Retry(ctx,
		func() (T, error) {
			v, err := fn(ctx)
			if err == nil {
				return v, nil
			}
			if !registry.IsTransient(err) {
				return v, backoff.Permanent(err)
			}
			return v, err
		},
		backoff.WithBackOff(p.backOff()),
		backoff.WithMaxTries(uint(p.MaxAttempts)),
		backoff.WithMaxElapsedTime(0),
		backoff.WithNotify(func(err error, wait time.Duration) {
			metrics.RecordRetry(ctx, op)
			slog.Warn("Transient registry failure, retrying",
				"operation", op,
				"category", registry.GetCategory(err),
				"wait", wait,
				"error", err)
		}),
	)
}

// Package retry runs operations against flaky collaborators with a bounded,
// fixed-delay policy. Only errors marked transient are retried.
package retry

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Policy is a bounded fixed-backoff retry policy.
type Policy struct {
	Attempts int           // total attempts including the first, minimum 1
	Delay    time.Duration // pause between attempts
}

// Policies used across the service.
var (
	// Outbound HTTP to social providers and mail delivery.
	Outbound = Policy{Attempts: 3, Delay: 2 * time.Second}
	// Credential store round trips.
	Store = Policy{Attempts: 3, Delay: 100 * time.Millisecond}
)

type transientError struct{ err error }

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

// Transient marks err as retryable. Nil stays nil.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &transientError{err: err}
}

// IsTransient reports whether err was marked with Transient or is a network
// level failure: a socket operation error or a timeout. Other net.Error
// implementations, such as broker protocol errors, count only when they
// report a timeout.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var te *transientError
	if errors.As(err, &te) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var oe *net.OpError
	if errors.As(err, &oe) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// StatusTransient reports whether an HTTP status is worth retrying.
func StatusTransient(status int) bool {
	return status >= 500
}

// Do runs op until it succeeds, returns a non-transient error, the policy is
// exhausted or ctx is done. The last error is returned unwrapped from the
// transient marker.
func Do(ctx context.Context, p Policy, op func(context.Context) error) error {
	attempts := max(p.Attempts, 1)

	b := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(p.Delay), uint64(attempts-1)),
		ctx,
	)

	err := backoff.Retry(func() error {
		err := op(ctx)
		if err == nil || IsTransient(err) {
			return err
		}
		return backoff.Permanent(err)
	}, b)

	var te *transientError
	if errors.As(err, &te) {
		return te.err
	}
	return err
}

// DoValue is Do for operations that produce a value.
func DoValue[T any](ctx context.Context, p Policy, op func(context.Context) (T, error)) (T, error) {
	var out T
	err := Do(ctx, p, func(ctx context.Context) error {
		v, err := op(ctx)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	return out, err
}

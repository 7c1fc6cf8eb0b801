package vision

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
)

// CircuitBreaker guards calls to a model backend.
type CircuitBreaker interface {
	// Execute runs fn. Errors returned after ctx is done are not counted
	// against the backend.
	Execute(ctx context.Context, fn func() error) error
}

type circuitBreakerWrapper struct {
	breaker *gobreaker.CircuitBreaker
}

// callerAbort marks an error caused by the caller giving up.
type callerAbort struct {
	err error
}

func (e *callerAbort) Error() string { return e.err.Error() }
func (e *callerAbort) Unwrap() error { return e.err }

// NewCircuitBreaker opens after maxFailures consecutive failures and probes
// again after timeout.
func NewCircuitBreaker(name string, timeout time.Duration, maxFailures uint32) CircuitBreaker {
	if maxFailures == 0 {
		maxFailures = 5
	}
	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		IsSuccessful: func(err error) bool {
			var abort *callerAbort
			return err == nil || errors.As(err, &abort)
		},
	}
	return &circuitBreakerWrapper{
		breaker: gobreaker.NewCircuitBreaker(settings),
	}
}

func (g *circuitBreakerWrapper) Execute(ctx context.Context, fn func() error) error {
	_, err := g.breaker.Execute(func() (interface{}, error) {
		err := fn()
		if err != nil && ctx.Err() != nil &&
			(errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
			return nil, &callerAbort{err: err}
		}
		return nil, err
	})
	var abort *callerAbort
	if errors.As(err, &abort) {
		return abort.err
	}
	if err != nil {
		return fmt.Errorf("breaker (%s): %w", g.breaker.Name(), err)
	}
	return nil
}

// BreakerCaptioner guards a Captioner that has no breaker of its own.
type BreakerCaptioner struct {
	captioner Captioner
	breaker   CircuitBreaker
}

// NewBreakerCaptioner creates a new BreakerCaptioner.
func NewBreakerCaptioner(c Captioner, cb CircuitBreaker) *BreakerCaptioner {
	return &BreakerCaptioner{captioner: c, breaker: cb}
}

// Caption implements Captioner.
func (c *BreakerCaptioner) Caption(ctx context.Context, image []byte) (string, error) {
	var caption string
	err := c.breaker.Execute(ctx, func() error {
		var err error
		caption, err = c.captioner.Caption(ctx, image)
		return err
	})
	return caption, err
}

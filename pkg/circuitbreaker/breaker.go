// Package circuitbreaker stops calling a failing dependency for a while
// instead of piling up requests on it.
package circuitbreaker

import (
	"errors"
	"fmt"

	"github.com/sony/gobreaker/v2"
)

// CircuitBreaker guards calls returning T.
type CircuitBreaker[T any] struct {
	cb *gobreaker.CircuitBreaker[T]
}

// New returns nil for a disabled config. Execute calls straight through a
// nil breaker, so callers never branch on it.
func New[T any](cfg Config) *CircuitBreaker[T] {
	if !cfg.Enabled {
		return nil
	}

	return &CircuitBreaker[T]{cb: gobreaker.NewCircuitBreaker[T](cfg.settings())}
}

func (c *CircuitBreaker[T]) Name() string { return c.cb.Name() }

// State is one of "closed", "half-open" or "open".
func (c *CircuitBreaker[T]) State() string { return c.cb.State().String() }

// Execute runs fn unless the breaker rejects the call. Rejections wrap
// ErrCircuitOpen or ErrTooManyRequests and name the breaker; errors from fn
// come back untouched.
func Execute[T any](cb *CircuitBreaker[T], fn func() (T, error)) (T, error) {
	if cb == nil {
		return fn()
	}

	result, err := cb.cb.Execute(fn)

	switch {
	case errors.Is(err, gobreaker.ErrOpenState):
		var zero T

		return zero, fmt.Errorf("%w: %s", ErrCircuitOpen, cb.Name())

	case errors.Is(err, gobreaker.ErrTooManyRequests):
		var zero T

		return zero, fmt.Errorf("%w: %s", ErrTooManyRequests, cb.Name())
	}

	return result, err
}

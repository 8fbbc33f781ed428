package circuitbreaker

import "errors"

var (
	// ErrCircuitOpen means recent calls kept failing and this one was not
	// attempted.
	ErrCircuitOpen = errors.New("circuit open, call not attempted")

	// ErrTooManyRequests means the half-open breaker already has its trial
	// calls in flight.
	ErrTooManyRequests = errors.New("circuit half-open, trial calls exhausted")
)

package circuitbreaker

import (
	"time"

	"github.com/sony/gobreaker/v2"
)

type Config struct {
	Name    string
	Enabled bool

	// MaxRequests is the number of trial calls let through while half-open.
	// Zero means one.
	MaxRequests uint

	// Interval resets the failure counts while closed. Zero never resets.
	Interval time.Duration

	// Timeout is how long the breaker stays open before going half-open.
	// Zero means 60s.
	Timeout time.Duration

	// FailureThreshold consecutive failures open the breaker. Zero means one.
	FailureThreshold uint

	// IsSuccessful decides which errors do not count as failures. When nil
	// only a nil error succeeds.
	IsSuccessful func(err error) bool

	// OnStateChange is called with the state names on every transition.
	OnStateChange func(name, from, to string)
}

func (c Config) settings() gobreaker.Settings {
	threshold := uint32(max(c.FailureThreshold, 1))

	s := gobreaker.Settings{
		Name:        c.Name,
		MaxRequests: uint32(c.MaxRequests),
		Interval:    c.Interval,
		Timeout:     c.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: c.IsSuccessful,
	}

	if c.OnStateChange != nil {
		s.OnStateChange = func(name string, from, to gobreaker.State) {
			c.OnStateChange(name, from.String(), to.String())
		}
	}

	return s
}

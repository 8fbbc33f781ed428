package postgres

import (
	"context"

	"github.com/architeacher/specifications/internal/config"
	"github.com/cenkalti/backoff/v5"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

// PingWithRetry pings until the database answers, the retries run out or ctx
// is done.
func PingWithRetry(ctx context.Context, pinger Pinger, cfg config.Backoff) error {
	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.InitialInterval = cfg.BaseDelay
	expBackoff.Multiplier = cfg.Multiplier
	expBackoff.RandomizationFactor = cfg.Jitter
	expBackoff.MaxInterval = cfg.MaxDelay

	operation := func() (struct{}, error) {
		return struct{}{}, pinger.Ping(ctx)
	}

	_, err := backoff.Retry(
		ctx,
		operation,
		backoff.WithMaxTries(cfg.MaxRetries+1),
		backoff.WithBackOff(expBackoff),
	)

	return err
}

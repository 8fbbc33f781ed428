package runtime

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/architeacher/specifications/internal/adapters/repos"
	"github.com/architeacher/specifications/internal/config"
	"github.com/architeacher/specifications/internal/domain/model"
	"github.com/architeacher/specifications/internal/infrastructure"
	infraPostgres "github.com/architeacher/specifications/internal/infrastructure/postgres"
	infraSQLite "github.com/architeacher/specifications/internal/infrastructure/sqlite"
	"github.com/architeacher/specifications/internal/usecases"
	"github.com/architeacher/specifications/pkg/circuitbreaker"
	"github.com/architeacher/specifications/pkg/logger"
	"github.com/architeacher/specifications/pkg/metrics/noop"
	otelMetrics "github.com/architeacher/specifications/pkg/metrics/otel"
)

func defaultOptions(ctx context.Context) []DependencyOption {
	return []DependencyOption{
		WithConfig(),
		WithLogger(),
		WithTracing(ctx),
		WithMetrics(ctx),
		WithUsersRepository(ctx),
		WithApplication(),
	}
}

// WithConfig loads the configuration from the environment unless one was
// supplied up front.
func WithConfig() DependencyOption {
	return func(d *dependencies) error {
		if d.config != nil {
			if err := d.config.Validate(); err != nil {
				return fmt.Errorf("validating configuration: %w", err)
			}

			return nil
		}

		cfg, err := config.Init()
		if err != nil {
			return fmt.Errorf("initializing configuration: %w", err)
		}

		d.config = cfg

		return nil
	}
}

func WithLogger() DependencyOption {
	return func(d *dependencies) error {
		if d.logWriter != nil {
			d.infra.logger = logger.NewWithWriter(d.config.Logging.Level, d.config.Logging.Format, d.logWriter)

			return nil
		}

		d.infra.logger = logger.New(d.config.Logging.Level, d.config.Logging.Format)

		return nil
	}
}

func WithTracing(ctx context.Context) DependencyOption {
	return func(d *dependencies) error {
		tp, shutdown, err := infrastructure.NewTracerProvider(ctx, d.config.Telemetry)
		if err != nil {
			return fmt.Errorf("initializing tracer: %w", err)
		}

		d.infra.tracerProvider = tp
		d.cleanupFuncs["tracer"] = shutdown

		return nil
	}
}

func WithMetrics(ctx context.Context) DependencyOption {
	return func(d *dependencies) error {
		if !d.config.Telemetry.Enabled || !d.config.Telemetry.Metrics.Enabled {
			d.infra.metricsClient = noop.NewMetricsClient()

			return nil
		}

		provider, err := infrastructure.NewMeterProvider(ctx, d.config.Telemetry, os.Stderr)
		if err != nil {
			return fmt.Errorf("initializing metrics: %w", err)
		}

		log := d.infra.logger.Component("metrics")
		client := otelMetrics.NewMetricsClient(provider, func(key string, err error) {
			log.Warn().Err(err).Str("instrument", key).Msg("failed to register instrument")
		})

		d.infra.metricsClient = client
		d.cleanupFuncs["metrics"] = client.Shutdown

		return nil
	}
}

// WithUsersRepository opens the configured store and loads the seed users
// into it when seeding is enabled.
func WithUsersRepository(ctx context.Context) DependencyOption {
	return func(d *dependencies) error {
		var seed []model.User
		if d.config.Store.Seed {
			seed = model.SampleUsers()
		}

		log := d.infra.logger.Component("store")

		switch d.config.Store.Backend {
		case config.StorePostgres:
			pool, err := infraPostgres.NewPool(ctx, d.config.Database, d.config.Backoff)
			if err != nil {
				return fmt.Errorf("connecting to database: %w", err)
			}

			repo := repos.NewPostgresRepository(pool, repos.NewPgxScanner(), newStoreBreaker(d.config.CircuitBreaker, log), log)
			d.repos.usersRepo = repo
			d.repos.healthChecker = repo
		case config.StoreSQLite:
			db, err := infraSQLite.Open(ctx, d.config.SQLite)
			if err != nil {
				return fmt.Errorf("opening sqlite database: %w", err)
			}

			repo := repos.NewSQLiteRepository(db, log)
			d.repos.usersRepo = repo
			d.repos.healthChecker = repo
		default:
			d.repos.usersRepo = repos.NewMemoryRepository(log, seed...)
		}

		d.cleanupFuncs["users repository"] = func(context.Context) error {
			return d.repos.usersRepo.Close()
		}

		if b, ok := d.repos.usersRepo.(bootstrapper); ok {
			if err := b.Bootstrap(ctx, seed); err != nil {
				return fmt.Errorf("bootstrapping %s store: %w", d.config.Store.Backend, err)
			}
		}

		log.Info().
			Str("backend", d.config.Store.Backend).
			Int("seeded", len(seed)).
			Msg("users store ready")

		return nil
	}
}

func WithApplication() DependencyOption {
	return func(d *dependencies) error {
		d.app = usecases.NewApplication(
			d.repos.usersRepo,
			d.infra.logger,
			d.infra.metricsClient,
			d.infra.tracerProvider,
		)

		return nil
	}
}

func newStoreBreaker(cfg config.CircuitBreaker, log logger.Logger) *circuitbreaker.CircuitBreaker[[]model.User] {
	return circuitbreaker.New[[]model.User](circuitbreaker.Config{
		Name:             "users-store",
		Enabled:          cfg.Enabled,
		MaxRequests:      cfg.MaxRequests,
		Interval:         cfg.Interval,
		Timeout:          cfg.Timeout,
		FailureThreshold: cfg.FailureThreshold,
		IsSuccessful:     isStoreSuccess,
		OnStateChange: func(name, from, to string) {
			log.Warn().
				Str("breaker", name).
				Str("from", from).
				Str("to", to).
				Msg("circuit breaker state changed")
		},
	})
}

// isStoreSuccess keeps caller cancellations from tripping the breaker.
func isStoreSuccess(err error) bool {
	return err == nil || errors.Is(err, context.Canceled)
}

package runtime

import (
	"context"
	"fmt"
	"io"

	"github.com/architeacher/specifications/internal/config"
	"github.com/architeacher/specifications/internal/domain/model"
	"github.com/architeacher/specifications/internal/ports"
	"github.com/architeacher/specifications/internal/usecases"
	"github.com/architeacher/specifications/pkg/logger"
	"github.com/architeacher/specifications/pkg/metrics"
	otelTrace "go.opentelemetry.io/otel/trace"
)

type (
	infrastructureDep struct {
		tracerProvider otelTrace.TracerProvider
		metricsClient  metrics.Client
		logger         logger.Logger
	}

	repositories struct {
		usersRepo     ports.UsersRepository
		healthChecker ports.DatabaseHealthChecker
	}

	// bootstrapper is implemented by the SQL stores, which own their schema.
	bootstrapper interface {
		Bootstrap(ctx context.Context, seed []model.User) error
	}

	dependencies struct {
		config    *config.ServiceConfig
		logWriter io.Writer

		infra infrastructureDep

		repos repositories

		app *usecases.Application

		cleanupFuncs map[string]func(ctx context.Context) error
	}

	DependencyOption func(*dependencies) error
)

func initializeDependencies(
	ctx context.Context,
	cfg *config.ServiceConfig,
	logWriter io.Writer,
	opts ...DependencyOption,
) (*dependencies, error) {
	deps := &dependencies{
		config:       cfg,
		logWriter:    logWriter,
		cleanupFuncs: make(map[string]func(ctx context.Context) error),
	}

	allOpts := append(defaultOptions(ctx), opts...)

	for _, opt := range allOpts {
		if err := opt(deps); err != nil {
			return deps, fmt.Errorf("failed to apply dependency option: %w", err)
		}
	}

	return deps, nil
}

package queries

import (
	"context"

	"github.com/architeacher/specifications/internal/domain/model"
	"github.com/architeacher/specifications/internal/ports"
	"github.com/architeacher/specifications/pkg/decorator"
	"github.com/architeacher/specifications/pkg/logger"
	"github.com/architeacher/specifications/pkg/metrics"
	otelTrace "go.opentelemetry.io/otel/trace"
)

type (
	FindUsersQuery struct {
		Criteria model.Criteria
	}

	FindUsersQueryHandler = decorator.QueryHandler[FindUsersQuery, []model.User]

	findUsersQueryHandler struct {
		repo ports.Finder
	}
)

func NewFindUsersQueryHandler(
	repo ports.Finder,
	log logger.Logger,
	metricsClient metrics.Client,
	tracerProvider otelTrace.TracerProvider,
) FindUsersQueryHandler {
	return decorator.ApplyQueryDecorators[FindUsersQuery, []model.User](
		findUsersQueryHandler{repo: repo},
		log,
		metricsClient,
		tracerProvider,
	)
}

func (h findUsersQueryHandler) Execute(ctx context.Context, query FindUsersQuery) ([]model.User, error) {
	return h.repo.Find(ctx, query.Criteria)
}

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
	// ListUsersQuery selects every user satisfying Spec; a nil Spec selects
	// all users.
	ListUsersQuery struct {
		Spec model.UserSpecification
	}

	ListUsersQueryHandler = decorator.QueryHandler[ListUsersQuery, []model.User]

	listUsersQueryHandler struct {
		repo ports.Lister
	}
)

func NewListUsersQueryHandler(
	repo ports.Lister,
	log logger.Logger,
	metricsClient metrics.Client,
	tracerProvider otelTrace.TracerProvider,
) ListUsersQueryHandler {
	return decorator.ApplyQueryDecorators[ListUsersQuery, []model.User](
		listUsersQueryHandler{repo: repo},
		log,
		metricsClient,
		tracerProvider,
	)
}

func (h listUsersQueryHandler) Execute(ctx context.Context, query ListUsersQuery) ([]model.User, error) {
	return h.repo.List(ctx, query.Spec)
}

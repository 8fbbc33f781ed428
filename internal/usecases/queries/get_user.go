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
	GetUserQuery struct {
		ID model.UserID
	}

	GetUserQueryHandler = decorator.QueryHandler[GetUserQuery, model.User]

	getUserQueryHandler struct {
		repo ports.Fetcher
	}
)

func NewGetUserQueryHandler(
	repo ports.Fetcher,
	log logger.Logger,
	metricsClient metrics.Client,
	tracerProvider otelTrace.TracerProvider,
) GetUserQueryHandler {
	return decorator.ApplyQueryDecorators[GetUserQuery, model.User](
		getUserQueryHandler{repo: repo},
		log,
		metricsClient,
		tracerProvider,
	)
}

func (h getUserQueryHandler) Execute(ctx context.Context, query GetUserQuery) (model.User, error) {
	if query.ID.IsZero() {
		return model.User{}, model.ErrInvalidUserID
	}

	return h.repo.Get(ctx, query.ID)
}

package commands

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
	DeleteUserCommand struct {
		User model.User
	}

	DeleteUserCommandHandler = decorator.CommandHandler[DeleteUserCommand, struct{}]

	deleteUserCommandHandler struct {
		repo ports.Deleter
	}
)

func NewDeleteUserCommandHandler(
	repo ports.Deleter,
	log logger.Logger,
	metricsClient metrics.Client,
	tracerProvider otelTrace.TracerProvider,
) DeleteUserCommandHandler {
	return decorator.ApplyCommandDecorators[DeleteUserCommand, struct{}](
		deleteUserCommandHandler{repo: repo},
		log,
		metricsClient,
		tracerProvider,
	)
}

func (h deleteUserCommandHandler) Handle(ctx context.Context, cmd DeleteUserCommand) (struct{}, error) {
	if cmd.User.ID.IsZero() {
		return struct{}{}, model.ErrInvalidUserID
	}

	if err := h.repo.Delete(ctx, cmd.User); err != nil {
		return struct{}{}, err
	}

	return struct{}{}, nil
}

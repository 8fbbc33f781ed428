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
	// UpdateUserCommand replaces the stored user with the same ID, or stores
	// it when there is none.
	UpdateUserCommand struct {
		User model.User
	}

	UpdateUserCommandHandler = decorator.CommandHandler[UpdateUserCommand, model.User]

	updateUserCommandHandler struct {
		repo ports.Updater
	}
)

func NewUpdateUserCommandHandler(
	repo ports.Updater,
	log logger.Logger,
	metricsClient metrics.Client,
	tracerProvider otelTrace.TracerProvider,
) UpdateUserCommandHandler {
	return decorator.ApplyCommandDecorators[UpdateUserCommand, model.User](
		updateUserCommandHandler{repo: repo},
		log,
		metricsClient,
		tracerProvider,
	)
}

func (h updateUserCommandHandler) Handle(ctx context.Context, cmd UpdateUserCommand) (model.User, error) {
	user, err := revalidate(cmd.User)
	if err != nil {
		return model.User{}, err
	}

	if err := h.repo.Update(ctx, user); err != nil {
		return model.User{}, err
	}

	return user, nil
}

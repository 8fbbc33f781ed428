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
	AddUserCommand struct {
		User model.User
	}

	AddUserCommandHandler = decorator.CommandHandler[AddUserCommand, model.User]

	addUserCommandHandler struct {
		repo ports.Saver
	}
)

func NewAddUserCommandHandler(
	repo ports.Saver,
	log logger.Logger,
	metricsClient metrics.Client,
	tracerProvider otelTrace.TracerProvider,
) AddUserCommandHandler {
	return decorator.ApplyCommandDecorators[AddUserCommand, model.User](
		addUserCommandHandler{repo: repo},
		log,
		metricsClient,
		tracerProvider,
	)
}

func (h addUserCommandHandler) Handle(ctx context.Context, cmd AddUserCommand) (model.User, error) {
	user, err := revalidate(cmd.User)
	if err != nil {
		return model.User{}, err
	}

	if err := h.repo.Add(ctx, user); err != nil {
		return model.User{}, err
	}

	return user, nil
}

// revalidate runs a user assembled outside NewUser through its checks.
func revalidate(u model.User) (model.User, error) {
	return model.NewUser(u.ID, u.Name, u.DateOfBirth, u.Gender)
}

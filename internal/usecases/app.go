package usecases

import (
	"github.com/architeacher/specifications/internal/ports"
	"github.com/architeacher/specifications/internal/usecases/commands"
	"github.com/architeacher/specifications/internal/usecases/queries"
	"github.com/architeacher/specifications/pkg/logger"
	"github.com/architeacher/specifications/pkg/metrics"
	otelTrace "go.opentelemetry.io/otel/trace"
)

type (
	Commands struct {
		AddUser    commands.AddUserCommandHandler
		UpdateUser commands.UpdateUserCommandHandler
		DeleteUser commands.DeleteUserCommandHandler
	}

	Queries struct {
		ListUsers   queries.ListUsersQueryHandler
		FindUsers   queries.FindUsersQueryHandler
		GetUser     queries.GetUserQueryHandler
		ReportUsers queries.ReportUsersQueryHandler
	}

	Application struct {
		Commands Commands
		Queries  Queries
	}
)

func NewApplication(
	repo ports.UsersRepository,
	log logger.Logger,
	metricsClient metrics.Client,
	tracerProvider otelTrace.TracerProvider,
) *Application {
	return &Application{
		Commands: Commands{
			AddUser:    commands.NewAddUserCommandHandler(repo, log, metricsClient, tracerProvider),
			UpdateUser: commands.NewUpdateUserCommandHandler(repo, log, metricsClient, tracerProvider),
			DeleteUser: commands.NewDeleteUserCommandHandler(repo, log, metricsClient, tracerProvider),
		},
		Queries: Queries{
			ListUsers:   queries.NewListUsersQueryHandler(repo, log, metricsClient, tracerProvider),
			FindUsers:   queries.NewFindUsersQueryHandler(repo, log, metricsClient, tracerProvider),
			GetUser:     queries.NewGetUserQueryHandler(repo, log, metricsClient, tracerProvider),
			ReportUsers: queries.NewReportUsersQueryHandler(repo, log, metricsClient, tracerProvider),
		},
	}
}

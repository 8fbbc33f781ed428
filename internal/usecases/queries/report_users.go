package queries

import (
	"context"
	"time"

	"github.com/architeacher/specifications/internal/domain/model"
	"github.com/architeacher/specifications/internal/ports"
	"github.com/architeacher/specifications/pkg/decorator"
	"github.com/architeacher/specifications/pkg/logger"
	"github.com/architeacher/specifications/pkg/metrics"
	otelTrace "go.opentelemetry.io/otel/trace"
)

type (
	// ReportUsersQuery selects users of at least AgeOfMajority years on Today
	// who hold one of the Gender flags.
	ReportUsersQuery struct {
		AgeOfMajority int
		Gender        model.Gender
		Today         time.Time
		Sort          []string
		Page          uint
		Size          uint
	}

	UsersReport struct {
		Spec  model.UserSpecification
		Users []model.User
	}

	ReportUsersQueryHandler = decorator.QueryHandler[ReportUsersQuery, UsersReport]

	reportUsersQueryHandler struct {
		repo ports.Finder
	}
)

func NewReportUsersQueryHandler(
	repo ports.Finder,
	log logger.Logger,
	metricsClient metrics.Client,
	tracerProvider otelTrace.TracerProvider,
) ReportUsersQueryHandler {
	return decorator.ApplyQueryDecorators[ReportUsersQuery, UsersReport](
		reportUsersQueryHandler{repo: repo},
		log,
		metricsClient,
		tracerProvider,
	)
}

func (h reportUsersQueryHandler) Execute(ctx context.Context, query ReportUsersQuery) (UsersReport, error) {
	adult, err := model.NewUserIsAgeOfMajorityForAge(query.AgeOfMajority, query.Today)
	if err != nil {
		return UsersReport{}, err
	}

	builder := model.NewCriteria().
		Where(adult).
		Where(model.NewUserHasGender(query.Gender)).
		Paginate(query.Page, query.Size)

	for _, field := range query.Sort {
		builder = builder.OrderBy(field)
	}

	criteria := builder.Build()

	users, err := h.repo.Find(ctx, criteria)
	if err != nil {
		return UsersReport{}, err
	}

	return UsersReport{Spec: criteria.Spec(), Users: users}, nil
}

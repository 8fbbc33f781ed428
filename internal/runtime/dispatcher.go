package runtime

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/architeacher/specifications/internal/config"
	"github.com/architeacher/specifications/internal/domain/model"
	"github.com/architeacher/specifications/internal/usecases/queries"
	"github.com/architeacher/specifications/pkg/logger"
	"github.com/google/uuid"
)

const cleanupTimeout = 10 * time.Second

// ServiceCtx runs the users report once: it wires the dependencies, prints
// the users matching the configured specification and releases resources.
type ServiceCtx struct {
	deps            *dependencies
	depOpts         []DependencyOption
	config          *config.ServiceConfig
	shutdownChannel chan os.Signal
	output          io.Writer
	logWriter       io.Writer
	now             func() time.Time
}

func New(opts ...ServiceOption) *ServiceCtx {
	ctx := &ServiceCtx{
		shutdownChannel: make(chan os.Signal, 1),
		output:          os.Stdout,
		now:             time.Now,
	}

	for _, opt := range opts {
		opt(ctx)
	}

	return ctx
}

func (c *ServiceCtx) Run(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	c.shutdownHook()
	defer signal.Stop(c.shutdownChannel)

	go func() {
		select {
		case <-c.shutdownChannel:
			cancel()
		case <-runCtx.Done():
		}
	}()

	err := c.build(runCtx)
	if c.deps != nil {
		defer c.shutdown()
	}

	if err != nil {
		return fmt.Errorf("failed to build service: %w", err)
	}

	return c.report(logger.ContextWithCorrelationID(runCtx, uuid.NewString()))
}

func (c *ServiceCtx) build(ctx context.Context) error {
	var err error

	c.deps, err = initializeDependencies(ctx, c.config, c.logWriter, c.depOpts...)
	if err != nil {
		return fmt.Errorf("initializing dependencies: %w", err)
	}

	return nil
}

func (c *ServiceCtx) report(ctx context.Context) error {
	cfg := c.deps.config.Report
	log := c.deps.infra.logger.WithContext(ctx)

	if hc := c.deps.repos.healthChecker; hc != nil {
		if err := hc.Ping(ctx); err != nil {
			return fmt.Errorf("store health check: %w", err)
		}
	}

	today, err := cfg.Today(c.now())
	if err != nil {
		return err
	}

	gender, err := model.ParseGender(cfg.Gender)
	if err != nil {
		return err
	}

	report, err := c.deps.app.Queries.ReportUsers.Execute(ctx, queries.ReportUsersQuery{
		AgeOfMajority: cfg.AgeOfMajority,
		Gender:        gender,
		Today:         today,
		Sort:          cfg.Sort,
		Page:          cfg.Page,
		Size:          cfg.Size,
	})
	if err != nil {
		return fmt.Errorf("running users report: %w", err)
	}

	log.Info().
		Str("specification", report.Spec.Name()).
		Str("predicate", report.Spec.Predicate().String()).
		Str("date", today.Format(time.DateOnly)).
		Int("matches", len(report.Users)).
		Msg("users matching specification")

	return writeReport(c.output, report.Users)
}

func writeReport(w io.Writer, users []model.User) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	if _, err := fmt.Fprintln(tw, "ID\tNAME\tDATE OF BIRTH\tGENDER"); err != nil {
		return err
	}

	for _, u := range users {
		if _, err := fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", u.ID, u.Name, u.DateOfBirth.Format(time.DateOnly), u.Gender); err != nil {
			return err
		}
	}

	return tw.Flush()
}

func (c *ServiceCtx) shutdownHook() {
	signal.Notify(c.shutdownChannel, syscall.SIGINT, syscall.SIGTERM)
}

func (c *ServiceCtx) shutdown() {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cleanupTimeout)
	defer cancel()

	c.cleanup(shutdownCtx)

	if errors.Is(shutdownCtx.Err(), context.DeadlineExceeded) {
		c.deps.infra.logger.Error().Msg("cleanup timed out")
	}
}

func (c *ServiceCtx) cleanup(shutdownCtx context.Context) {
	c.deps.infra.logger.Debug().Msg("cleaning up resources...")

	for resource, cleanupFn := range c.deps.cleanupFuncs {
		if err := cleanupFn(shutdownCtx); err != nil {
			c.deps.infra.logger.Error().
				Err(err).
				Str("resource", resource).
				Msg("failed to shutdown the resource gracefully")
		}
	}
}

package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/architeacher/specifications/internal/domain/model"
	"github.com/kelseyhightower/envconfig"
)

var ErrInvalidConfig = errors.New("invalid configuration")

func Init() (*ServiceConfig, error) {
	cfg := &ServiceConfig{}

	err := envconfig.Process("", cfg)
	if err != nil {
		return nil, fmt.Errorf("unable to parse service configuration: %w", err)
	}

	if len(ServiceVersion) != 0 {
		cfg.App.ServiceVersion = ServiceVersion
	}

	if len(CommitSHA) != 0 {
		cfg.App.CommitSHA = CommitSHA
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *ServiceConfig) Validate() error {
	switch c.Store.Backend {
	case StoreMemory, StorePostgres, StoreSQLite:
	default:
		return fmt.Errorf("%w: unknown store backend %q", ErrInvalidConfig, c.Store.Backend)
	}

	if c.Report.AgeOfMajority < 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, model.ErrInvalidAgeOfMajority)
	}

	if _, err := model.ParseGender(c.Report.Gender); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	if _, err := c.Report.Today(time.Now()); err != nil {
		return err
	}

	return nil
}

// Today returns the pinned report date, or now when none is configured.
func (r Report) Today(now time.Time) (time.Time, error) {
	if r.Date == "" {
		return now, nil
	}

	date, err := time.Parse(time.DateOnly, r.Date)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: report date %q: %v", ErrInvalidConfig, r.Date, err)
	}

	return date, nil
}

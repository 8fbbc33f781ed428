package runtime

import (
	"io"
	"os"
	"time"

	"github.com/architeacher/specifications/internal/config"
)

type ServiceOption func(*ServiceCtx)

// WithServiceConfig skips loading the configuration from the environment.
func WithServiceConfig(cfg *config.ServiceConfig) ServiceOption {
	return func(c *ServiceCtx) {
		c.config = cfg
	}
}

// WithOutput sets where the report rows are written.
func WithOutput(w io.Writer) ServiceOption {
	return func(c *ServiceCtx) {
		c.output = w
	}
}

func WithLogWriter(w io.Writer) ServiceOption {
	return func(c *ServiceCtx) {
		c.logWriter = w
	}
}

func WithClock(now func() time.Time) ServiceOption {
	return func(c *ServiceCtx) {
		c.now = now
	}
}

func WithServiceTermination(ch chan os.Signal) ServiceOption {
	return func(c *ServiceCtx) {
		c.shutdownChannel = ch
	}
}

func WithDependencyOptions(opts ...DependencyOption) ServiceOption {
	return func(c *ServiceCtx) {
		c.depOpts = append(c.depOpts, opts...)
	}
}

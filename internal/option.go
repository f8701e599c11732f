package internal

import (
	"io"

	"github.com/stella-dust/zolapub/internal/blogservice"
)

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config     *Config
	configPath string
	logOutput  io.Writer
	events     blogservice.EventSink
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithConfigPath sets the configuration file the activity log is persisted into.
func WithConfigPath(path string) Option {
	return func(a *application) {
		a.configPath = path
	}
}

// WithLogOutput sends diagnostics to w unless a log file is configured.
// Defaults to stdout.
func WithLogOutput(w io.Writer) Option {
	return func(a *application) {
		a.logOutput = w
	}
}

func withEvents(events blogservice.EventSink) Option {
	return func(a *application) {
		a.events = events
	}
}

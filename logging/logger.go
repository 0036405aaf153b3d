// Package logging builds the service's zerolog logger.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// New creates the root logger. Development gets a human-readable console
// writer; every other environment logs JSON lines to stdout.
func New(serviceName, environment string) zerolog.Logger {
	return NewWithWriter(os.Stdout, serviceName, environment)
}

// NewWithWriter is New with an explicit destination.
func NewWithWriter(w io.Writer, serviceName, environment string) zerolog.Logger {
	output := w
	level := zerolog.InfoLevel

	if strings.EqualFold(environment, "development") {
		output = zerolog.ConsoleWriter{
			Out:        w,
			TimeFormat: time.RFC3339,
		}
		level = zerolog.DebugLevel
	}

	return zerolog.New(output).
		Level(level).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("environment", environment).
		Logger()
}

// WithComponent returns a logger with the component name attached
func WithComponent(l zerolog.Logger, component string) zerolog.Logger {
	return l.With().Str("component", component).Logger()
}

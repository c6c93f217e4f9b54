package logger

import (
	"io"

	"github.com/igorsal/iam-dashboard/internal/interfaces"
)

// Adapter adapts Logger to interfaces.Logger
type Adapter struct {
	logger *Logger
}

// NewAdapter creates a new logger adapter
func NewAdapter(level, format string) interfaces.Logger {
	return &Adapter{
		logger: New(level, format),
	}
}

// NewAdapterWithWriter creates an adapter writing JSON lines to out
func NewAdapterWithWriter(level string, out io.Writer) interfaces.Logger {
	return &Adapter{
		logger: NewWithWriter(level, "json", out),
	}
}

// NewNop returns a logger that discards everything. Used by tests.
func NewNop() interfaces.Logger {
	return NewAdapterWithWriter("disabled", io.Discard)
}

func (a *Adapter) Debug(msg string, fields ...interface{}) {
	a.logger.Debug(msg, fields...)
}

func (a *Adapter) Info(msg string, fields ...interface{}) {
	a.logger.Info(msg, fields...)
}

func (a *Adapter) Warn(msg string, fields ...interface{}) {
	a.logger.Warn(msg, fields...)
}

func (a *Adapter) Error(msg string, err error, fields ...interface{}) {
	a.logger.Error(msg, err, fields...)
}

// Fatal logs a fatal message and exits
func (a *Adapter) Fatal(msg string, err error, fields ...interface{}) {
	a.logger.Fatal(msg, err, fields...)
}

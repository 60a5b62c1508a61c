// Package logger builds the zap loggers used by the server and the client.
package logger

import (
	"fmt"

	"go.uber.org/zap"
)

// Logger holds the process-wide zap logger. Log is a no-op logger until Init
// succeeds, so it is always safe to use.
type Logger struct {
	Log *zap.Logger
}

// New returns a Logger backed by zap.NewNop.
func New() *Logger {
	return &Logger{Log: zap.NewNop()}
}

// Init replaces Log with a production JSON logger at the given level
// ("debug", "info", "warn", "error"). Output goes to stderr unless
// outputPaths names files instead.
func (l *Logger) Init(level string, outputPaths ...string) error {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return fmt.Errorf("parse log level %q: %w", level, err)
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = lvl
	if len(outputPaths) > 0 {
		cfg.OutputPaths = outputPaths
		cfg.ErrorOutputPaths = outputPaths
	}

	zl, err := cfg.Build()
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	l.Log = zl
	return nil
}

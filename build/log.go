// Package build provides the rotating log writer and sub-logger factory
// shared by every wallet kernel package, adapted from dcrlnd's build
// package: a RotatingLogWriter that fans a single rotated log file out to
// per-subsystem slog.Logger instances.
package build

import (
	"fmt"
	"sync"

	"github.com/decred/slog"
	"github.com/jrick/logrotate/rotator"
)

// LogTypeStdOut and LogTypeFile are the two LoggingType values this package
// supports; the filelog build tag variant (see log_filelog.go) overrides
// LoggingType to LogTypeFile and writes only to the rotator.
const (
	LogTypeStdOut = "stdout"
	LogTypeFile   = "file"
)

// LogWriter wraps the rotator so it can be handed to slog's backend as an
// io.Writer. Its Write method is defined per build tag: log_stdout.go
// (default) mirrors output to stdout, log_filelog.go writes only to the
// rotator.
type LogWriter struct {
	rotator *rotator.Rotator
}

// RotatingLogWriter accumulates every subsystem's logger and backs them all
// with a single rotated log file once InitLogRotator is called.
type RotatingLogWriter struct {
	mu      sync.Mutex
	backend *slog.Backend
	writer  *LogWriter
	loggers map[string]slog.Logger
}

// NewRotatingLogWriter returns a writer with no log file configured yet;
// until InitLogRotator runs, every logger it hands out writes to stdout
// only (or nowhere, when built with the filelog tag).
func NewRotatingLogWriter() *RotatingLogWriter {
	w := &LogWriter{}
	return &RotatingLogWriter{
		backend: slog.NewBackend(w),
		writer:  w,
		loggers: make(map[string]slog.Logger),
	}
}

// InitLogRotator opens logFile for rotated writes, capped at maxSizeMB
// megabytes with maxFiles old copies retained.
func (r *RotatingLogWriter) InitLogRotator(logFile string, maxSizeMB, maxFiles int) error {
	rot, err := rotator.New(logFile, int64(maxSizeMB*1024), false, maxFiles)
	if err != nil {
		return fmt.Errorf("failed to create file rotator: %w", err)
	}
	r.mu.Lock()
	r.writer.rotator = rot
	r.mu.Unlock()
	return nil
}

// GenSubLogger creates a new slog.Logger for subsystem backed by this
// writer's rotator, to be handed to NewSubLogger.
func (r *RotatingLogWriter) GenSubLogger(subsystem string) slog.Logger {
	return r.backend.Logger(subsystem)
}

// RegisterSubLogger records logger under subsystem so log levels can later
// be adjusted by name.
func (r *RotatingLogWriter) RegisterSubLogger(subsystem string, logger slog.Logger) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loggers[subsystem] = logger
}

// SetLogLevel adjusts the level of a previously-registered subsystem.
func (r *RotatingLogWriter) SetLogLevel(subsystem string, level string) error {
	r.mu.Lock()
	logger, ok := r.loggers[subsystem]
	r.mu.Unlock()
	if !ok {
		return fmt.Errorf("unknown subsystem %q", subsystem)
	}
	lvl, ok := slog.LevelFromString(level)
	if !ok {
		return fmt.Errorf("unknown log level %q", level)
	}
	logger.SetLevel(lvl)
	return nil
}

// NewSubLogger creates a logger for subsystem. If genLogger is nil, the
// logger is disabled, matching package-level loggers declared before the
// root writer exists.
func NewSubLogger(subsystem string, genLogger func(string) slog.Logger) slog.Logger {
	if genLogger == nil {
		return slog.Disabled
	}
	return genLogger(subsystem)
}

package build

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/decred/slog"
	"github.com/jrick/logrotate/rotator"
)

// rotatorPinned is the process-wide active log rotator, if any has been
// initialized. LogWriter.Write reads it on every call so that loggers
// built before InitLogRotator runs (such as the root package's loggers,
// created via NewSubLogger) start writing to the rotated file the moment it
// becomes available, with no rewiring required.
var rotatorPinned *rotator.Rotator

// RotatingLogWriter is a wrapper around a rotating log file that gives
// access to a slog.Backend, so loggers can be created from it that can
// write to both stdout and the rotated file.
type RotatingLogWriter struct {
	logRotator *rotator.Rotator
	backend    *slog.Backend
	subsystems map[string]slog.Logger
}

// NewRotatingLogWriter initializes an empty RotatingLogWriter. InitLogRotator
// must be called on the returned instance before it is used, or its
// GenSubLogger method will create stdout-only loggers.
func NewRotatingLogWriter() *RotatingLogWriter {
	backend := slog.NewBackend(&LogWriter{})
	return &RotatingLogWriter{
		backend:    backend,
		subsystems: make(map[string]slog.Logger),
	}
}

// InitLogRotator initializes the logging rotator to write to logFile and
// create roll files in the same directory. It should be called as early
// as possible, before any of the module's loggers emit anything, since
// package loggers are disabled until UseLogger/SetupLoggers is called.
func (r *RotatingLogWriter) InitLogRotator(logFile string, maxLogFileSize, maxLogFiles int) error {
	logDir, _ := filepath.Split(logFile)
	err := os.MkdirAll(logDir, 0o700)
	if err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	r.logRotator, err = rotator.New(
		logFile, int64(maxLogFileSize*1024), false, maxLogFiles,
	)
	if err != nil {
		return fmt.Errorf("failed to create file rotator: %w", err)
	}

	rotatorPinned = r.logRotator

	return nil
}

// GenSubLogger creates a new sub logger writing to both the rotating log
// file (if initialized) and stdout.
func (r *RotatingLogWriter) GenSubLogger(subsystem string) slog.Logger {
	logger := r.backend.Logger(subsystem)
	r.subsystems[subsystem] = logger
	return logger
}

// RegisterSubLogger registers the given logger under the named subsystem so
// it can be replaced in bulk once logging is fully configured.
func (r *RotatingLogWriter) RegisterSubLogger(subsystem string, logger slog.Logger) {
	r.subsystems[subsystem] = logger
}

// Close flushes and closes the underlying log rotator, if any was
// initialized.
func (r *RotatingLogWriter) Close() error {
	if r.logRotator == nil {
		return nil
	}
	return r.logRotator.Close()
}

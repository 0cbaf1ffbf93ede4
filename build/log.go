//go:build !filelog

package build

import (
	"os"

	"github.com/decred/slog"
)

const (
	// LogTypeNone disables logging.
	LogTypeNone = iota

	// LogTypeStdOut directs logging to standard output.
	LogTypeStdOut

	// LogTypeFile directs logging to a rotated log file on disk.
	LogTypeFile
)

// LoggingType is a log type that writes to stdout. It is overridden by the
// build-tagged variants in this package (see log_filelog.go).
const LoggingType = LogTypeStdOut

// LogWriter is a stub type implementing io.Writer that writes, by default,
// to both standard output and the log rotator.
type LogWriter struct{}

// Write writes the byte slice to stdout and, once InitLogRotator has run,
// to the rotated log file as well.
func (w *LogWriter) Write(b []byte) (int, error) {
	n, err := os.Stdout.Write(b)
	if err != nil {
		return n, err
	}
	if rotatorPinned != nil {
		_, _ = rotatorPinned.Write(b)
	}
	return n, nil
}

// NewSubLogger creates a new sublogger for subsystem using genLogger
// (typically RotatingLogWriter.GenSubLogger). If genLogger is nil, the
// returned logger writes through LogWriter (stdout, plus the rotated log
// file once InitLogRotator has run) and is set to the info level.
func NewSubLogger(subsystem string, genLogger func(string) slog.Logger) slog.Logger {
	var logger slog.Logger
	if genLogger != nil {
		logger = genLogger(subsystem)
	} else {
		logger = slog.NewBackend(&LogWriter{}).Logger(subsystem)
		logger.SetLevel(slog.LevelInfo)
	}

	return logger
}

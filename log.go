package leaflet

import (
	"sync"

	"github.com/chia-network/leaflet-go/build"
	"github.com/chia-network/leaflet-go/messagemanager"
	"github.com/chia-network/leaflet-go/provider"
	"github.com/chia-network/leaflet-go/transport"
	"github.com/decred/slog"
)

// replaceableLogger is a thin wrapper around a logger that is used so the
// logger can be replaced easily without some black pointer magic.
type replaceableLogger struct {
	slog.Logger
	subsystem string
}

// Root-package loggers write to stdout from the start; they also write to
// a rotated log file once InitLogRotator() has been called on a
// RotatingLogWriter.
var (
	// pkgLoggers is the list of all root-package-level loggers so they can
	// be replaced once SetupLoggers is called with the final root logger.
	pkgLoggers []*replaceableLogger

	addPkgLogger = func(subsystem string) *replaceableLogger {
		l := &replaceableLogger{
			Logger:    build.NewSubLogger(subsystem, nil),
			subsystem: subsystem,
		}
		pkgLoggers = append(pkgLoggers, l)
		return l
	}

	// lfltLog is used by the top-level wiring in leaflet.go.
	lfltLog = addPkgLogger("LFLT")
)

// setupOnce guards against a caller's explicit SetupLoggers call being
// clobbered by the stdout-only default that New and NewWithRegistry fall
// back to. Whichever of the two runs first wins; the other becomes a
// no-op.
var setupOnce sync.Once

// setupDefaultLoggers wires every package logger to a stdout-only
// RotatingLogWriter, unless SetupLoggers has already been called
// explicitly. Callers that want rotated log files on disk should call
// SetupLoggers themselves, before New or NewWithRegistry, with a
// RotatingLogWriter that has had InitLogRotator called on it.
func setupDefaultLoggers() {
	setupOnce.Do(func() {
		setupLoggers(build.NewRotatingLogWriter())
	})
}

// SetupLoggers initializes all package-global logger variables across the
// module, rooted at the given RotatingLogWriter. It is a no-op if either
// SetupLoggers or New/NewWithRegistry's stdout-only default has already
// run.
func SetupLoggers(root *build.RotatingLogWriter) {
	setupOnce.Do(func() {
		setupLoggers(root)
	})
}

func setupLoggers(root *build.RotatingLogWriter) {
	for _, l := range pkgLoggers {
		l.Logger = build.NewSubLogger(l.subsystem, root.GenSubLogger)
		SetSubLogger(root, l.subsystem, l.Logger)
	}

	AddSubLogger(root, "MMGR", messagemanager.UseLogger)
	AddSubLogger(root, "PROV", provider.UseLogger)
	AddSubLogger(root, "XPRT", transport.UseLogger)
}

// AddSubLogger is a helper method to conveniently create and register the
// logger of one or more sub systems.
func AddSubLogger(root *build.RotatingLogWriter, subsystem string,
	useLoggers ...func(slog.Logger)) {

	logger := build.NewSubLogger(subsystem, root.GenSubLogger)
	SetSubLogger(root, subsystem, logger, useLoggers...)
}

// SetSubLogger is a helper method to conveniently register the logger of a
// sub system.
func SetSubLogger(root *build.RotatingLogWriter, subsystem string,
	logger slog.Logger, useLoggers ...func(slog.Logger)) {

	root.RegisterSubLogger(subsystem, logger)
	for _, useLogger := range useLoggers {
		useLogger(logger)
	}
}

// logClosure is used to provide a closure over expensive logging operations
// so they don't have to be performed when the logging level doesn't warrant
// it.
type logClosure func() string

// String invokes the underlying function and returns the result.
func (c logClosure) String() string {
	return c()
}

// newLogClosure returns a new closure over a function that returns a string
// which itself provides a Stringer interface so that it can be used with
// the logging system.
func newLogClosure(c func() string) logClosure {
	return logClosure(c)
}

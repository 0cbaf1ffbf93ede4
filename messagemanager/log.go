package messagemanager

import "github.com/decred/slog"

// log is this package's subsystem logger, registered as "MMGR" by the
// top-level leaflet.SetupLoggers.
var log = slog.Disabled

// UseLogger sets this package's logger.
func UseLogger(logger slog.Logger) {
	log = logger
}

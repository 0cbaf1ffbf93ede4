// Package transport implements the MessageChannel external contract: a
// full-duplex, whole-frame-delivering connection to a single full node.
package transport

import (
	"github.com/chia-network/leaflet-go/protocol"
	"github.com/decred/slog"
)

// log is this package's subsystem logger. It is disabled until
// UseLogger/SetupLoggers wires it up, matching the rest of the module's
// per-package logger convention.
var log = slog.Disabled

// UseLogger sets this package's logger.
func UseLogger(logger slog.Logger) {
	log = logger
}

// Sink receives complete, in-order inbound frames.
type Sink func(msg protocol.Message)

// MessageChannel is the full-duplex transport the MessageManager drives.
// Byte framing, TLS, and handshake details are this interface's problem;
// the rest of the module only ever sees whole protocol.Message values.
type MessageChannel interface {
	// Open establishes the transport and completes the protocol
	// handshake. Returns a TransportError-kind error on I/O or
	// handshake rejection.
	Open() error

	// Send enqueues a frame for transmission. It does not block
	// indefinitely; the channel applies its own backpressure and may
	// fail fast.
	Send(msg protocol.Message) error

	// OnMessage registers the single sink that receives every inbound
	// frame, in arrival order, with whole-frame delivery guaranteed.
	// Calling it more than once replaces the previous sink.
	OnMessage(sink Sink)

	// Close idempotently shuts the channel down. After Close returns,
	// no sink is invoked again and Send fails.
	Close() error
}

// Package leaflet ties together the config, transport, message manager,
// and provider packages into the single entry point most callers need:
// New followed by Initialize.
package leaflet

import (
	"github.com/chia-network/leaflet-go/config"
	"github.com/chia-network/leaflet-go/metrics"
	"github.com/chia-network/leaflet-go/provider"
	"github.com/chia-network/leaflet-go/transport"
	"github.com/prometheus/client_golang/prometheus"
)

// New validates cfg and returns an unopened Provider wired to a
// WebSocket MessageChannel. Call Initialize before issuing any query.
//
// Callers that want Prometheus metrics should use NewWithRegistry
// instead; New leaves metrics unregistered.
func New(cfg config.Config) (*provider.Provider, error) {
	setupDefaultLoggers()
	lfltLog.Debugf("building provider for %s:%d", cfg.Host, cfg.Port)
	return provider.New(cfg)
}

// NewWithRegistry behaves like New but registers the module's
// Prometheus collectors with reg.
func NewWithRegistry(cfg config.Config, reg prometheus.Registerer) (*provider.Provider, error) {
	setupDefaultLoggers()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	collectors := metrics.NewCollectors()
	if err := collectors.Register(reg); err != nil {
		return nil, err
	}

	channel := transport.NewWSChannel(transport.WSConfig{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
	})
	lfltLog.Debugf("building provider for %s:%d with metrics enabled", cfg.Host, cfg.Port)
	return provider.NewWithChannel(cfg, channel, collectors), nil
}

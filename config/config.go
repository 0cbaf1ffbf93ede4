// Package config holds the connection parameters for a Leaflet provider.
// Loading these values from a file or from command-line flags is outside
// this package's scope, per the adapter's external collaborators.
package config

import (
	"github.com/chia-network/leaflet-go/leafleterr"
)

const (
	// DefaultPort is the default full node WebSocket port.
	DefaultPort uint16 = 18444

	// DefaultNetworkID is used when a caller does not specify one.
	DefaultNetworkID = "mainnet"

	// AddressHRP is the bech32m human-readable part for mainnet and
	// testnet Chia addresses alike.
	AddressHRP = "xch"
)

// Config describes how to reach a single full node.
type Config struct {
	// Host is the full node's hostname or IP address. Required.
	Host string

	// Port is the full node's WebSocket port.
	Port uint16

	// APIKey authenticates the connection; sent as a header during the
	// WebSocket handshake. Required.
	APIKey string

	// NetworkID selects which chain parameters the adapter should
	// assume ("mainnet", "testnet10", ...).
	NetworkID string
}

// Default returns a Config with every optional field set to its default.
// Host and APIKey are left empty and must be filled in by the caller.
func Default() Config {
	return Config{
		Port:      DefaultPort,
		NetworkID: DefaultNetworkID,
	}
}

// Validate checks that the required fields are present and fills in
// defaults for any optional field left at its zero value.
func (c *Config) Validate() error {
	if c.Host == "" {
		return leafleterr.New(leafleterr.InvalidInput, "config: host is required")
	}
	if c.APIKey == "" {
		return leafleterr.New(leafleterr.InvalidInput, "config: apiKey is required")
	}
	if c.Port == 0 {
		c.Port = DefaultPort
	}
	if c.NetworkID == "" {
		c.NetworkID = DefaultNetworkID
	}

	return nil
}

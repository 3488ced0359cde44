// Package config holds the gophauth CLI settings: defaults, an optional JSON
// file and command-line flags, applied in that order.
package config

import (
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/flagx"
)

// Config holds runtime settings for the gophauth CLI.
//
// Fields:
//   - ServerEndpointAddr: host:port of the gophauth gRPC endpoint.
//   - SessionDB: sqlite file keeping the current session between runs.
//   - RequestTimeout: deadline of a single call to the server.
type Config struct {
	ServerEndpointAddr string
	SessionDB          string
	RequestTimeout     time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "127.0.0.1:50051"
	c.SessionDB = "gophauth.db"
	c.RequestTimeout = 10 * time.Second
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags taken from args. Later sources
// take precedence over earlier ones.
func LoadConfig(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseJson(cfg, flagx.ConfigPath(args)); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	if cfg.RequestTimeout <= 0 {
		return nil, fmt.Errorf("request timeout must be positive, got %s", cfg.RequestTimeout)
	}
	return cfg, nil
}

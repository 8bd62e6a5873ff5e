package config

import "time"

// Config holds runtime settings for the card manager CLI.
//
// Fields:
//   - ServerEndpointAddr: websocket URL of the sync server.
//   - DatabaseDSN: path of the local SQLite card cache.
//   - RemoteTimeout: per-RPC deadline for remote store calls.
//   - LoadingTimeout: how long the UI may show "loading" before the engine
//     falls back to the local cache for good.
//
// Units: RemoteTimeout and LoadingTimeout are time.Durations.
type Config struct {
	ServerEndpointAddr string
	DatabaseDSN        string
	RemoteTimeout      time.Duration
	LoadingTimeout     time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "ws://127.0.0.1:8080/sync"
	c.DatabaseDSN = "cards.db"
	c.RemoteTimeout = 10 * time.Second
	c.LoadingTimeout = 5 * time.Second
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}

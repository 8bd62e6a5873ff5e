// Package config loads runtime configuration for the card manager CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-a string   websocket URL of the sync server
//	-d string   path of the local card database
//	-t int      remote call timeout (seconds)
//	-l int      loading fallback timeout (seconds)
//
// # JSON schema
//
// The JSON loader uses timex.Duration for timeouts, so values can be either
// strings like "5s" or integer nanoseconds:
//
//	{
//	  "server_endpoint_addr": "ws://127.0.0.1:8080/sync",
//	  "database_dsn": "cards.db",
//	  "remote_timeout": "10s",
//	  "loading_timeout": "5s"
//	}
//
// Primary API
//
//   - type Config                     — holds the endpoint, DSN and timeouts
//   - func LoadConfig() *Config       — builds Config by applying defaults, JSON, then flags
//   - func (*Config) LoadDefaults()   — sets sensible defaults
//
// Note: This package does not read environment variables directly; use the
// JSON file or flags to configure values.
package config

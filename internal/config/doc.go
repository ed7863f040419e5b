// Package config loads runtime configuration for the HealthVault client.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-a string   base URL of the credential-exchange server
//	-i int      HTTP timeout (seconds)
//	-d string   local vault database path
//	-uitest     enable the automated-UI-testing bypass
//	-demo       run against the isolated demo namespace
//
// # JSON schema
//
// The JSON loader uses timex.Duration for the timeout, so the value can be
// either a string like "30s" or integer nanoseconds:
//
//	{
//	  "server_base_url": "https://vault.example.org",
//	  "database_dsn": "healthvault.db",
//	  "http_timeout": "30s",
//	  "testing_mode": false,
//	  "demo_mode": false
//	}
//
// Primary API
//
//   - type Config                     — holds the server, storage and mode settings
//   - func LoadConfig() *Config       — builds Config by applying defaults, JSON, then flags
//   - func (*Config) LoadDefaults()   — sets sensible defaults
//
// Note: This package does not read environment variables directly; use the
// JSON file or flags to configure values.
package config

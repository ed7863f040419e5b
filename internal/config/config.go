package config

import "time"

// Config holds runtime settings for the HealthVault client.
//
// Fields:
//   - ServerBaseURL: base URL of the credential-exchange server.
//   - HTTPTimeout: per-request timeout on the exchange transport.
//   - DatabaseDSN: path of the local sqlite vault database.
//   - TestingMode: enables the automated-UI-testing login bypass for
//     reserved usernames. Never enable in a production build.
//   - DemoMode: runs against an isolated demo vault namespace.
//
// Units: HTTPTimeout is a time.Duration (e.g., 30*time.Second).
type Config struct {
	ServerBaseURL string
	DatabaseDSN   string
	HTTPTimeout   time.Duration
	TestingMode   bool
	DemoMode      bool
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerBaseURL = "https://127.0.0.1:8443"
	c.DatabaseDSN = "healthvault.db"
	c.HTTPTimeout = 30 * time.Second
	c.TestingMode = false
	c.DemoMode = false
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

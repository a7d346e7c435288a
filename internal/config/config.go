// Package config loads runtime settings for the walletvault CLI from
// defaults, an optional JSON file, and command-line flags, in that order of
// precedence (later sources win).
package config

import "time"

// Config holds runtime settings for the walletvault CLI.
//
// Fields:
//   - DatabasePath: location of the local SQLite database file.
//   - SessionTimeout: idle timeout after which the cached wallet secret is
//     cleared; 0 disables the timeout. Stored settings override this default
//     once the database is open.
type Config struct {
	DatabasePath   string
	SessionTimeout time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.DatabasePath = "walletvault.db"
	c.SessionTimeout = 15 * time.Minute
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

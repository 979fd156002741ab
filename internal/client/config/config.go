// Package config loads runtime configuration for the vault CLI.
//
// Sources, in order of precedence: built-in defaults, then an optional
// JSON file selected with -c/-config, then command-line flags.
package config

import "time"

// Config holds runtime settings for the upload client.
type Config struct {
	// ServerURL is the base URL of the media store, e.g. "http://127.0.0.1:8080".
	ServerURL string
	// RequestTimeout bounds each individual store request.
	RequestTimeout time.Duration
	// HistoryDSN is the path of the local SQLite upload history database.
	HistoryDSN string
	// Thumbnails enables client-side preview generation for new tasks.
	Thumbnails bool
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://127.0.0.1:8080"
	c.RequestTimeout = 30 * time.Second
	c.HistoryDSN = "mediavault.db"
	c.Thumbnails = true
}

// LoadConfig constructs a Config, applies defaults, then overlays values
// from JSON (if a config file is given) and command-line flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJSON(cfg)
	parseFlags(cfg)
	return cfg
}

// Package config defines service configuration and its defaults.
package config

import "strings"

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level" validate:"omitempty,oneof=debug info warn warning error"`

	// LogFormat selects text or json log lines.
	LogFormat string `koanf:"log_format" validate:"oneof=text json"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr" validate:"required"`

	// DataDir is the badger directory holding the ledger. Empty keeps the
	// ledger in memory for the life of the process.
	DataDir string `koanf:"data_dir"`

	// StorageKey names the persisted ledger record.
	StorageKey string `koanf:"storage_key" validate:"required"`

	// ConservativeMode is used when a personalize request does not say.
	ConservativeMode bool `koanf:"conservative_mode"`

	// PersistQueueSize bounds the pending snapshot queue.
	PersistQueueSize int `koanf:"persist_queue_size" validate:"min=1"`

	// PersistTimeoutMS bounds a single ledger save.
	PersistTimeoutMS int `koanf:"persist_timeout_ms" validate:"min=1"`

	// CORSOrigins is a comma separated list of browser origins allowed to call
	// the API. Empty disables CORS.
	CORSOrigins string `koanf:"cors_origins"`

	// WriteRateLimit caps ledger-changing requests per client IP per
	// WriteRateWindowMS. Zero disables the limit.
	WriteRateLimit    int `koanf:"write_rate_limit" validate:"min=0"`
	WriteRateWindowMS int `koanf:"write_rate_window_ms" validate:"min=1"`

	// ShutdownTimeoutMS bounds graceful HTTP shutdown and the final flush.
	ShutdownTimeoutMS int `koanf:"shutdown_timeout_ms" validate:"min=1"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:          "info",
		LogFormat:         "text",
		Addr:              ":9080",
		StorageKey:        "ai-content-guardian-personalization",
		PersistQueueSize:  4,
		PersistTimeoutMS:  2000,
		WriteRateLimit:    120,
		WriteRateWindowMS: 60_000,
		ShutdownTimeoutMS: 5000,
	}
}

// AllowedOrigins splits CORSOrigins into trimmed, non-empty origins.
func (c *Config) AllowedOrigins() []string {
	var out []string
	for _, o := range strings.Split(c.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

package config

import "time"

// Config holds runtime settings for the study-room client.
//
// Fields:
//   - APIBaseURL: base URL every REST path is appended to.
//   - RequestTimeout: per-request deadline of the HTTP client.
//   - RateLimit: outbound requests per second (0 disables throttling).
//   - NotificationsGranted: whether desktop notifications may be used.
//   - LogLevel: debug, info, warn or error.
type Config struct {
	APIBaseURL           string
	RequestTimeout       time.Duration
	RateLimit            float64
	NotificationsGranted bool
	LogLevel             string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.APIBaseURL = "http://127.0.0.1:5000/api"
	c.RequestTimeout = 10 * time.Second
	c.RateLimit = 5
	c.NotificationsGranted = false
	c.LogLevel = "info"
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present), the environment (.env included) and command-line flags.
// Later sources take precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseEnv(cfg)
	parseFlags(cfg)
	return cfg
}

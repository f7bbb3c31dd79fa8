package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	envAPIURL         = "STUDY_API_URL"
	envRequestTimeout = "STUDY_REQUEST_TIMEOUT"
	envRateLimit      = "STUDY_RATE_LIMIT"
	envNotifications  = "STUDY_NOTIFICATIONS"
	envLogLevel       = "STUDY_LOG_LEVEL"
)

// dotenvFiles are loaded into the process environment before lookup.
var dotenvFiles = []string{".env"}

// parseEnv overlays cfg with STUDY_* variables. A missing .env file is not
// an error; unparseable values panic.
func parseEnv(cfg *Config) {
	for _, f := range dotenvFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			panic(err)
		}
	}

	if v, ok := os.LookupEnv(envAPIURL); ok && v != "" {
		cfg.APIBaseURL = v
	}
	if v, ok := os.LookupEnv(envRequestTimeout); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			panic(err)
		}
		cfg.RequestTimeout = d
	}
	if v, ok := os.LookupEnv(envRateLimit); ok && v != "" {
		r, err := strconv.ParseFloat(v, 64)
		if err != nil {
			panic(err)
		}
		cfg.RateLimit = r
	}
	if v, ok := os.LookupEnv(envNotifications); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			panic(err)
		}
		cfg.NotificationsGranted = b
	}
	if v, ok := os.LookupEnv(envLogLevel); ok && v != "" {
		cfg.LogLevel = v
	}
}

package config

import (
	"os"
	"strconv"
	"time"
)

// parseEnv overlays Config fields from environment variables. A .env file, if
// present, is loaded into the environment by the entrypoint before this runs.
//
// Recognized variables:
//
//	ADDRESS           HTTP bind address
//	DATABASE_DSN      PostgreSQL DSN
//	SHUTDOWN_TIMEOUT  shutdown timeout, seconds
func parseEnv(config *Config) {
	if v, ok := os.LookupEnv("ADDRESS"); ok && v != "" {
		config.EndpointAddr = v
	}
	if v, ok := os.LookupEnv("DATABASE_DSN"); ok && v != "" {
		config.DatabaseDSN = v
	}
	if v, ok := os.LookupEnv("SHUTDOWN_TIMEOUT"); ok && v != "" {
		if seconds, err := strconv.Atoi(v); err == nil {
			config.ShutdownTimeout = time.Duration(seconds) * time.Second
		}
	}
}

/*
file: respd/internal/config/config.go
*/
// Package config loads the handful of settings respd needs from the
// environment, using a .env file as an optional overlay the way the
// teacher's redis.conf parser loads an optional config file: missing
// is not an error, just a fallback to defaults.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds respd's runtime settings: just what the command set
// and ambient stack need, no RDB/AOF/eviction directives.
type Config struct {
	// Port is the TCP port the RESP listener binds to.
	Port int

	// MetricsPort is the port the Prometheus /metrics endpoint binds
	// to, on a separate listener from the RESP port.
	MetricsPort int

	// LogLevel is parsed by logrus.ParseLevel in cmd/respd.
	LogLevel string
}

const (
	defaultPort        = 7000
	defaultMetricsPort = 9121
	defaultLogLevel    = "info"
)

// Load reads PORT, METRICS_PORT and LOG_LEVEL from the environment,
// first loading envFile (if non-empty and present) into the process
// environment without overriding variables already set. A missing
// envFile is not an error; defaults apply.
func Load(envFile string) *Config {
	if envFile != "" {
		_ = godotenv.Load(envFile)
	}

	cfg := &Config{
		Port:        defaultPort,
		MetricsPort: defaultMetricsPort,
		LogLevel:    defaultLogLevel,
	}

	if p, ok := os.LookupEnv("PORT"); ok {
		if n, err := strconv.Atoi(p); err == nil {
			cfg.Port = n
		}
	}
	if p, ok := os.LookupEnv("METRICS_PORT"); ok {
		if n, err := strconv.Atoi(p); err == nil {
			cfg.MetricsPort = n
		}
	}
	if lvl, ok := os.LookupEnv("LOG_LEVEL"); ok && lvl != "" {
		cfg.LogLevel = lvl
	}

	return cfg
}

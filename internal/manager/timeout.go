package manager

import (
	"os"
	"time"

	"github.com/standardbeagle/toolmux/internal/config"
)

// Environment variable names for tuning the manager.
const (
	TimeoutEnvVar        = "TOOLMUX_TIMEOUT"
	HealthIntervalEnvVar = "TOOLMUX_HEALTH_INTERVAL"
	ReconnectDelayEnvVar = "TOOLMUX_RECONNECT_DELAY"
)

// Default timing configuration.
const (
	DefaultConnectionTimeout = 30 * time.Second
	DefaultPingTimeout       = 5 * time.Second
	DefaultHealthInterval    = 30 * time.Second
	DefaultReconnectDelay    = 5 * time.Second
)

// GetConnectionTimeout returns the connection timeout for a backend.
// Precedence: per-backend config, TOOLMUX_TIMEOUT env var, default (30s).
func GetConnectionTimeout(cfg config.BackendConfig) time.Duration {
	if cfg.Timeout != "" {
		if d, err := time.ParseDuration(cfg.Timeout); err == nil && d > 0 {
			return d
		}
	}
	if v := os.Getenv(TimeoutEnvVar); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return DefaultConnectionTimeout
}

// durationFromEnv reads a duration env var, falling back to def when unset
// or unparseable.
func durationFromEnv(envVar string, def time.Duration) time.Duration {
	if v := os.Getenv(envVar); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return def
}

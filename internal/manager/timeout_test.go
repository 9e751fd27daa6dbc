package manager

import (
	"os"
	"testing"
	"time"

	"github.com/standardbeagle/toolmux/internal/config"
	"github.com/stretchr/testify/assert"
)

func TestGetConnectionTimeout_Default(t *testing.T) {
	os.Unsetenv(TimeoutEnvVar)

	cfg := config.BackendConfig{
		Name:    "test",
		Type:    "stdio",
		Command: "test",
	}

	timeout := GetConnectionTimeout(cfg)
	assert.Equal(t, DefaultConnectionTimeout, timeout)
	assert.Equal(t, 30*time.Second, timeout)
}

func TestGetConnectionTimeout_PerBackendConfig(t *testing.T) {
	os.Unsetenv(TimeoutEnvVar)

	tests := []struct {
		name     string
		timeout  string
		expected time.Duration
	}{
		{
			name:     "seconds",
			timeout:  "45s",
			expected: 45 * time.Second,
		},
		{
			name:     "minutes",
			timeout:  "2m",
			expected: 2 * time.Minute,
		},
		{
			name:     "milliseconds",
			timeout:  "5000ms",
			expected: 5000 * time.Millisecond,
		},
		{
			name:     "combined",
			timeout:  "1m30s",
			expected: 90 * time.Second,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.BackendConfig{
				Name:    "test",
				Type:    "stdio",
				Command: "test",
				Timeout: tt.timeout,
			}

			timeout := GetConnectionTimeout(cfg)
			assert.Equal(t, tt.expected, timeout)
		})
	}
}

func TestGetConnectionTimeout_EnvVar(t *testing.T) {
	tests := []struct {
		name     string
		envValue string
		expected time.Duration
	}{
		{
			name:     "env var in seconds",
			envValue: "60s",
			expected: 60 * time.Second,
		},
		{
			name:     "env var in minutes",
			envValue: "5m",
			expected: 5 * time.Minute,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(TimeoutEnvVar, tt.envValue)

			cfg := config.BackendConfig{
				Name:    "test",
				Type:    "stdio",
				Command: "test",
			}

			timeout := GetConnectionTimeout(cfg)
			assert.Equal(t, tt.expected, timeout)
		})
	}
}

func TestGetConnectionTimeout_Priority(t *testing.T) {
	t.Run("per-backend beats env var", func(t *testing.T) {
		t.Setenv(TimeoutEnvVar, "60s")

		cfg := config.BackendConfig{
			Name:    "test",
			Type:    "stdio",
			Command: "test",
			Timeout: "45s",
		}

		timeout := GetConnectionTimeout(cfg)
		assert.Equal(t, 45*time.Second, timeout)
	})

	t.Run("env var beats default", func(t *testing.T) {
		t.Setenv(TimeoutEnvVar, "120s")

		cfg := config.BackendConfig{
			Name:    "test",
			Type:    "stdio",
			Command: "test",
		}

		timeout := GetConnectionTimeout(cfg)
		assert.Equal(t, 120*time.Second, timeout)
	})
}

func TestGetConnectionTimeout_InvalidValues(t *testing.T) {
	tests := []struct {
		name           string
		backendTimeout string
		envTimeout     string
		expected       time.Duration
	}{
		{
			name:           "invalid per-backend falls back to env",
			backendTimeout: "invalid",
			envTimeout:     "60s",
			expected:       60 * time.Second,
		},
		{
			name:           "invalid per-backend falls back to default when no env",
			backendTimeout: "invalid",
			envTimeout:     "",
			expected:       DefaultConnectionTimeout,
		},
		{
			name:           "invalid env falls back to default",
			backendTimeout: "",
			envTimeout:     "invalid",
			expected:       DefaultConnectionTimeout,
		},
		{
			name:           "zero timeout falls back to env",
			backendTimeout: "0s",
			envTimeout:     "60s",
			expected:       60 * time.Second,
		},
		{
			name:           "negative timeout falls back to env",
			backendTimeout: "-30s",
			envTimeout:     "60s",
			expected:       60 * time.Second,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envTimeout != "" {
				t.Setenv(TimeoutEnvVar, tt.envTimeout)
			} else {
				os.Unsetenv(TimeoutEnvVar)
			}

			cfg := config.BackendConfig{
				Name:    "test",
				Type:    "stdio",
				Command: "test",
				Timeout: tt.backendTimeout,
			}

			timeout := GetConnectionTimeout(cfg)
			assert.Equal(t, tt.expected, timeout)
		})
	}
}

func TestDurationFromEnv(t *testing.T) {
	t.Run("unset returns default", func(t *testing.T) {
		os.Unsetenv(HealthIntervalEnvVar)
		assert.Equal(t, DefaultHealthInterval, durationFromEnv(HealthIntervalEnvVar, DefaultHealthInterval))
	})

	t.Run("valid value wins", func(t *testing.T) {
		t.Setenv(ReconnectDelayEnvVar, "250ms")
		assert.Equal(t, 250*time.Millisecond, durationFromEnv(ReconnectDelayEnvVar, DefaultReconnectDelay))
	})

	t.Run("garbage returns default", func(t *testing.T) {
		t.Setenv(ReconnectDelayEnvVar, "soon")
		assert.Equal(t, DefaultReconnectDelay, durationFromEnv(ReconnectDelayEnvVar, DefaultReconnectDelay))
	})
}

func TestTimeoutEnvVarConstants(t *testing.T) {
	assert.Equal(t, "TOOLMUX_TIMEOUT", TimeoutEnvVar)
	assert.Equal(t, "TOOLMUX_HEALTH_INTERVAL", HealthIntervalEnvVar)
	assert.Equal(t, "TOOLMUX_RECONNECT_DELAY", ReconnectDelayEnvVar)
}

func TestDefaultTimingConstants(t *testing.T) {
	assert.Equal(t, 30*time.Second, DefaultConnectionTimeout)
	assert.Equal(t, 5*time.Second, DefaultPingTimeout)
	assert.Equal(t, 30*time.Second, DefaultHealthInterval)
	assert.Equal(t, 5*time.Second, DefaultReconnectDelay)
}

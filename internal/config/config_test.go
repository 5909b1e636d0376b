package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	require.Equal(t, "file", cfg.StoreDriver)
	require.Equal(t, 3*time.Second, cfg.WatchInterval)
	require.Equal(t, 5, cfg.LockoutThreshold)
	require.Equal(t, 5*time.Minute, cfg.LockoutWindow)
	require.Equal(t, 2*time.Second, cfg.VoiceDelay)
	require.Equal(t, "ru", cfg.DefaultLang)
	require.NotEmpty(t, cfg.DeviceLabel)
	require.NoError(t, cfg.Validate())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("KIT_STORE_DRIVER", "sqlite3")
	t.Setenv("KIT_STORE_DSN", "/tmp/kit.db")
	t.Setenv("KIT_WATCH_INTERVAL", "250ms")
	t.Setenv("KIT_LOCKOUT_THRESHOLD", "3")
	t.Setenv("KIT_DEVICE_LABEL", "kitchen tablet")

	cfg := Load()

	require.Equal(t, "sqlite3", cfg.StoreDriver)
	require.Equal(t, "/tmp/kit.db", cfg.StoreDSN)
	require.Equal(t, 250*time.Millisecond, cfg.WatchInterval)
	require.Equal(t, 3, cfg.LockoutThreshold)
	require.Equal(t, "kitchen tablet", cfg.DeviceLabel)
}

func TestLoadInvalidValuesFallBack(t *testing.T) {
	t.Setenv("KIT_WATCH_INTERVAL", "soon")
	t.Setenv("KIT_LOCKOUT_THRESHOLD", "-2")
	t.Setenv("KIT_AUTH_RATE", "fast")

	cfg := Load()

	require.Equal(t, 3*time.Second, cfg.WatchInterval)
	require.Equal(t, 5, cfg.LockoutThreshold)
	require.Equal(t, 5.0, cfg.AuthRatePerSecond)
}

func TestValidate(t *testing.T) {
	base := Load()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"unknown driver", func(c *Config) { c.StoreDriver = "redis" }, true},
		{"file without path", func(c *Config) { c.StorePath = "" }, true},
		{"postgres without dsn", func(c *Config) { c.StoreDriver = "postgres"; c.StoreDSN = "" }, true},
		{"zero interval", func(c *Config) { c.WatchInterval = 0 }, true},
		{"zero threshold", func(c *Config) { c.LockoutThreshold = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestLoadUIOrigins(t *testing.T) {
	require.Empty(t, Load().UIOrigins)

	t.Setenv("KIT_UI_ORIGINS", " http://localhost:5173, ,app://kit ")
	require.Equal(t, []string{"http://localhost:5173", "app://kit"}, Load().UIOrigins)
}

package config

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"
)

// Config holds runtime settings. Every field has a default so the client
// starts with no environment at all.
type Config struct {
	Env  string
	Addr string

	StoreDriver string // file, sqlite3 or postgres
	StorePath   string
	StoreDSN    string
	StoreSlot   string

	WatchInterval    time.Duration
	LockoutThreshold int
	LockoutWindow    time.Duration
	VoiceDelay       time.Duration
	CallDuration     time.Duration

	DeviceLabel string
	DefaultLang string
	VoiceLabel  string

	AMQPURL      string
	AMQPExchange string
	OTLPEndpoint string

	AuthRatePerSecond float64
	AuthRateBurst     int

	// UIOrigins may open the events socket from a browser. Empty means same host only.
	UIOrigins []string
}

// Load reads the configuration from KIT_* environment variables.
func Load() Config {
	return Config{
		Env:  getEnv("KIT_ENV", "dev"),
		Addr: getEnv("KIT_ADDR", "127.0.0.1:8090"),

		StoreDriver: getEnv("KIT_STORE_DRIVER", "file"),
		StorePath:   getEnv("KIT_STORE_PATH", "kit-messenger.json"),
		StoreDSN:    getEnv("KIT_STORE_DSN", "kit-messenger.db"),
		StoreSlot:   getEnv("KIT_STORE_SLOT", "kit-messenger"),

		WatchInterval:    getDuration("KIT_WATCH_INTERVAL", 3*time.Second),
		LockoutThreshold: getInt("KIT_LOCKOUT_THRESHOLD", 5),
		LockoutWindow:    getDuration("KIT_LOCKOUT_WINDOW", 5*time.Minute),
		VoiceDelay:       getDuration("KIT_VOICE_DELAY", 2*time.Second),
		CallDuration:     getDuration("KIT_CALL_DURATION", 5*time.Second),

		DeviceLabel: getEnv("KIT_DEVICE_LABEL", defaultDeviceLabel()),
		DefaultLang: getEnv("KIT_LANG", "ru"),
		VoiceLabel:  getEnv("KIT_VOICE_LABEL", "Voice message"),

		AMQPURL:      getEnv("KIT_AMQP_URL", ""),
		AMQPExchange: getEnv("KIT_AMQP_EXCHANGE", "kit.events"),
		OTLPEndpoint: getEnv("KIT_OTLP_ENDPOINT", ""),

		AuthRatePerSecond: getFloat("KIT_AUTH_RATE", 5),
		AuthRateBurst:     getInt("KIT_AUTH_BURST", 10),

		UIOrigins: getList("KIT_UI_ORIGINS"),
	}
}

// Validate rejects settings the core cannot run with.
func (c Config) Validate() error {
	switch c.StoreDriver {
	case "file":
		if c.StorePath == "" {
			return fmt.Errorf("KIT_STORE_PATH is required for the file store")
		}
	case "sqlite3", "postgres":
		if c.StoreDSN == "" {
			return fmt.Errorf("KIT_STORE_DSN is required for the %s store", c.StoreDriver)
		}
	default:
		return fmt.Errorf("unknown store driver %q", c.StoreDriver)
	}
	if c.WatchInterval <= 0 {
		return fmt.Errorf("watch interval must be positive")
	}
	if c.LockoutThreshold < 1 {
		return fmt.Errorf("lockout threshold must be at least 1")
	}
	return nil
}

func defaultDeviceLabel() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "unknown device"
	}
	return fmt.Sprintf("%s (%s)", host, runtime.GOOS)
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	return fallback
}

// getList splits a comma separated variable, dropping blank entries.
func getList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getInt(key string, fallback int) int {
	if v, err := strconv.Atoi(getEnv(key, "")); err == nil && v > 0 {
		return v
	}
	return fallback
}

func getFloat(key string, fallback float64) float64 {
	if v, err := strconv.ParseFloat(getEnv(key, ""), 64); err == nil && v > 0 {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if v, err := time.ParseDuration(getEnv(key, "")); err == nil && v > 0 {
		return v
	}
	return fallback
}

// Package config loads application configuration from environment variables.
package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	DBPath          string
	ListenAddr      string
	SecretKey       []byte
	HIBPAPIKey      string
	NotifyEmail     string
	SMTPHost        string
	SMTPPort        int
	SMTPUsername    string
	SMTPPassword    string
	SMTPFrom        string
	MonitorInterval time.Duration
	CheckDelay      time.Duration
	SessionTTL      time.Duration
}

// HasSMTP returns true when an SMTP host and sender are configured. Used by
// the composition root to decide whether breach notifications are delivered
// by mail or only logged.
func (c *Config) HasSMTP() bool {
	return c.SMTPHost != "" && c.SMTPFrom != ""
}

// Load reads configuration from environment variables and returns a validated
// Config. BREACHWATCH_SECRET_KEY is required and must be 64 hex characters
// (a 256-bit key). BREACHWATCH_HIBP_API_KEY and the SMTP settings are
// optional; absent SMTP settings disable mail delivery.
// Optional variables with defaults: BREACHWATCH_DB_PATH (breachwatch.db),
// BREACHWATCH_LISTEN_ADDR (127.0.0.1:8080), BREACHWATCH_MONITOR_INTERVAL
// (24h, 0 disables the periodic sweep), BREACHWATCH_CHECK_DELAY (1s),
// BREACHWATCH_SESSION_TTL (168h).
func Load() (*Config, error) {
	keyHex := os.Getenv("BREACHWATCH_SECRET_KEY")
	if keyHex == "" {
		return nil, fmt.Errorf("BREACHWATCH_SECRET_KEY is required")
	}
	key, err := hex.DecodeString(keyHex)
	if err != nil {
		return nil, fmt.Errorf("BREACHWATCH_SECRET_KEY is not valid hex: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("BREACHWATCH_SECRET_KEY must decode to 32 bytes, got %d", len(key))
	}

	dbPath := "breachwatch.db"
	if v, ok := os.LookupEnv("BREACHWATCH_DB_PATH"); ok {
		dbPath = v
	}

	listenAddr := "127.0.0.1:8080"
	if v, ok := os.LookupEnv("BREACHWATCH_LISTEN_ADDR"); ok {
		listenAddr = v
	}

	monitorInterval, err := durationEnv("BREACHWATCH_MONITOR_INTERVAL", 24*time.Hour)
	if err != nil {
		return nil, err
	}

	checkDelay, err := durationEnv("BREACHWATCH_CHECK_DELAY", time.Second)
	if err != nil {
		return nil, err
	}

	sessionTTL, err := durationEnv("BREACHWATCH_SESSION_TTL", 7*24*time.Hour)
	if err != nil {
		return nil, err
	}

	smtpPort := 587
	if v, ok := os.LookupEnv("BREACHWATCH_SMTP_PORT"); ok {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("BREACHWATCH_SMTP_PORT has invalid value %q: %w", v, err)
		}
		smtpPort = parsed
	}

	return &Config{
		DBPath:          dbPath,
		ListenAddr:      listenAddr,
		SecretKey:       key,
		HIBPAPIKey:      os.Getenv("BREACHWATCH_HIBP_API_KEY"),
		NotifyEmail:     os.Getenv("BREACHWATCH_NOTIFY_EMAIL"),
		SMTPHost:        os.Getenv("BREACHWATCH_SMTP_HOST"),
		SMTPPort:        smtpPort,
		SMTPUsername:    os.Getenv("BREACHWATCH_SMTP_USERNAME"),
		SMTPPassword:    os.Getenv("BREACHWATCH_SMTP_PASSWORD"),
		SMTPFrom:        os.Getenv("BREACHWATCH_SMTP_FROM"),
		MonitorInterval: monitorInterval,
		CheckDelay:      checkDelay,
		SessionTTL:      sessionTTL,
	}, nil
}

func durationEnv(name string, fallback time.Duration) (time.Duration, error) {
	v, ok := os.LookupEnv(name)
	if !ok {
		return fallback, nil
	}
	parsed, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s has invalid duration %q: %w", name, v, err)
	}
	return parsed, nil
}

package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKeyHex = "0102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f20"

// allConfigKeys lists every BREACHWATCH_ env var that Load() reads.
var allConfigKeys = []string{
	"BREACHWATCH_DB_PATH",
	"BREACHWATCH_LISTEN_ADDR",
	"BREACHWATCH_SECRET_KEY",
	"BREACHWATCH_HIBP_API_KEY",
	"BREACHWATCH_NOTIFY_EMAIL",
	"BREACHWATCH_SMTP_HOST",
	"BREACHWATCH_SMTP_PORT",
	"BREACHWATCH_SMTP_USERNAME",
	"BREACHWATCH_SMTP_PASSWORD",
	"BREACHWATCH_SMTP_FROM",
	"BREACHWATCH_MONITOR_INTERVAL",
	"BREACHWATCH_CHECK_DELAY",
	"BREACHWATCH_SESSION_TTL",
}

// isolateConfigEnv saves and unsets all BREACHWATCH_ env vars so tests don't
// inherit values from the host environment (e.g. a running dev server).
// t.Cleanup restores original values after the test.
func isolateConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range allConfigKeys {
		if orig, ok := os.LookupEnv(key); ok {
			t.Cleanup(func() { os.Setenv(key, orig) })
		} else {
			t.Cleanup(func() { os.Unsetenv(key) })
		}
		os.Unsetenv(key)
	}
}

func TestLoad_Success(t *testing.T) {
	isolateConfigEnv(t)
	t.Setenv("BREACHWATCH_SECRET_KEY", testKeyHex)
	t.Setenv("BREACHWATCH_DB_PATH", "/tmp/test.db")
	t.Setenv("BREACHWATCH_LISTEN_ADDR", "0.0.0.0:9090")
	t.Setenv("BREACHWATCH_HIBP_API_KEY", "hibp-key")
	t.Setenv("BREACHWATCH_NOTIFY_EMAIL", "alerts@example.com")
	t.Setenv("BREACHWATCH_MONITOR_INTERVAL", "12h")
	t.Setenv("BREACHWATCH_CHECK_DELAY", "500ms")
	t.Setenv("BREACHWATCH_SESSION_TTL", "48h")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Len(t, cfg.SecretKey, 32)
	assert.Equal(t, "/tmp/test.db", cfg.DBPath)
	assert.Equal(t, "0.0.0.0:9090", cfg.ListenAddr)
	assert.Equal(t, "hibp-key", cfg.HIBPAPIKey)
	assert.Equal(t, "alerts@example.com", cfg.NotifyEmail)
	assert.Equal(t, 12*time.Hour, cfg.MonitorInterval)
	assert.Equal(t, 500*time.Millisecond, cfg.CheckDelay)
	assert.Equal(t, 48*time.Hour, cfg.SessionTTL)
}

func TestLoad_Defaults(t *testing.T) {
	isolateConfigEnv(t)
	t.Setenv("BREACHWATCH_SECRET_KEY", testKeyHex)

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "breachwatch.db", cfg.DBPath)
	assert.Equal(t, "127.0.0.1:8080", cfg.ListenAddr)
	assert.Equal(t, 24*time.Hour, cfg.MonitorInterval)
	assert.Equal(t, time.Second, cfg.CheckDelay)
	assert.Equal(t, 7*24*time.Hour, cfg.SessionTTL)
	assert.Equal(t, 587, cfg.SMTPPort)
	assert.Equal(t, "", cfg.HIBPAPIKey)
}

func TestLoad_MissingSecretKey(t *testing.T) {
	isolateConfigEnv(t)

	cfg, err := Load()

	assert.Nil(t, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BREACHWATCH_SECRET_KEY")
}

func TestLoad_SecretKey_TooShort(t *testing.T) {
	isolateConfigEnv(t)
	t.Setenv("BREACHWATCH_SECRET_KEY", "deadbeef")

	cfg, err := Load()

	assert.Nil(t, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BREACHWATCH_SECRET_KEY")
}

func TestLoad_SecretKey_NotHex(t *testing.T) {
	isolateConfigEnv(t)
	// 64 chars but not valid hex
	t.Setenv("BREACHWATCH_SECRET_KEY", "zzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzz")

	cfg, err := Load()

	assert.Nil(t, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BREACHWATCH_SECRET_KEY")
}

func TestLoad_InvalidMonitorInterval(t *testing.T) {
	isolateConfigEnv(t)
	t.Setenv("BREACHWATCH_SECRET_KEY", testKeyHex)
	t.Setenv("BREACHWATCH_MONITOR_INTERVAL", "not-a-duration")

	cfg, err := Load()

	assert.Nil(t, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BREACHWATCH_MONITOR_INTERVAL")
}

func TestLoad_InvalidSMTPPort(t *testing.T) {
	isolateConfigEnv(t)
	t.Setenv("BREACHWATCH_SECRET_KEY", testKeyHex)
	t.Setenv("BREACHWATCH_SMTP_PORT", "not-a-port")

	cfg, err := Load()

	assert.Nil(t, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BREACHWATCH_SMTP_PORT")
}

func TestHasSMTP(t *testing.T) {
	cfg := &Config{}
	assert.False(t, cfg.HasSMTP())

	cfg.SMTPHost = "smtp.example.com"
	assert.False(t, cfg.HasSMTP())

	cfg.SMTPFrom = "breachwatch@example.com"
	assert.True(t, cfg.HasSMTP())
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_ExpandsEnvAndMapsSections(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("WARD_TEST_TOKEN", "123:abc")
	t.Setenv("WARD_TEST_DB", filepath.Join(dir, "nested", "ward.db"))

	path := writeConfig(t, `
ward:
  name: "Ward 7B"
  timezone: "Asia/Kolkata"
database:
  path: "${WARD_TEST_DB}"
telegram:
  enabled: true
  bot_token: "${WARD_TEST_TOKEN}"
  chat_id: -100200
  rate_limit: 5
  max_retries: 1
reminders:
  check_interval_seconds: 30
  change_burst: 8
redis:
  address: "localhost:6379"
  board_ttl_minutes: 3
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "Ward 7B", cfg.Ward.Name)
	assert.Equal(t, "123:abc", cfg.Telegram.BotToken)
	assert.Equal(t, int64(-100200), cfg.Telegram.ChatID)
	assert.DirExists(t, filepath.Join(dir, "nested"))
	assert.Equal(t, 3*time.Minute, cfg.BoardTTL())

	sched := cfg.SchedulerConfig()
	assert.Equal(t, "Asia/Kolkata", sched.Timezone)
	assert.Equal(t, 30*time.Second, sched.CheckInterval)
	assert.Equal(t, 8, sched.ChangeBurst)
	assert.Equal(t, 2.0, sched.ChangeRate)

	alerts := cfg.AlertSenderConfig()
	assert.Equal(t, 5.0, alerts.Rate)
	assert.Equal(t, 30, alerts.Burst)
	assert.Equal(t, 1, alerts.Retry.MaxRetries)
}

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, "database:\n  path: "+filepath.Join(dir, "ward.db")+"\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "Open Ward", cfg.Ward.Name)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, 8080, cfg.API.Port)
	assert.Equal(t, 8090, cfg.Monitoring.HealthCheckPort)
	assert.Equal(t, 9090, cfg.Monitoring.PrometheusPort)
	assert.Equal(t, 14, cfg.Backup.RetentionDays)
	assert.Equal(t, 24*time.Hour, cfg.Backup.Interval())
	assert.Equal(t, 10*time.Minute, cfg.BoardTTL())
	assert.Equal(t, time.Minute, cfg.SchedulerConfig().CheckInterval)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "ward: [unclosed"))
	assert.Error(t, err)
}

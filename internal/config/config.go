package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"openward/shared/reminders"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultPath is used when WARD_CONFIG_PATH is not set.
const DefaultPath = "configs/config.yaml"

type Config struct {
	Ward struct {
		Name     string `yaml:"name"`
		Timezone string `yaml:"timezone"`
	} `yaml:"ward"`

	Logging struct {
		Level  string `yaml:"level"`
		Pretty bool   `yaml:"pretty"`
	} `yaml:"logging"`

	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`

	Backup BackupConfig `yaml:"backup"`

	Redis struct {
		Address         string `yaml:"address"`
		Password        string `yaml:"password"`
		DB              int    `yaml:"db"`
		BoardTTLMinutes int    `yaml:"board_ttl_minutes"`
	} `yaml:"redis"`

	Reminders struct {
		CheckIntervalSeconds int     `yaml:"check_interval_seconds"`
		ChangeRate           float64 `yaml:"change_rate"`
		ChangeBurst          int     `yaml:"change_burst"`
		TimeoutSeconds       int     `yaml:"timeout_seconds"`
	} `yaml:"reminders"`

	Telegram struct {
		Enabled    bool    `yaml:"enabled"`
		BotToken   string  `yaml:"bot_token"`
		ChatID     int64   `yaml:"chat_id"`
		Debug      bool    `yaml:"debug"`
		RateLimit  float64 `yaml:"rate_limit"`
		RateBurst  int     `yaml:"rate_burst"`
		MaxRetries int     `yaml:"max_retries"`
	} `yaml:"telegram"`

	API struct {
		Port int `yaml:"port"`
	} `yaml:"api"`

	Monitoring struct {
		HealthCheckPort   int  `yaml:"health_check_port"`
		PrometheusEnabled bool `yaml:"prometheus_enabled"`
		PrometheusPort    int  `yaml:"prometheus_port"`
	} `yaml:"monitoring"`
}

// BackupConfig controls periodic database snapshots.
type BackupConfig struct {
	Enabled       bool   `yaml:"enabled"`
	IntervalHours int    `yaml:"interval_hours"`
	Path          string `yaml:"path"`
	RetentionDays int    `yaml:"retention_days"`
}

// Interval returns the backup period, 24h by default.
func (b BackupConfig) Interval() time.Duration {
	if b.IntervalHours <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(b.IntervalHours) * time.Hour
}

// Load reads the YAML config at path. Variables from a .env file next to the
// working directory are loaded first so ${VAR} placeholders can use them.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Support ${ENV_VAR} placeholders in YAML config.
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()

	if err = os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Ward.Name == "" {
		c.Ward.Name = "Open Ward"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Database.Path == "" {
		c.Database.Path = "data/openward.db"
	}
	if c.Backup.Path == "" {
		c.Backup.Path = "backups"
	}
	if c.Backup.RetentionDays <= 0 {
		c.Backup.RetentionDays = 14
	}
	if c.API.Port == 0 {
		c.API.Port = 8080
	}
	if c.Monitoring.HealthCheckPort == 0 {
		c.Monitoring.HealthCheckPort = 8090
	}
	if c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}
}

// BoardTTL is how long a published board stays in Redis.
func (c *Config) BoardTTL() time.Duration {
	if c.Redis.BoardTTLMinutes <= 0 {
		return 10 * time.Minute
	}
	return time.Duration(c.Redis.BoardTTLMinutes) * time.Minute
}

// SchedulerConfig maps the reminders section onto the scheduler settings.
func (c *Config) SchedulerConfig() reminders.SchedulerConfig {
	cfg := reminders.DefaultSchedulerConfig()
	cfg.Timezone = c.Ward.Timezone
	if c.Reminders.CheckIntervalSeconds > 0 {
		cfg.CheckInterval = time.Duration(c.Reminders.CheckIntervalSeconds) * time.Second
	}
	if c.Reminders.ChangeRate > 0 {
		cfg.ChangeRate = c.Reminders.ChangeRate
	}
	if c.Reminders.ChangeBurst > 0 {
		cfg.ChangeBurst = c.Reminders.ChangeBurst
	}
	if c.Reminders.TimeoutSeconds > 0 {
		cfg.EvaluationTimeout = time.Duration(c.Reminders.TimeoutSeconds) * time.Second
	}
	return cfg
}

// AlertSenderConfig maps the telegram section onto alert delivery settings.
func (c *Config) AlertSenderConfig() reminders.AlertSenderConfig {
	cfg := reminders.DefaultAlertSenderConfig()
	if c.Telegram.RateLimit > 0 {
		cfg.Rate = c.Telegram.RateLimit
	}
	if c.Telegram.RateBurst > 0 {
		cfg.Burst = c.Telegram.RateBurst
	}
	if c.Telegram.MaxRetries > 0 {
		cfg.Retry.MaxRetries = c.Telegram.MaxRetries
	}
	return cfg
}

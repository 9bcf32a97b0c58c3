package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App           AppConfig        `yaml:"app"`
	Backend       BackendConfig    `yaml:"backend"`
	Dashboard     DashboardConfig  `yaml:"dashboard"`
	Redis         RedisConfig      `yaml:"redis"`
	Telegram      TelegramConfig   `yaml:"telegram"`
	Monitoring    MonitoringConfig `yaml:"monitoring"`
	Logging       LoggingConfig    `yaml:"logging"`
	Exports       ExportConfig     `yaml:"exports"`
	WatchlistPath string           `yaml:"watchlist_path"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

// BackendConfig points at the sniper REST API this dashboard observes.
type BackendConfig struct {
	BaseURL        string `yaml:"base_url"`
	APIKey         string `yaml:"api_key"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

type DashboardConfig struct {
	PollIntervalSeconds int     `yaml:"poll_interval_seconds"`
	ActivityLimit       int     `yaml:"activity_limit"`
	DebounceMillis      int     `yaml:"debounce_ms"`
	MinQueryLen         int     `yaml:"min_query_len"`
	NotificationTTLMs   int     `yaml:"notification_ttl_ms"`
	SearchRPS           float64 `yaml:"search_rps"`
	SearchBurst         int     `yaml:"search_burst"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type TelegramConfig struct {
	BotToken string `yaml:"bot_token"`
	ChatID   int64  `yaml:"chat_id"`
	Debug    bool   `yaml:"debug"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	PrometheusPort    int  `yaml:"prometheus_port"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

type ExportConfig struct {
	Path string `yaml:"path"`
}

func Load(configPath string) (*Config, error) {
	// .env is optional; config values may still reference plain env vars.
	_ = godotenv.Load(".env")

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	// Environment variable substitution inside the YAML before parsing.
	expandedData := []byte(os.ExpandEnv(string(data)))

	var config Config
	if err := yaml.Unmarshal(expandedData, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func (c *Config) Validate() error {
	if c.Backend.BaseURL == "" {
		return errors.New("backend base_url is required")
	}
	if c.Dashboard.PollIntervalSeconds < 1 {
		return fmt.Errorf("poll_interval_seconds must be positive, got %d", c.Dashboard.PollIntervalSeconds)
	}
	if c.Dashboard.MinQueryLen < 1 {
		return fmt.Errorf("min_query_len must be positive, got %d", c.Dashboard.MinQueryLen)
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "sniperdash"
	}
	if c.Backend.TimeoutSeconds == 0 {
		c.Backend.TimeoutSeconds = 10
	}
	if c.Dashboard.PollIntervalSeconds == 0 {
		c.Dashboard.PollIntervalSeconds = 5
	}
	if c.Dashboard.ActivityLimit == 0 {
		c.Dashboard.ActivityLimit = 30
	}
	if c.Dashboard.DebounceMillis == 0 {
		c.Dashboard.DebounceMillis = 350
	}
	if c.Dashboard.MinQueryLen == 0 {
		c.Dashboard.MinQueryLen = 2
	}
	if c.Dashboard.NotificationTTLMs == 0 {
		c.Dashboard.NotificationTTLMs = 4000
	}
	if c.Dashboard.SearchRPS == 0 {
		c.Dashboard.SearchRPS = 2
	}
	if c.Dashboard.SearchBurst == 0 {
		c.Dashboard.SearchBurst = 3
	}
	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}
	if c.Exports.Path == "" {
		c.Exports.Path = "exports"
	}
}

// PollInterval returns the poll period as a duration.
func (c *DashboardConfig) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalSeconds) * time.Second
}

// Debounce returns the autocomplete quiet period as a duration.
func (c *DashboardConfig) Debounce() time.Duration {
	return time.Duration(c.DebounceMillis) * time.Millisecond
}

// NotificationTTL returns the notification lifetime as a duration.
func (c *DashboardConfig) NotificationTTL() time.Duration {
	return time.Duration(c.NotificationTTLMs) * time.Millisecond
}

// Timeout returns the per-request HTTP timeout.
func (c *BackendConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

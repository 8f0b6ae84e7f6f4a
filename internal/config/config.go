// Package config provides YAML-based configuration loading for Galley.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/zulandar/galley/internal/quota"
	"gopkg.in/yaml.v3"
)

// Supported database drivers.
const (
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"
)

// Config is the top-level Galley configuration, loaded from galley.yaml.
type Config struct {
	Database   DatabaseConfig   `yaml:"database"`
	Server     ServerConfig     `yaml:"server"`
	Classifier ClassifierConfig `yaml:"classifier"`
	Quota      QuotaConfig      `yaml:"quota"`
	Alerts     AlertsConfig     `yaml:"alerts"`
	Log        LogConfig        `yaml:"log"`
}

// DatabaseConfig selects and addresses the persistence store.
type DatabaseConfig struct {
	Driver      string `yaml:"driver"` // "sqlite" or "mysql"
	Path        string `yaml:"path"`   // sqlite file path
	Host        string `yaml:"host"`
	Port        int    `yaml:"port"`
	Name        string `yaml:"name"`
	User        string `yaml:"user"`
	PasswordEnv string `yaml:"password_env"`
}

// Password returns the database password from the configured env var.
func (d DatabaseConfig) Password() string {
	if d.PasswordEnv == "" {
		return ""
	}
	return os.Getenv(d.PasswordEnv)
}

// ServerConfig holds HTTP listener and identity header settings.
type ServerConfig struct {
	Port        int    `yaml:"port"`
	UserHeader  string `yaml:"user_header"`
	EmailHeader string `yaml:"email_header"`
}

// ClassifierConfig holds settings for the language-model classification service.
type ClassifierConfig struct {
	Model          string  `yaml:"model"`
	BaseURL        string  `yaml:"base_url"`
	APIKeyEnv      string  `yaml:"api_key_env"`
	Temperature    float32 `yaml:"temperature"`
	TimeoutSeconds int     `yaml:"timeout_seconds"`
}

// APIKey returns the classifier API key from the configured env var.
func (c ClassifierConfig) APIKey() string {
	return os.Getenv(c.APIKeyEnv)
}

// Timeout returns the per-call classification timeout.
func (c ClassifierConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// QuotaConfig holds the free-tier ceiling.
type QuotaConfig struct {
	FreeGenerations int `yaml:"free_generations"`
}

// AlertsConfig configures the operational alert channels. Each channel is
// optional; with none configured alerts only go to the log.
type AlertsConfig struct {
	Slack   ChannelConfig `yaml:"slack"`
	Discord ChannelConfig `yaml:"discord"`
}

// ChannelConfig addresses a single chat channel used for alerts.
type ChannelConfig struct {
	BotTokenEnv string `yaml:"bot_token_env"`
	ChannelID   string `yaml:"channel_id"`
}

// Enabled reports whether the channel has a target.
func (c ChannelConfig) Enabled() bool {
	return c.ChannelID != ""
}

// BotToken returns the bot token from the configured env var.
func (c ChannelConfig) BotToken() string {
	if c.BotTokenEnv == "" {
		return ""
	}
	return os.Getenv(c.BotTokenEnv)
}

// LogConfig controls the process logger.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "text" or "json"
}

// Load reads a YAML config file from path and returns a validated Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse unmarshals YAML bytes into a validated Config.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyDefaults fills in derived and default values.
func (c *Config) applyDefaults() {
	if c.Database.Driver == "" {
		c.Database.Driver = DriverSQLite
	}
	switch c.Database.Driver {
	case DriverSQLite:
		if c.Database.Path == "" {
			c.Database.Path = "galley.db"
		}
	case DriverMySQL:
		if c.Database.Host == "" {
			c.Database.Host = "127.0.0.1"
		}
		if c.Database.Port == 0 {
			c.Database.Port = 3306
		}
		if c.Database.User == "" {
			c.Database.User = "root"
		}
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.UserHeader == "" {
		c.Server.UserHeader = "X-User-ID"
	}
	if c.Server.EmailHeader == "" {
		c.Server.EmailHeader = "X-User-Email"
	}
	if c.Classifier.Model == "" {
		c.Classifier.Model = "gpt-4o"
	}
	if c.Classifier.APIKeyEnv == "" {
		c.Classifier.APIKeyEnv = "OPENAI_API_KEY"
	}
	if c.Classifier.Temperature == 0 {
		c.Classifier.Temperature = 0.7
	}
	if c.Classifier.TimeoutSeconds == 0 {
		c.Classifier.TimeoutSeconds = 60
	}
	if c.Quota.FreeGenerations == 0 {
		c.Quota.FreeGenerations = quota.DefaultCeiling
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// validate checks that all required fields are present and consistent.
func (c *Config) validate() error {
	var errs []string
	switch c.Database.Driver {
	case DriverSQLite, DriverMySQL:
	default:
		errs = append(errs, fmt.Sprintf("database.driver %q is not supported (want sqlite or mysql)", c.Database.Driver))
	}
	if c.Database.Driver == DriverMySQL && c.Database.Name == "" {
		errs = append(errs, "database.name is required for mysql")
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port %d is out of range", c.Server.Port))
	}
	if c.Classifier.TimeoutSeconds < 0 {
		errs = append(errs, "classifier.timeout_seconds must be positive")
	}
	if c.Classifier.Temperature < 0 || c.Classifier.Temperature > 2 {
		errs = append(errs, "classifier.temperature must be between 0 and 2")
	}
	if c.Quota.FreeGenerations < 0 {
		errs = append(errs, "quota.free_generations must not be negative")
	}
	if c.Alerts.Slack.Enabled() && c.Alerts.Slack.BotTokenEnv == "" {
		errs = append(errs, "alerts.slack.bot_token_env is required when alerts.slack.channel_id is set")
	}
	if c.Alerts.Discord.Enabled() && c.Alerts.Discord.BotTokenEnv == "" {
		errs = append(errs, "alerts.discord.bot_token_env is required when alerts.discord.channel_id is set")
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Sprintf("log.format %q is not supported (want text or json)", c.Log.Format))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

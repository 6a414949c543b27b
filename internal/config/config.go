// Package config provides configuration management for the relay.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	apperrors "tradingview-relay/internal/errors"
	"tradingview-relay/internal/logging"
)

// DefaultConfigFile is looked up in the working directory when no path is given.
const DefaultConfigFile = "tvrelay.toml"

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	Chart    ChartConfig    `mapstructure:"chart"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// ServerConfig holds HTTP listener configuration.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	MaxBodyBytes    int64         `mapstructure:"max_body_bytes"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// TelegramConfig holds Telegram Bot API configuration.
type TelegramConfig struct {
	BotToken              string        `mapstructure:"bot_token"`
	ChatID                string        `mapstructure:"chat_id"`
	APIURL                string        `mapstructure:"api_url"`
	Timeout               time.Duration `mapstructure:"timeout"`
	ButtonCaption         string        `mapstructure:"button_caption"`
	DisableWebPagePreview bool          `mapstructure:"disable_web_page_preview"`
}

// ChartConfig holds chart deeplink configuration.
type ChartConfig struct {
	BaseURL string `mapstructure:"base_url"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"` // console, json
	File       bool   `mapstructure:"file"`
	FilePath   string `mapstructure:"file_path"`
	MaxSize    int    `mapstructure:"max_size"` // megabytes
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"` // days
}

// Configured reports whether both bot token and chat id are set.
func (t TelegramConfig) Configured() bool {
	return strings.TrimSpace(t.BotToken) != "" && strings.TrimSpace(t.ChatID) != ""
}

// Addr returns the host:port listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LogConfig converts the logging section to a logging.LogConfig.
func (l LoggingConfig) LogConfig() logging.LogConfig {
	return logging.LogConfig{
		Level:      l.Level,
		Format:     l.Format,
		File:       l.File,
		FilePath:   l.FilePath,
		MaxSize:    l.MaxSize,
		MaxBackups: l.MaxBackups,
		MaxAge:     l.MaxAge,
	}
}

// envBindings maps config keys to the environment variables that override them.
// The first name of each list is the documented one.
var envBindings = map[string][]string{
	"telegram.bot_token": {"TELEGRAM_TOKEN", "TELEGRAM_BOT_TOKEN"},
	"telegram.chat_id":   {"CHAT_ID", "TELEGRAM_CHAT_ID"},
	"server.port":        {"PORT"},
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 5000)
	v.SetDefault("server.max_body_bytes", 1<<20)
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("telegram.bot_token", "")
	v.SetDefault("telegram.chat_id", "")
	v.SetDefault("telegram.api_url", "https://api.telegram.org")
	v.SetDefault("telegram.timeout", 5*time.Second)
	v.SetDefault("telegram.button_caption", "📊 Open chart on TradingView")
	v.SetDefault("telegram.disable_web_page_preview", true)

	v.SetDefault("chart.base_url", "https://www.tradingview.com/chart/")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.file", false)
	v.SetDefault("logging.file_path", "logs/tvrelay.log")
	v.SetDefault("logging.max_size", 100)
	v.SetDefault("logging.max_backups", 7)
	v.SetDefault("logging.max_age", 30)
}

// Default returns the configuration with every default applied and no
// file or environment input.
func Default() Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	_ = v.Unmarshal(&cfg)
	return cfg
}

// Load loads configuration from an optional .env file, an optional TOML file
// and the process environment, in increasing order of precedence.
// If configFile is empty, ./tvrelay.toml is used when it exists.
func Load(configFile string) (Config, error) {
	// A missing .env is the normal case in production.
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("TVRELAY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, names := range envBindings {
		args := append([]string{key}, names...)
		if err := v.BindEnv(args...); err != nil {
			return Config{}, fmt.Errorf("binding %s: %w", key, err)
		}
	}

	if err := loadConfigFile(v, configFile); err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}

	cfg.Telegram.BotToken = strings.TrimSpace(cfg.Telegram.BotToken)
	cfg.Telegram.ChatID = strings.TrimSpace(cfg.Telegram.ChatID)

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func loadConfigFile(v *viper.Viper, configFile string) error {
	explicit := configFile != ""
	if !explicit {
		if _, err := os.Stat(DefaultConfigFile); err != nil {
			return nil
		}
		configFile = DefaultConfigFile
	}

	v.SetConfigFile(configFile)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("reading %s: %w", configFile, err)
	}
	return nil
}

// Validate validates the configuration. Missing Telegram credentials are
// allowed: the relay then acknowledges alerts without forwarding them.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return apperrors.NewValidationError("server.port", c.Server.Port, "must be between 1 and 65535")
	}
	if c.Server.MaxBodyBytes <= 0 {
		return apperrors.NewValidationError("server.max_body_bytes", c.Server.MaxBodyBytes, "must be positive")
	}
	if c.Server.ShutdownTimeout <= 0 {
		return apperrors.NewValidationError("server.shutdown_timeout", c.Server.ShutdownTimeout, "must be positive")
	}
	if c.Telegram.Timeout <= 0 {
		return apperrors.NewValidationError("telegram.timeout", c.Telegram.Timeout, "must be positive")
	}
	if err := validateURL("telegram.api_url", c.Telegram.APIURL); err != nil {
		return err
	}
	if err := validateURL("chart.base_url", c.Chart.BaseURL); err != nil {
		return err
	}
	switch strings.ToLower(c.Logging.Format) {
	case "console", "json":
	default:
		return apperrors.NewValidationError("logging.format", c.Logging.Format, "must be 'console' or 'json'")
	}
	return nil
}

func validateURL(field, raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return apperrors.NewValidationError(field, raw, "must be an absolute URL")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return apperrors.NewValidationError(field, raw, "scheme must be http or https")
	}
	return nil
}

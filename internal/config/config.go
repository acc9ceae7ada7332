package config

import (
	"fmt"
	"slices"
	"time"

	"github.com/creasty/defaults"

	"github.com/godispatch/core/pkg/dispatcher"
	srvErrors "github.com/godispatch/core/pkg/errors"
)

type Configuration struct {
	Dispatcher Dispatcher     `mapstructure:"dispatcher"`
	Batch      Batch          `mapstructure:"batch"`
	Journal    Journal        `mapstructure:"journal"`
	Server     Server         `mapstructure:"server"`
	Auth       Authentication `mapstructure:"auth"`
	LogFormat  string         `mapstructure:"log-format" default:"console"`
	LogLevel   string         `mapstructure:"log-level" default:"info"`
}

type Dispatcher struct {
	Timeout         time.Duration `mapstructure:"timeout" default:"30s"`
	PrefetchCount   int           `mapstructure:"prefetch-count" default:"4"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown-timeout" default:"60s"`
}

type Batch struct {
	FlushInterval time.Duration `mapstructure:"flush-interval" default:"1s"`
	MaxItems      int           `mapstructure:"max-items" default:"100"`
	MaxRetries    int           `mapstructure:"max-retries" default:"3"`
}

type Journal struct {
	Path      string        `mapstructure:"path" default:":memory:"`
	Retention time.Duration `mapstructure:"retention" default:"0s"`
}

type Server struct {
	ServerMode string `mapstructure:"mode" default:"dev"`
	HTTPPort   int    `mapstructure:"port" default:"8000"`
}

type Authentication struct {
	Enabled    bool   `mapstructure:"enabled" default:"false"`
	SecretFile string `mapstructure:"secret-file"`
}

func NewConfigurationWithDefaults() (*Configuration, error) {
	cfg := &Configuration{}
	if err := defaults.Set(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Settings converts the dispatcher section into token settings.
func (c *Configuration) Settings() dispatcher.Settings {
	return dispatcher.Settings{
		Timeout:       c.Dispatcher.Timeout,
		PrefetchCount: c.Dispatcher.PrefetchCount,
	}
}

func (c *Configuration) Validate() error {
	if err := c.Settings().Validate(); err != nil {
		return err
	}
	if c.Dispatcher.ShutdownTimeout <= 0 {
		return srvErrors.NewInvalidSettingsError("dispatcher.shutdown-timeout", "must be greater than zero")
	}
	if c.Batch.MaxItems <= 0 {
		return srvErrors.NewInvalidSettingsError("batch.max-items", "must be greater than zero")
	}
	if c.Batch.MaxRetries < 0 {
		return srvErrors.NewInvalidSettingsError("batch.max-retries", "must not be negative")
	}
	if c.Batch.FlushInterval < 0 {
		return srvErrors.NewInvalidSettingsError("batch.flush-interval", "must not be negative")
	}
	if c.Journal.Path == "" {
		return srvErrors.NewInvalidSettingsError("journal.path", "must not be empty")
	}
	if c.Journal.Retention < 0 {
		return srvErrors.NewInvalidSettingsError("journal.retention", "must not be negative")
	}
	if !slices.Contains([]string{"dev", "prod"}, c.Server.ServerMode) {
		return srvErrors.NewInvalidSettingsError("server.mode", fmt.Sprintf("unknown mode %q", c.Server.ServerMode))
	}
	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535 {
		return srvErrors.NewInvalidSettingsError("server.port", "must be between 1 and 65535")
	}
	if c.Auth.Enabled && c.Auth.SecretFile == "" {
		return srvErrors.NewInvalidSettingsError("auth.secret-file", "required when authentication is enabled")
	}
	if !slices.Contains([]string{"console", "json"}, c.LogFormat) {
		return srvErrors.NewInvalidSettingsError("log-format", fmt.Sprintf("unknown format %q", c.LogFormat))
	}
	if !slices.Contains([]string{"debug", "info", "warn", "error"}, c.LogLevel) {
		return srvErrors.NewInvalidSettingsError("log-level", fmt.Sprintf("unknown level %q", c.LogLevel))
	}
	return nil
}

// DebugMap returns the configuration for logging. The secret file path is hidden.
func (c *Configuration) DebugMap() map[string]any {
	secret := ""
	if c.Auth.SecretFile != "" {
		secret = "(hidden)"
	}
	return map[string]any{
		"dispatcher.timeout":          c.Dispatcher.Timeout.String(),
		"dispatcher.prefetch-count":   c.Dispatcher.PrefetchCount,
		"dispatcher.shutdown-timeout": c.Dispatcher.ShutdownTimeout.String(),
		"batch.flush-interval":        c.Batch.FlushInterval.String(),
		"batch.max-items":             c.Batch.MaxItems,
		"batch.max-retries":           c.Batch.MaxRetries,
		"journal.path":                c.Journal.Path,
		"journal.retention":           c.Journal.Retention.String(),
		"server.mode":                 c.Server.ServerMode,
		"server.port":                 c.Server.HTTPPort,
		"auth.enabled":                c.Auth.Enabled,
		"auth.secret-file":            secret,
		"log-format":                  c.LogFormat,
		"log-level":                   c.LogLevel,
	}
}

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/godispatch/core/internal/config"
)

// flagKeys maps command line flags to configuration keys.
var flagKeys = map[string]string{
	"log-level":         "log-level",
	"log-format":        "log-format",
	"timeout":           "dispatcher.timeout",
	"prefetch-count":    "dispatcher.prefetch-count",
	"shutdown-timeout":  "dispatcher.shutdown-timeout",
	"flush-interval":    "batch.flush-interval",
	"max-items":         "batch.max-items",
	"max-retries":       "batch.max-retries",
	"journal-path":      "journal.path",
	"journal-retention": "journal.retention",
	"server-mode":       "server.mode",
	"port":              "server.port",
	"auth-enabled":      "auth.enabled",
	"auth-secret-file":  "auth.secret-file",
}

func NewRootCommand() *cobra.Command {
	defaults, err := config.NewConfigurationWithDefaults()
	if err != nil {
		panic(err)
	}

	cmd := &cobra.Command{
		Use:          "dispatcher",
		Short:        "Bounded-concurrency work dispatcher",
		SilenceUsage: true,
	}

	flags := cmd.PersistentFlags()
	flags.String("config", "", "Configuration file (yaml, json or toml)")
	flags.String("log-level", defaults.LogLevel, "Log level: debug, info, warn or error")
	flags.String("log-format", defaults.LogFormat, "Log format: console or json")
	registerDispatcherFlags(flags, defaults)

	cmd.AddCommand(newServeCommand(), newBenchCommand(), newStatusCommand(), newProbeCommand())
	return cmd
}

func registerDispatcherFlags(flags *pflag.FlagSet, defaults *config.Configuration) {
	flags.Duration("timeout", defaults.Dispatcher.Timeout, "Per-item deadline, 0 disables it")
	flags.Int("prefetch-count", defaults.Dispatcher.PrefetchCount, "Maximum concurrent executions")
	flags.Duration("shutdown-timeout", defaults.Dispatcher.ShutdownTimeout, "Drain budget on shutdown")
	flags.Duration("flush-interval", defaults.Batch.FlushInterval, "Failure journal flush period")
	flags.Int("max-items", defaults.Batch.MaxItems, "Failures per journal insert")
	flags.Int("max-retries", defaults.Batch.MaxRetries, "Retries of a failed journal insert")
	flags.String("journal-path", defaults.Journal.Path, "DuckDB file of the failure journal")
	flags.Duration("journal-retention", defaults.Journal.Retention, "Age after which journaled failures are deleted, 0 keeps them")
}

// loadConfiguration merges defaults, the optional config file, DISPATCHER_*
// environment variables and flags, in increasing precedence.
func loadConfiguration(cmd *cobra.Command) (*config.Configuration, error) {
	cfg, err := config.NewConfigurationWithDefaults()
	if err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetEnvPrefix("DISPATCHER")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	if path, _ := cmd.Flags().GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	for name, key := range flagKeys {
		if f := cmd.Flags().Lookup(name); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return nil, err
			}
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(format, level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}

	var zcfg zap.Config
	if format == "json" {
		zcfg = zap.NewProductionConfig()
	} else {
		zcfg = zap.NewDevelopmentConfig()
	}
	zcfg.Level = zap.NewAtomicLevelAt(lvl)
	return zcfg.Build()
}

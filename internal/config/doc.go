// Package config defines the configuration of the dispatcher service.
//
// Defaults come from struct tags applied with creasty/defaults. The CLI binds
// flags and DISPATCHER_* environment variables through viper and decodes the
// result with the mapstructure tags.
//
// # Configuration Structure
//
//	Configuration
//	├── Dispatcher     - Token settings and shutdown budget
//	├── Batch          - Failure journal batching
//	├── Journal        - DuckDB location
//	├── Server         - Admin API
//	├── Auth           - Bearer token authentication
//	├── LogFormat      - Logging format
//	└── LogLevel       - Logging verbosity
//
// # Dispatcher Configuration
//
//	┌──────────────────┬─────────┬────────────────────────────────────────┐
//	│ Field            │ Default │ Description                            │
//	├──────────────────┼─────────┼────────────────────────────────────────┤
//	│ Timeout          │ 30s     │ Per-item deadline, 0 disables it       │
//	│ PrefetchCount    │ 4       │ Concurrent executions                  │
//	│ ShutdownTimeout  │ 60s     │ Budget given to WaitCompleted on exit  │
//	└──────────────────┴─────────┴────────────────────────────────────────┘
//
// # Batch Configuration
//
//	┌───────────────┬─────────┬───────────────────────────────────────────┐
//	│ Field         │ Default │ Description                               │
//	├───────────────┼─────────┼───────────────────────────────────────────┤
//	│ FlushInterval │ 1s      │ Journal flush period, 0 flushes on demand │
//	│ MaxItems      │ 100     │ Rows per insert                           │
//	│ MaxRetries    │ 3       │ Retries of a failed insert                │
//	└───────────────┴─────────┴───────────────────────────────────────────┘
//
// # Journal, Server and Authentication
//
//	┌───────────────────┬────────────┬─────────────────────────────────────┐
//	│ Field             │ Default    │ Description                         │
//	├───────────────────┼────────────┼─────────────────────────────────────┤
//	│ Journal.Path      │ ":memory:" │ DuckDB file                         │
//	│ Server.ServerMode │ "dev"      │ "dev" or "prod" (gin release mode)  │
//	│ Server.HTTPPort   │ 8000       │ Admin API port                      │
//	│ Auth.Enabled      │ false      │ Require an HS256 bearer token       │
//	│ Auth.SecretFile   │ ""         │ File holding the signing secret     │
//	└───────────────────┴────────────┴─────────────────────────────────────┘
//
// # Debug Logging
//
// DebugMap flattens the configuration for structured logging and hides the
// secret file path:
//
//	zap.S().Infow("configuration loaded", "config", cfg.DebugMap())
package config

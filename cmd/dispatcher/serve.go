package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/godispatch/core/internal/config"
	"github.com/godispatch/core/internal/handlers"
	"github.com/godispatch/core/internal/server"
	"github.com/godispatch/core/internal/services"
	"github.com/godispatch/core/internal/store"
)

func newServeCommand() *cobra.Command {
	defaults, _ := config.NewConfigurationWithDefaults()

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the dispatcher with its admin API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfiguration(cmd)
			if err != nil {
				return err
			}

			logger, err := newLogger(cfg.LogFormat, cfg.LogLevel)
			if err != nil {
				return err
			}
			zap.ReplaceGlobals(logger)
			defer func() { _ = logger.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return serve(ctx, cfg)
		},
	}

	flags := cmd.Flags()
	flags.String("server-mode", defaults.Server.ServerMode, "Server mode: dev or prod")
	flags.Int("port", defaults.Server.HTTPPort, "Admin API port")
	flags.Bool("auth-enabled", defaults.Auth.Enabled, "Require a bearer token on /api/v1")
	flags.String("auth-secret-file", defaults.Auth.SecretFile, "File holding the HS256 signing secret")

	return cmd
}

func serve(ctx context.Context, cfg *config.Configuration) error {
	log := zap.S().Named("serve")
	log.Infow("configuration loaded", "config", cfg.DebugMap())

	db, err := store.NewDB(cfg.Journal.Path)
	if err != nil {
		return err
	}
	st := store.NewStore(db)
	defer func() { _ = st.Close() }()

	if err := st.Migrate(ctx); err != nil {
		return err
	}

	svc, err := services.NewDispatcher(cfg, st, prometheus.DefaultRegisterer)
	if err != nil {
		return err
	}

	srv, err := server.NewServer(cfg, prometheus.DefaultGatherer, handlers.New(svc).Register)
	if err != nil {
		_ = svc.Shutdown(context.Background())
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(ctx)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case runErr = <-errCh:
		log.Errorw("admin API stopped", "error", runErr)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Dispatcher.ShutdownTimeout+10*time.Second)
	defer cancel()

	if err := srv.Stop(shutdownCtx); err != nil {
		log.Warnw("admin API shutdown", "error", err)
	}
	return errors.Join(runErr, svc.Shutdown(shutdownCtx))
}

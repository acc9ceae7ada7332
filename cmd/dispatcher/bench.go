package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/godispatch/core/internal/bench"
	"github.com/godispatch/core/internal/config"
	"github.com/godispatch/core/internal/services"
	"github.com/godispatch/core/internal/store"
)

func newBenchCommand() *cobra.Command {
	var opts bench.Options

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Post synthetic work and print a summary",
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

			opts.Wait = cfg.Dispatcher.ShutdownTimeout
			return runBench(ctx, cfg, opts, cmd.OutOrStdout())
		},
	}

	flags := cmd.Flags()
	flags.IntVar(&opts.Items, "items", 1000, "Root items to post")
	flags.Float64Var(&opts.FailRate, "fail-rate", 0.05, "Probability of an item failing")
	flags.DurationVar(&opts.Delay, "delay", 10*time.Millisecond, "Mean item duration")
	flags.IntVar(&opts.Fanout, "fanout", 0, "Children posted by each root item")

	return cmd
}

func runBench(ctx context.Context, cfg *config.Configuration, opts bench.Options, out io.Writer) error {
	db, err := store.NewDB(cfg.Journal.Path)
	if err != nil {
		return err
	}
	st := store.NewStore(db)
	defer func() { _ = st.Close() }()

	if err := st.Migrate(ctx); err != nil {
		return err
	}

	svc, err := services.NewDispatcher(cfg, st, nil)
	if err != nil {
		return err
	}

	res, err := bench.Run(ctx, svc.Token(), opts)
	if shutdownErr := svc.Shutdown(context.Background()); shutdownErr != nil {
		zap.S().Named("bench").Warnw("shutdown", "error", shutdownErr)
	}
	if err != nil {
		return err
	}

	journaled, err := st.Failures().Count(context.Background())
	if err != nil {
		return err
	}

	printSummary(out, cfg, res, journaled)
	return nil
}

func printSummary(out io.Writer, cfg *config.Configuration, res *bench.Result, journaled int) {
	bold := color.New(color.Bold)
	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)
	yellow := color.New(color.FgYellow)

	_, _ = bold.Fprintf(out, "dispatcher bench (prefetch %d, timeout %s)\n",
		cfg.Dispatcher.PrefetchCount, cfg.Dispatcher.Timeout)
	fmt.Fprintf(out, "  posted      %d\n", res.Posted)
	_, _ = green.Fprintf(out, "  succeeded   %d\n", res.Succeeded)
	_, _ = red.Fprintf(out, "  failed      %d\n", res.Failed)
	_, _ = yellow.Fprintf(out, "  cancelled   %d\n", res.Cancelled)
	fmt.Fprintf(out, "  journaled   %d\n", journaled)
	fmt.Fprintf(out, "  peak        %d\n", res.ProcessPeak)
	fmt.Fprintf(out, "  slowest     %s\n", res.Slowest.Round(time.Microsecond))
	fmt.Fprintf(out, "  elapsed     %s\n", res.Elapsed.Round(time.Millisecond))
	_, _ = bold.Fprintf(out, "  throughput  %.1f items/s\n", res.Throughput())
}

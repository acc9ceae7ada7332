package main

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	v1 "github.com/godispatch/core/api/v1"
	"github.com/godispatch/core/pkg/client"
)

type remoteOptions struct {
	url   string
	token string
}

func (o *remoteOptions) register(flags *pflag.FlagSet) {
	flags.StringVar(&o.url, "url", "http://localhost:8000", "Base URL of a running dispatcher")
	flags.StringVar(&o.token, "token", "", "JWT sent as bearer token")
}

func (o *remoteOptions) client() (*client.Client, error) {
	return client.NewClient(o.url, o.token)
}

func newStatusCommand() *cobra.Command {
	var remote remoteOptions

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Print the statistics of a running dispatcher",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := remote.client()
			if err != nil {
				return err
			}

			stats, err := c.Stats(cmd.Context())
			if err != nil {
				return err
			}

			limit := 5
			failures, err := c.ListFailures(cmd.Context(), v1.GetFailuresParams{Limit: &limit})
			if err != nil {
				return err
			}

			printStatus(cmd.OutOrStdout(), stats, failures)
			return nil
		},
	}
	remote.register(cmd.Flags())

	return cmd
}

func newProbeCommand() *cobra.Command {
	var (
		remote remoteOptions
		delay  time.Duration
		fail   bool
	)

	cmd := &cobra.Command{
		Use:   "probe",
		Short: "Post a synthetic work item to a running dispatcher",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := remote.client()
			if err != nil {
				return err
			}

			d := delay.String()
			if err := c.Probe(cmd.Context(), v1.ProbeRequest{Delay: &d, Fail: &fail}); err != nil {
				return err
			}

			_, _ = color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "probe accepted (delay %s, fail %t)\n", delay, fail)
			return nil
		},
	}
	remote.register(cmd.Flags())
	cmd.Flags().DurationVar(&delay, "delay", 0, "Time the probe waits before finishing")
	cmd.Flags().BoolVar(&fail, "fail", false, "Make the probe return an error")

	return cmd
}

func printStatus(out io.Writer, stats *v1.Stats, failures *v1.FailureListResponse) {
	bold := color.New(color.Bold)
	red := color.New(color.FgRed)
	yellow := color.New(color.FgYellow)

	_, _ = bold.Fprintf(out, "dispatcher up since %s\n", stats.StartedAt.Format(time.RFC3339))
	fmt.Fprintf(out, "  running     %d/%d\n", stats.Running, stats.Limit)
	fmt.Fprintf(out, "  queued      %d\n", stats.Queued)
	fmt.Fprintf(out, "  processes   %d/%d\n", stats.ProcessCount, stats.ProcessLimit)
	fmt.Fprintf(out, "  submitted   %d\n", stats.Submitted)
	fmt.Fprintf(out, "  processed   %d\n", stats.Processed)
	_, _ = red.Fprintf(out, "  failed      %d\n", stats.Failed)
	_, _ = yellow.Fprintf(out, "  cancelled   %d\n", stats.Cancelled)
	fmt.Fprintf(out, "  journal     %d pending, %d stored\n", stats.JournalPending, failures.Total)

	for _, f := range failures.Failures {
		msg := ""
		if f.Error != nil {
			msg = *f.Error
		}
		c := red
		if f.Kind == v1.FailureKindCancelled {
			c = yellow
		}
		_, _ = c.Fprintf(out, "  %s  %-9s %6dms  %s\n", f.CreatedAt.Format(time.RFC3339), f.Kind, f.ElapsedMs, msg)
	}
}

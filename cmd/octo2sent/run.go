package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newRunCmd() *cobra.Command {
	var o overrides
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a single fetch-and-ship invocation",
		Long: "Run fetches the lookback window once and uploads it. It exits non-zero only\n" +
			"when the Octopus fetch fails; ingestion failures are logged.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(o)
			if err != nil {
				return err
			}
			defer a.close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.runOnce(ctx)
		},
	}
	cmd.Flags().IntVar(&o.hoursBack, "hours-back", 0, "lookback window in hours (overrides EVENTS_HOURS_BACK)")
	cmd.Flags().StringVar(&o.sinks, "output", "", "comma-separated sinks: sentinel, stdout, file (overrides OCTO2SENT_OUTPUT)")
	cmd.Flags().BoolVar(&o.dryRun, "dry-run", false, "print log entries to stdout instead of uploading")
	return cmd
}

func (a *app) runOnce(ctx context.Context) error {
	start := time.Now()
	logger := a.logger.With("invocation_id", uuid.NewString())

	res, err := a.pipeline.WithLogger(logger).Run(ctx, a.connCfg, a.params)
	if err != nil {
		logger.Error("invocation failed", "error", err, elapsed(start))
		return err
	}
	logger.Info("invocation complete", "fetched", res.Fetched, "ingested", res.Ingested, elapsed(start))
	return nil
}

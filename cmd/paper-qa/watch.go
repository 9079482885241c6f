// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"errors"
	"strings"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch <question>",
	Short: "Re-run a question on a schedule",
	Long: `Watch runs the full pipeline for the question on a cron schedule so
that new open-access papers land in the paper store and corpus as OpenAlex
indexes them. Papers already downloaded are skipped on every run. Watch
stops on SIGINT or SIGTERM.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().String("schedule", "@every 6h", "cron expression or descriptor")
	watchCmd.Flags().Bool("run-on-start", true, "run once immediately")

	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) (err error) {
	ctx := cmd.Context()
	question := strings.Join(args, " ")
	schedule, _ := cmd.Flags().GetString("schedule")

	p, cleanup, err := newPipeline(ctx)
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, cleanup()) }()

	run := func() {
		res, err := p.Run(ctx, question)
		if err != nil {
			return
		}
		logger.Info().
			Str("run_id", res.RunID).
			Int("downloaded", len(res.Report.Downloaded)).
			Int("failed", len(res.Report.Failed)).
			Msg(res.Report.Summary())
		if err := writeMetrics(p.Metrics); err != nil {
			logger.Warn().Err(err).Msg("metrics export failed")
		}
	}

	// Runs never overlap; a tick that fires mid-run is skipped.
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddFunc(schedule, run); err != nil {
		return err
	}

	if onStart, _ := cmd.Flags().GetBool("run-on-start"); onStart {
		run()
	}

	c.Start()
	logger.Info().Str("schedule", schedule).Msg("watching")

	<-ctx.Done()
	logger.Info().Msg("shutting down")
	<-c.Stop().Done()
	return nil
}

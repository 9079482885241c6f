package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/destiny-evidence/paper-qa/internal/acquire"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Download the PDFs of the last search's candidates",
	Long: `Sync reads candidates.yaml from the paper store and downloads every
candidate whose PDF is not already there. Whether a paper is present is
decided by the files in the store alone. Each download succeeds or fails on
its own and failures are not retried.`,
	RunE: runSync,
}

func init() {
	syncCmd.Flags().Int("concurrency", 0, "simultaneous downloads (0 = acquisition.concurrency)")

	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	m, _, err := readCandidates()
	if err != nil {
		return err
	}

	mgr := acquire.NewManager(cfg.Acquisition, logger)
	if n, _ := cmd.Flags().GetInt("concurrency"); n > 0 {
		mgr.Concurrency = n
	}

	report, err := mgr.Sync(cmd.Context(), m.Candidates, cfg.Acquisition.PaperDir)
	printReport(os.Stdout, report)
	if err != nil {
		return err
	}
	if report.HasFailures() {
		return fmt.Errorf("%d paper(s) failed acquisition", len(report.Failed))
	}
	return nil
}

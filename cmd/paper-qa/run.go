// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/destiny-evidence/paper-qa/internal/pipeline"
)

var runCmd = &cobra.Command{
	Use:   "run <question>",
	Short: "Synthesize a query, search OpenAlex, download PDFs and ingest them",
	Long: `Run answers the question "which papers should I read?" end to end. A
language model turns the question into an OpenAlex search query, the top
results with an open-access PDF are downloaded into the paper store (papers
already present are skipped), and every PDF in the store is registered with
the corpus, enriched with OpenAlex metadata where available.

Individual download failures are reported but do not fail the run.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) (err error) {
	ctx := cmd.Context()
	question := strings.Join(args, " ")

	p, cleanup, err := newPipeline(ctx)
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, cleanup()) }()

	res, err := p.Run(ctx, question)
	if err != nil {
		var se *pipeline.StageError
		if errors.As(err, &se) {
			return fmt.Errorf("run %s failed at %s: %w", res.RunID, se.Stage, se.Err)
		}
		return err
	}

	out := os.Stdout
	fmt.Fprintf(out, "Query: %s\n", res.Query.Query)
	fmt.Fprintf(out, "Candidates: %d\n", len(res.Candidates))
	printReport(out, res.Report)
	fmt.Fprintf(out, "Corpus: %d enriched, %d plain\n", res.Ingest.Enriched, res.Ingest.Plain)
	return nil
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/destiny-evidence/paper-qa/internal/acquire"
	"github.com/destiny-evidence/paper-qa/internal/search"
	"github.com/destiny-evidence/paper-qa/internal/synth"
	"github.com/destiny-evidence/paper-qa/pkg/types"
)

var searchCmd = &cobra.Command{
	Use:   "search <question>",
	Short: "Synthesize a query and list OpenAlex candidates without downloading",
	Long: `Search turns the question into an OpenAlex query and prints the top
results that have an open-access PDF, in OpenAlex relevance order. The
candidate set is written to candidates.yaml in the paper store so that sync
and ingest can use it.

Use --query to skip synthesis and search for the given text directly.`,
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().String("query", "", "search text to send to OpenAlex as is (skips the model)")
	searchCmd.Flags().Int("max-results", 0, "number of candidates (0 = search.max_results)")
	searchCmd.Flags().Bool("json", false, "output results as JSON")
	searchCmd.Flags().Bool("csl", false, "output results as CSL-YAML for reference managers")
	searchCmd.Flags().Bool("no-manifest", false, "do not write candidates.yaml")

	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	question := strings.Join(args, " ")
	text, _ := cmd.Flags().GetString("query")
	if question == "" && text == "" {
		return fmt.Errorf("provide a question or --query")
	}

	var err error
	limit, _ := cmd.Flags().GetInt("max-results")
	if limit <= 0 {
		limit = cfg.Search.MaxResults
	}

	q := types.SearchQuery{Query: text}
	if text == "" {
		if q, err = synthesize(ctx, question, limit); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Query: %s\n", q.Query)
	}

	papers, err := search.New(search.ConfigFrom(cfg.Search)).Search(ctx, q, limit)
	if err != nil {
		return err
	}

	if noManifest, _ := cmd.Flags().GetBool("no-manifest"); !noManifest {
		err := acquire.WriteManifest(cfg.Acquisition.PaperDir, acquire.Manifest{
			RunID:      uuid.NewString(),
			Query:      q.Query,
			CreatedAt:  time.Now().UTC(),
			Candidates: papers,
		})
		if err != nil {
			return err
		}
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		return search.FormatJSON(papers, os.Stdout)
	}
	if csl, _ := cmd.Flags().GetBool("csl"); csl {
		return search.FormatCSL(papers, os.Stdout)
	}
	search.FormatTable(papers, os.Stdout)
	return nil
}

// synthesize asks the configured model for a search query.
func synthesize(ctx context.Context, question string, limit int) (q types.SearchQuery, err error) {
	backend, closer, err := synth.NewBackend(ctx, cfg.Model)
	if err != nil {
		return q, err
	}
	defer func() { err = errors.Join(err, closer.Close()) }()

	return synth.New(backend, limit).Synthesize(ctx, question)
}

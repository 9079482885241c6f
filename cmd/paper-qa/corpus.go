// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/destiny-evidence/paper-qa/internal/corpus"
	"github.com/destiny-evidence/paper-qa/pkg/types"
)

var corpusCmd = &cobra.Command{
	Use:   "corpus",
	Short: "Inspect the document corpus (list, search, export)",
	Long: `Corpus reads the SQLite document corpus built by run and ingest.`,
}

// --- list subcommand ---

var corpusListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every document in the corpus",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := corpus.Open(cfg.Corpus)
		if err != nil {
			return err
		}
		defer c.Close()

		entries, err := c.List(cmd.Context())
		if err != nil {
			return err
		}
		jsonOutput, _ := cmd.Flags().GetBool("json")
		return formatEntries(entries, jsonOutput)
	},
}

// --- search subcommand ---

var corpusSearchCmd = &cobra.Command{
	Use:   "search [terms...]",
	Short: "Find documents by title, author or DOI",
	Long: `Search matches every term against document titles, authors and DOIs,
ignoring case. Results are ordered newest first.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		enriched, _ := cmd.Flags().GetBool("enriched")
		limit, _ := cmd.Flags().GetInt("limit")
		opts := corpus.QueryOptions{
			Text:         strings.Join(args, " "),
			EnrichedOnly: enriched,
			MaxResults:   limit,
		}

		c, err := corpus.Open(cfg.Corpus)
		if err != nil {
			return err
		}
		defer c.Close()

		entries, err := c.Search(cmd.Context(), opts)
		if err != nil {
			return err
		}
		jsonOutput, _ := cmd.Flags().GetBool("json")
		return formatEntries(entries, jsonOutput)
	},
}

// --- export subcommand ---

var corpusExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the corpus to YAML or JSON",
	Long: `Export writes every corpus document to export.yaml or export.json in
the corpus directory.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")

		c, err := corpus.Open(cfg.Corpus)
		if err != nil {
			return err
		}
		defer c.Close()

		var path string
		switch format {
		case "yaml", "":
			path, err = c.ExportYAML(cmd.Context())
		case "json":
			path, err = c.ExportJSON(cmd.Context())
		default:
			return fmt.Errorf("unsupported format %q: use yaml or json", format)
		}
		if err != nil {
			return err
		}
		fmt.Printf("Exported to %s\n", path)
		return nil
	},
}

func formatEntries(entries []types.CorpusEntry, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}

	if len(entries) == 0 {
		fmt.Println("No documents found.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-20s  %-50s  %-30s  %-5s  %s\n",
		"Document", "Title", "Authors", "Pages", "Enriched")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 120))

	for _, e := range entries {
		fmt.Fprintf(os.Stdout, "%-20s  %-50s  %-30s  %-5d  %t\n",
			clip(e.DocName, 20), clip(e.Title, 50), clip(strings.Join(e.Authors, ", "), 30),
			e.PageCount, e.Enriched)
	}

	fmt.Fprintf(os.Stdout, "\n%d documents\n", len(entries))
	return nil
}

func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

func init() {
	corpusListCmd.Flags().Bool("json", false, "output documents as JSON")

	corpusSearchCmd.Flags().Bool("enriched", false, "only documents registered with OpenAlex metadata")
	corpusSearchCmd.Flags().Int("limit", 0, "maximum results (0 = corpus.search_limit)")
	corpusSearchCmd.Flags().Bool("json", false, "output documents as JSON")

	corpusExportCmd.Flags().String("format", "yaml", "export format: yaml or json")

	corpusCmd.AddCommand(corpusListCmd)
	corpusCmd.AddCommand(corpusSearchCmd)
	corpusCmd.AddCommand(corpusExportCmd)

	rootCmd.AddCommand(corpusCmd)
}

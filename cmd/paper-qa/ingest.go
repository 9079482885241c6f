// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Register every PDF in the paper store with the corpus",
	Long: `Ingest walks the paper store and adds each PDF to the corpus. Papers
listed in candidates.yaml are registered with their OpenAlex title, DOI and
authors; the rest get metadata read from the PDF itself. Re-ingesting a
paper updates its entry.`,
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().Bool("plain", false, "ignore candidates.yaml and infer all metadata from the PDFs")

	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) (err error) {
	_, candidates, err := readCandidates()
	if err != nil {
		return err
	}
	if plain, _ := cmd.Flags().GetBool("plain"); plain {
		candidates = nil
	}

	c, summary, err := newIngester().Ingest(cmd.Context(), cfg.Acquisition.PaperDir, candidates, nil)
	if closer, ok := c.(io.Closer); ok {
		defer func() { err = errors.Join(err, closer.Close()) }()
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "Ingested %d document(s): %d enriched, %d plain\n",
		summary.Total(), summary.Enriched, summary.Plain)
	return nil
}

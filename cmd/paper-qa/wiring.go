// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/destiny-evidence/paper-qa/internal/acquire"
	"github.com/destiny-evidence/paper-qa/internal/corpus"
	"github.com/destiny-evidence/paper-qa/internal/ingest"
	"github.com/destiny-evidence/paper-qa/internal/observability"
	"github.com/destiny-evidence/paper-qa/internal/pipeline"
	"github.com/destiny-evidence/paper-qa/internal/search"
	"github.com/destiny-evidence/paper-qa/internal/synth"
	"github.com/destiny-evidence/paper-qa/pkg/types"
)

// openCorpus opens the configured corpus for ingestion.
func openCorpus(context.Context) (ingest.Corpus, error) {
	c, err := corpus.Open(cfg.Corpus)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func newIngester() *ingest.Ingester {
	return &ingest.Ingester{Open: openCorpus, Log: logger}
}

// newPipeline assembles a pipeline from cfg. The corpus is opened on first
// ingestion. The returned cleanup closes the model backend and any corpus
// the pipeline opened.
func newPipeline(ctx context.Context) (*pipeline.Pipeline, func() error, error) {
	backend, closer, err := synth.NewBackend(ctx, cfg.Model)
	if err != nil {
		return nil, nil, err
	}

	p := &pipeline.Pipeline{
		Synth:    synth.New(backend, cfg.Search.MaxResults),
		Search:   search.New(search.ConfigFrom(cfg.Search)),
		Download: acquire.NewManager(cfg.Acquisition, logger),
		Ingest:   newIngester(),
		PaperDir: cfg.Acquisition.PaperDir,
		Limit:    cfg.Search.MaxResults,
		Log:      logger,
		Metrics:  observability.NewMetrics(),
	}

	cleanup := func() error {
		errs := []error{closer.Close()}
		if c, ok := p.Corpus.(io.Closer); ok {
			errs = append(errs, c.Close())
		}
		errs = append(errs, writeMetrics(p.Metrics))
		return errors.Join(errs...)
	}
	return p, cleanup, nil
}

// writeMetrics exports m to the configured metrics file, if any.
func writeMetrics(m *observability.Metrics) error {
	if cfg.Metrics.File == "" || m == nil {
		return nil
	}
	if err := m.WriteTextfile(cfg.Metrics.File); err != nil {
		return fmt.Errorf("writing metrics: %w", err)
	}
	return nil
}

// printReport writes the batch summary and one line per failure.
func printReport(w io.Writer, r acquire.Report) {
	for _, key := range r.Failed {
		fmt.Fprintf(w, "  FAILED %s: %v\n", key, r.Errors[key])
	}
	fmt.Fprintln(w, r.Summary())
}

// readCandidates returns the candidate set of the last search, keyed by
// identifier. A missing manifest yields an empty map.
func readCandidates() (acquire.Manifest, map[string]types.CandidatePaper, error) {
	m, err := acquire.ReadManifest(cfg.Acquisition.PaperDir)
	if err != nil {
		return acquire.Manifest{}, nil, err
	}
	if len(m.Candidates) == 0 {
		fmt.Fprintf(os.Stderr, "No candidate manifest in %s\n", cfg.Acquisition.PaperDir)
	}
	return m, acquire.ByKey(m.Candidates), nil
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline wires query synthesis, search, download and ingestion
// into a single run for one question.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/destiny-evidence/paper-qa/internal/acquire"
	"github.com/destiny-evidence/paper-qa/internal/ingest"
	"github.com/destiny-evidence/paper-qa/internal/observability"
	"github.com/destiny-evidence/paper-qa/pkg/types"
)

// Stage names a pipeline step.
type Stage string

const (
	StageSynthesize Stage = "synthesize"
	StageSearch     Stage = "search"
	StageDownload   Stage = "download"
	StageManifest   Stage = "manifest"
	StageIngest     Stage = "ingest"
)

// StageError records the stage at which a run stopped.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("%s: %v", e.Stage, e.Err) }

func (e *StageError) Unwrap() error { return e.Err }

// Synthesizer turns a question into a search query.
type Synthesizer interface {
	Synthesize(ctx context.Context, question string) (types.SearchQuery, error)
}

// Searcher returns candidate papers for a query.
type Searcher interface {
	Search(ctx context.Context, query types.SearchQuery, limit int) ([]types.CandidatePaper, error)
}

// Downloader stores candidate PDFs.
type Downloader interface {
	Sync(ctx context.Context, candidates []types.CandidatePaper, store string) (acquire.Report, error)
}

// Pipeline holds the collaborators for a run. Corpus may be nil, in which
// case the Ingester's Open factory supplies one on first use.
type Pipeline struct {
	Synth    Synthesizer
	Search   Searcher
	Download Downloader
	Ingest   *ingest.Ingester
	Corpus   ingest.Corpus

	// PaperDir is the paper store.
	PaperDir string

	// Limit is the number of candidates requested from search.
	Limit int

	Log     zerolog.Logger
	Metrics *observability.Metrics

	newRunID func() string
}

// Fetch is the outcome of FetchRelevantPapers.
type Fetch struct {
	RunID string
	Query types.SearchQuery

	// Candidates lists the search results in service order.
	Candidates []types.CandidatePaper

	Report acquire.Report
}

// ByKey indexes the candidates by normalized identifier.
func (f Fetch) ByKey() map[string]types.CandidatePaper {
	return acquire.ByKey(f.Candidates)
}

// Result is the outcome of Run.
type Result struct {
	Fetch
	Ingest ingest.Summary

	// Corpus is the corpus the papers were registered with.
	Corpus ingest.Corpus
}

// FetchRelevantPapers synthesizes a query for question, searches for it and
// downloads every candidate not already in the paper store. Synthesis and
// search failures abort with a *StageError; download failures are recorded
// per candidate in the report.
func (p *Pipeline) FetchRelevantPapers(ctx context.Context, question string) (Fetch, error) {
	f := Fetch{RunID: p.runID()}
	log := observability.WithRun(p.Log, f.RunID, question)
	return f, p.fetch(ctx, question, &f, log)
}

func (p *Pipeline) fetch(ctx context.Context, question string, f *Fetch, log zerolog.Logger) error {
	err := p.stage(StageSynthesize, log, func(log zerolog.Logger) error {
		q, err := p.Synth.Synthesize(ctx, question)
		if err != nil {
			return err
		}
		f.Query = q
		log.Info().Str("query", q.Query).Msg("query synthesized")
		return nil
	})
	if err != nil {
		return err
	}

	err = p.stage(StageSearch, log, func(log zerolog.Logger) error {
		cands, err := p.Search.Search(ctx, f.Query, p.Limit)
		if err != nil {
			return err
		}
		f.Candidates = cands
		if p.Metrics != nil {
			p.Metrics.CandidatesFound.Observe(float64(len(cands)))
		}
		log.Info().Int("candidates", len(cands)).Msg("search complete")
		return nil
	})
	if err != nil {
		return err
	}

	return p.stage(StageDownload, log, func(log zerolog.Logger) error {
		report, err := p.Download.Sync(ctx, f.Candidates, p.PaperDir)
		f.Report = report
		p.recordDownloads(report)
		log.Info().
			Int("downloaded", len(report.Downloaded)).
			Int("skipped", len(report.Skipped)).
			Int("failed", len(report.Failed)).
			Msg("download complete")
		return err
	})
}

// Run performs FetchRelevantPapers, records the candidate set in the paper
// store's manifest and registers every stored PDF with the corpus.
func (p *Pipeline) Run(ctx context.Context, question string) (Result, error) {
	res := Result{Fetch: Fetch{RunID: p.runID()}}
	log := observability.WithRun(p.Log, res.RunID, question)

	err := p.run(ctx, question, &res, log)
	p.recordRun(err)
	if err != nil {
		log.Error().Err(err).Msg("run failed")
		return res, err
	}
	log.Info().
		Int("enriched", res.Ingest.Enriched).
		Int("plain", res.Ingest.Plain).
		Msg("run complete")
	return res, nil
}

func (p *Pipeline) run(ctx context.Context, question string, res *Result, log zerolog.Logger) error {
	if err := p.fetch(ctx, question, &res.Fetch, log); err != nil {
		return err
	}

	err := p.stage(StageManifest, log, func(zerolog.Logger) error {
		return acquire.WriteManifest(p.PaperDir, acquire.Manifest{
			RunID:      res.RunID,
			Query:      res.Query.Query,
			CreatedAt:  time.Now().UTC(),
			Candidates: res.Candidates,
		})
	})
	if err != nil {
		return err
	}

	return p.stage(StageIngest, log, func(zerolog.Logger) error {
		c, summary, err := p.Ingest.Ingest(ctx, p.PaperDir, res.ByKey(), p.Corpus)
		res.Ingest = summary
		res.Corpus = c
		if c != nil {
			p.Corpus = c
		}
		if p.Metrics != nil {
			p.Metrics.Ingested.WithLabelValues("enriched").Add(float64(summary.Enriched))
			p.Metrics.Ingested.WithLabelValues("plain").Add(float64(summary.Plain))
		}
		return err
	})
}

// stage runs fn with a stage-scoped logger, timing it and wrapping any error
// in a *StageError.
func (p *Pipeline) stage(s Stage, log zerolog.Logger, fn func(zerolog.Logger) error) error {
	start := time.Now()
	err := fn(observability.WithStage(log, string(s)))
	if p.Metrics != nil {
		p.Metrics.StageDuration.WithLabelValues(string(s)).Observe(time.Since(start).Seconds())
	}
	if err == nil {
		return nil
	}
	if p.Metrics != nil {
		p.Metrics.StageFailures.WithLabelValues(string(s)).Inc()
	}
	return &StageError{Stage: s, Err: err}
}

func (p *Pipeline) recordDownloads(r acquire.Report) {
	if p.Metrics == nil {
		return
	}
	p.Metrics.Downloads.WithLabelValues("downloaded").Add(float64(len(r.Downloaded)))
	p.Metrics.Downloads.WithLabelValues("skipped").Add(float64(len(r.Skipped)))
	p.Metrics.Downloads.WithLabelValues("failed").Add(float64(len(r.Failed)))
	for _, err := range r.Errors {
		var de *acquire.DownloadError
		if errors.As(err, &de) {
			p.Metrics.DownloadFailures.WithLabelValues(string(de.Kind())).Inc()
		}
	}
}

func (p *Pipeline) recordRun(err error) {
	if p.Metrics == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	p.Metrics.Runs.WithLabelValues(outcome).Inc()
}

func (p *Pipeline) runID() string {
	if p.newRunID != nil {
		return p.newRunID()
	}
	return uuid.NewString()
}

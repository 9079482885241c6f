// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ingest registers the PDFs of a paper store with a document corpus,
// attaching search metadata where the candidate set knows the paper.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/destiny-evidence/paper-qa/pkg/types"
)

// ErrNoCorpus is returned when no corpus is supplied and none can be opened.
var ErrNoCorpus = errors.New("ingest: no corpus")

// Corpus is the registration surface of a document corpus. A nil meta asks
// the corpus to infer metadata itself.
type Corpus interface {
	Add(ctx context.Context, path string, meta *types.Metadata) (types.CorpusEntry, error)
}

// Summary counts documents registered by one Ingest call.
type Summary struct {
	Enriched int
	Plain    int
	Entries  []types.CorpusEntry
}

// Total returns the number of documents registered.
func (s Summary) Total() int { return s.Enriched + s.Plain }

// Ingester walks a paper store and registers each PDF.
type Ingester struct {
	// Open creates a corpus when Ingest is called without one.
	Open func(ctx context.Context) (Corpus, error)

	Log zerolog.Logger
}

// Ingest registers every *.pdf under store (recursively, extension matched
// case-insensitively) with corpus and returns the corpus it used. A PDF whose
// stem is a key of candidates is added with that candidate's title, DOI and
// author names; any other PDF is added without metadata. Documents are
// named by file stem, so when several files share a stem only the first in
// walk order is registered and the rest are logged and skipped. The first corpus
// error stops the walk and is returned wrapped with the file path.
func (in *Ingester) Ingest(ctx context.Context, store string, candidates map[string]types.CandidatePaper, corpus Corpus) (Corpus, Summary, error) {
	var summary Summary

	if corpus == nil {
		if in.Open == nil {
			return nil, summary, ErrNoCorpus
		}
		c, err := in.Open(ctx)
		if err != nil {
			return nil, summary, fmt.Errorf("opening corpus: %w", err)
		}
		corpus = c
	}

	seen := make(map[string]string)
	err := filepath.WalkDir(store, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".pdf") {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		stem := strings.TrimSuffix(d.Name(), filepath.Ext(d.Name()))
		if first, dup := seen[stem]; dup {
			in.Log.Warn().Str("doc", stem).Str("path", path).Str("registered", first).
				Msg("skipped: document name already registered from another file")
			return nil
		}
		seen[stem] = path

		var meta *types.Metadata
		if c, ok := candidates[stem]; ok {
			meta = c.Metadata()
		}

		entry, err := corpus.Add(ctx, path, meta)
		if err != nil {
			return fmt.Errorf("registering %s: %w", path, err)
		}

		if meta != nil {
			summary.Enriched++
		} else {
			summary.Plain++
		}
		summary.Entries = append(summary.Entries, entry)
		in.Log.Debug().Str("doc", entry.DocName).Bool("enriched", meta != nil).Msg("registered")
		return nil
	})
	if err != nil {
		return corpus, summary, err
	}

	in.Log.Info().Int("enriched", summary.Enriched).Int("plain", summary.Plain).Msg("ingest complete")
	return corpus, summary, nil
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/destiny-evidence/paper-qa/internal/corpus"
	"github.com/destiny-evidence/paper-qa/pkg/types"
)

type addCall struct {
	path string
	meta *types.Metadata
}

type fakeCorpus struct {
	calls  []addCall
	failOn string
	err    error
}

func (f *fakeCorpus) Add(_ context.Context, path string, meta *types.Metadata) (types.CorpusEntry, error) {
	if f.failOn != "" && filepath.Base(path) == f.failOn {
		return types.CorpusEntry{}, f.err
	}
	f.calls = append(f.calls, addCall{path: path, meta: meta})
	stem := filepath.Base(path)
	return types.CorpusEntry{DocName: stem[:len(stem)-len(filepath.Ext(stem))], Path: path, Enriched: meta != nil}, nil
}

func (f *fakeCorpus) byName() map[string]*types.Metadata {
	out := make(map[string]*types.Metadata)
	for _, c := range f.calls {
		out[filepath.Base(c.path)] = c.meta
	}
	return out
}

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4"), 0o644))
}

func candidateX123() types.CandidatePaper {
	return types.CandidatePaper{
		ID:    "https://openalex.org/X123",
		Title: "T",
		DOI:   "10.1/x",
		Authorships: []types.Authorship{
			{Author: types.AuthorRef{DisplayName: "A"}},
			{Author: types.AuthorRef{DisplayName: "B"}},
		},
	}
}

func TestIngestEnrichesKnownStems(t *testing.T) {
	store := t.TempDir()
	touch(t, filepath.Join(store, "X123.pdf"))
	touch(t, filepath.Join(store, "Y9.pdf"))

	fc := &fakeCorpus{}
	in := &Ingester{Log: zerolog.Nop()}
	cands := map[string]types.CandidatePaper{"X123": candidateX123()}

	got, summary, err := in.Ingest(context.Background(), store, cands, fc)
	require.NoError(t, err)
	assert.Same(t, fc, got)
	assert.Equal(t, 1, summary.Enriched)
	assert.Equal(t, 1, summary.Plain)
	assert.Equal(t, 2, summary.Total())

	byName := fc.byName()
	require.NotNil(t, byName["X123.pdf"])
	assert.Equal(t, types.Metadata{Title: "T", DOI: "10.1/x", Authors: []string{"A", "B"}}, *byName["X123.pdf"])
	assert.Nil(t, byName["Y9.pdf"])
}

func TestIngestWithoutCandidates(t *testing.T) {
	store := t.TempDir()
	touch(t, filepath.Join(store, "X123.pdf"))

	fc := &fakeCorpus{}
	_, summary, err := (&Ingester{Log: zerolog.Nop()}).Ingest(context.Background(), store, nil, fc)
	require.NoError(t, err)

	require.Len(t, fc.calls, 1)
	assert.Nil(t, fc.calls[0].meta)
	assert.Equal(t, 0, summary.Enriched)
	assert.Equal(t, 1, summary.Plain)
}

func TestIngestWalksRecursivelyAndMatchesExtension(t *testing.T) {
	store := t.TempDir()
	touch(t, filepath.Join(store, "a.pdf"))
	touch(t, filepath.Join(store, "nested", "deeper", "b.PDF"))
	touch(t, filepath.Join(store, "notes.txt"))
	touch(t, filepath.Join(store, ".download-1.tmp"))
	touch(t, filepath.Join(store, "candidates.yaml"))

	fc := &fakeCorpus{}
	_, _, err := (&Ingester{Log: zerolog.Nop()}).Ingest(context.Background(), store, nil, fc)
	require.NoError(t, err)

	var names []string
	for _, c := range fc.calls {
		names = append(names, filepath.Base(c.path))
	}
	sort.Strings(names)
	assert.Equal(t, []string{"a.pdf", "b.PDF"}, names)
}

func TestIngestDuplicateStemRegisteredOnce(t *testing.T) {
	store := t.TempDir()
	touch(t, filepath.Join(store, "W1.pdf"))
	touch(t, filepath.Join(store, "sub", "W1.PDF"))
	touch(t, filepath.Join(store, "sub", "W2.pdf"))

	fc := &fakeCorpus{}
	_, summary, err := (&Ingester{Log: zerolog.Nop()}).Ingest(context.Background(), store, nil, fc)
	require.NoError(t, err)

	require.Len(t, fc.calls, 2)
	assert.Equal(t, filepath.Join(store, "W1.pdf"), fc.calls[0].path)
	assert.Equal(t, filepath.Join(store, "sub", "W2.pdf"), fc.calls[1].path)
	assert.Equal(t, 2, summary.Total())
}

func TestIngestPropagatesCorpusError(t *testing.T) {
	store := t.TempDir()
	touch(t, filepath.Join(store, "bad.pdf"))

	boom := errors.New("disk full")
	fc := &fakeCorpus{failOn: "bad.pdf", err: boom}
	_, _, err := (&Ingester{Log: zerolog.Nop()}).Ingest(context.Background(), store, nil, fc)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "bad.pdf")
}

func TestIngestNilCorpus(t *testing.T) {
	store := t.TempDir()
	touch(t, filepath.Join(store, "W1.pdf"))

	_, _, err := (&Ingester{Log: zerolog.Nop()}).Ingest(context.Background(), store, nil, nil)
	assert.ErrorIs(t, err, ErrNoCorpus)

	fc := &fakeCorpus{}
	in := &Ingester{
		Open: func(context.Context) (Corpus, error) { return fc, nil },
		Log:  zerolog.Nop(),
	}
	got, summary, err := in.Ingest(context.Background(), store, nil, nil)
	require.NoError(t, err)
	assert.Same(t, fc, got)
	assert.Equal(t, 1, summary.Plain)
}

func TestIngestMissingStore(t *testing.T) {
	_, _, err := (&Ingester{Log: zerolog.Nop()}).Ingest(context.Background(), filepath.Join(t.TempDir(), "absent"), nil, &fakeCorpus{})
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestIngestCancelled(t *testing.T) {
	store := t.TempDir()
	touch(t, filepath.Join(store, "W1.pdf"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	fc := &fakeCorpus{}
	_, _, err := (&Ingester{Log: zerolog.Nop()}).Ingest(ctx, store, nil, fc)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, fc.calls)
}

func TestIngestIntoSQLiteCorpus(t *testing.T) {
	store := t.TempDir()
	touch(t, filepath.Join(store, "X123.pdf"))
	touch(t, filepath.Join(store, "Y9.pdf"))

	c, err := corpus.Open(types.CorpusConfig{Dir: t.TempDir()})
	require.NoError(t, err)
	defer c.Close()

	cands := map[string]types.CandidatePaper{"X123": candidateX123()}
	_, _, err = (&Ingester{Log: zerolog.Nop()}).Ingest(context.Background(), store, cands, c)
	require.NoError(t, err)

	x, err := c.Get(context.Background(), "X123")
	require.NoError(t, err)
	assert.True(t, x.Enriched)
	assert.Equal(t, "T", x.Title)
	assert.Equal(t, []string{"A", "B"}, x.Authors)

	y, err := c.Get(context.Background(), "Y9")
	require.NoError(t, err)
	assert.False(t, y.Enriched)
	assert.Equal(t, "Y9", y.Title)
}

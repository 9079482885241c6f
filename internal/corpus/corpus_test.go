package corpus

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/destiny-evidence/paper-qa/pkg/types"
)

// --- test helpers ---

func testCorpus(t *testing.T) *Corpus {
	t.Helper()
	c, err := Open(types.CorpusConfig{Dir: filepath.Join(t.TempDir(), "corpus"), SearchLimit: 20})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func writePDF(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("%PDF-1.4 not really a pdf"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestAddWithMetadata(t *testing.T) {
	c := testCorpus(t)
	c.inspect = func(string) (pdfInfo, error) {
		t.Error("inspect called for enriched add")
		return pdfInfo{}, nil
	}
	path := writePDF(t, t.TempDir(), "X123.pdf")

	meta := &types.Metadata{Title: "Gene Drives", DOI: "https://doi.org/10.1/gd", Authors: []string{"A. Burt", "R. Trivers"}}
	e, err := c.Add(context.Background(), path, meta)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}

	if e.DocName != "X123" || e.Title != "Gene Drives" || e.DOI != meta.DOI || !e.Enriched {
		t.Errorf("entry = %+v", e)
	}
	if len(e.Authors) != 2 || e.Authors[1] != "R. Trivers" {
		t.Errorf("Authors = %v", e.Authors)
	}
	if e.AddedAt.IsZero() {
		t.Error("AddedAt not set")
	}
}

func TestAddWithoutMetadataInfers(t *testing.T) {
	c := testCorpus(t)
	c.inspect = func(string) (pdfInfo, error) {
		return pdfInfo{Title: "Embedded Title", Author: "Ada Lovelace; Charles Babbage", PageCount: 12}, nil
	}
	path := writePDF(t, t.TempDir(), "W9.pdf")

	e, err := c.Add(context.Background(), path, nil)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if e.Enriched {
		t.Error("inferred entry marked enriched")
	}
	if e.Title != "Embedded Title" || e.PageCount != 12 {
		t.Errorf("entry = %+v", e)
	}
	if len(e.Authors) != 2 || e.Authors[0] != "Ada Lovelace" {
		t.Errorf("Authors = %v", e.Authors)
	}
}

func TestAddUnparseablePDFFallsBackToStem(t *testing.T) {
	c := testCorpus(t)
	path := writePDF(t, t.TempDir(), "W404.pdf")

	e, err := c.Add(context.Background(), path, nil)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if e.Title != "W404" {
		t.Errorf("Title = %q, want file stem", e.Title)
	}
	if e.Authors == nil || len(e.Authors) != 0 {
		t.Errorf("Authors = %#v, want empty", e.Authors)
	}
}

func TestAddMissingFile(t *testing.T) {
	c := testCorpus(t)
	_, err := c.Add(context.Background(), filepath.Join(t.TempDir(), "nope.pdf"), nil)
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("err = %v, want fs.ErrNotExist", err)
	}
}

func TestAddUpsertKeepsAddedAt(t *testing.T) {
	c := testCorpus(t)
	first := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	c.now = func() time.Time { return first }
	path := writePDF(t, t.TempDir(), "W1.pdf")

	if _, err := c.Add(context.Background(), path, nil); err != nil {
		t.Fatal(err)
	}
	c.now = func() time.Time { return first.Add(time.Hour) }
	e, err := c.Add(context.Background(), path, &types.Metadata{Title: "Better"})
	if err != nil {
		t.Fatal(err)
	}

	if e.Title != "Better" || !e.Enriched {
		t.Errorf("entry not updated: %+v", e)
	}
	if !e.AddedAt.Equal(first) {
		t.Errorf("AddedAt = %v, want %v", e.AddedAt, first)
	}
	if n, _ := c.Count(context.Background()); n != 1 {
		t.Errorf("Count = %d, want 1", n)
	}
}

func TestPlainAddKeepsEnrichedRecord(t *testing.T) {
	c := testCorpus(t)
	c.inspect = func(string) (pdfInfo, error) {
		return pdfInfo{Title: "Info Title", Author: "Someone", PageCount: 3}, nil
	}
	path := writePDF(t, t.TempDir(), "W1.pdf")
	meta := &types.Metadata{Title: "Real Title", DOI: "https://doi.org/10.1/w1", Authors: []string{"Ada"}}

	if _, err := c.Add(context.Background(), path, meta); err != nil {
		t.Fatal(err)
	}
	e, err := c.Add(context.Background(), path, nil)
	if err != nil {
		t.Fatal(err)
	}

	if !e.Enriched || e.Title != "Real Title" || e.DOI != meta.DOI {
		t.Errorf("plain re-add replaced enriched record: %+v", e)
	}
	if len(e.Authors) != 1 || e.Authors[0] != "Ada" {
		t.Errorf("Authors = %v, want [Ada]", e.Authors)
	}

	stored, err := c.Get(context.Background(), "W1")
	if err != nil {
		t.Fatal(err)
	}
	if !stored.Enriched || stored.Title != "Real Title" {
		t.Errorf("stored record lost enrichment: %+v", stored)
	}
}

func TestEnrichedAddReplacesEnrichedRecord(t *testing.T) {
	c := testCorpus(t)
	path := writePDF(t, t.TempDir(), "W1.pdf")

	if _, err := c.Add(context.Background(), path, &types.Metadata{Title: "Old"}); err != nil {
		t.Fatal(err)
	}
	e, err := c.Add(context.Background(), path, &types.Metadata{Title: "New", Authors: []string{"Bo"}})
	if err != nil {
		t.Fatal(err)
	}
	if e.Title != "New" || !e.Enriched {
		t.Errorf("entry = %+v, want title New", e)
	}
}

func TestGetNotFound(t *testing.T) {
	c := testCorpus(t)
	if _, err := c.Get(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestSearch(t *testing.T) {
	c := testCorpus(t)
	dir := t.TempDir()
	ctx := context.Background()

	docs := map[string]*types.Metadata{
		"W1": {Title: "Malaria vaccine trial", Authors: []string{"Jane Doe"}, DOI: "https://doi.org/10.1/mal"},
		"W2": {Title: "Sickle cell gene therapy", Authors: []string{"John Roe"}},
		"W3": {Title: "100% coverage_study", Authors: []string{"Jane Smith"}},
	}
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, name := range []string{"W1", "W2", "W3"} {
		c.now = func() time.Time { return base.Add(time.Duration(i) * time.Minute) }
		if _, err := c.Add(ctx, writePDF(t, dir, name+".pdf"), docs[name]); err != nil {
			t.Fatal(err)
		}
	}
	c.now = time.Now
	if _, err := c.Add(ctx, writePDF(t, dir, "plain.pdf"), nil); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		opts QueryOptions
		want []string
	}{
		{"title term", QueryOptions{Text: "malaria"}, []string{"W1"}},
		{"case insensitive", QueryOptions{Text: "SICKLE"}, []string{"W2"}},
		{"author", QueryOptions{Text: "jane"}, []string{"W3", "W1"}},
		{"all terms required", QueryOptions{Text: "jane vaccine"}, []string{"W1"}},
		{"doi", QueryOptions{Text: "10.1/mal"}, []string{"W1"}},
		{"like wildcards escaped", QueryOptions{Text: "0%"}, []string{"W3"}},
		{"underscore escaped", QueryOptions{Text: "e_s"}, []string{"W3"}},
		{"no match", QueryOptions{Text: "quantum"}, nil},
		{"enriched only", QueryOptions{EnrichedOnly: true, MaxResults: 10}, []string{"W3", "W2", "W1"}},
		{"limit", QueryOptions{Text: "jane", MaxResults: 1}, []string{"W3"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.Search(ctx, tt.opts)
			if err != nil {
				t.Fatal(err)
			}
			var names []string
			for _, e := range got {
				names = append(names, e.DocName)
			}
			if len(names) != len(tt.want) {
				t.Fatalf("got %v, want %v", names, tt.want)
			}
			for i := range names {
				if names[i] != tt.want[i] {
					t.Errorf("got %v, want %v", names, tt.want)
					break
				}
			}
		})
	}
}

func TestExport(t *testing.T) {
	c := testCorpus(t)
	ctx := context.Background()
	dir := t.TempDir()
	c.Add(ctx, writePDF(t, dir, "W2.pdf"), &types.Metadata{Title: "Two", Authors: []string{"B"}})
	c.Add(ctx, writePDF(t, dir, "W1.pdf"), &types.Metadata{Title: "One"})

	yamlPath, err := c.ExportYAML(ctx)
	if err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(yamlPath)
	var fromYAML types.CorpusExport
	if err := yaml.Unmarshal(data, &fromYAML); err != nil {
		t.Fatal(err)
	}
	if len(fromYAML.Documents) != 2 || fromYAML.Documents[0].DocName != "W1" {
		t.Errorf("yaml export = %+v", fromYAML)
	}

	jsonPath, err := c.ExportJSON(ctx)
	if err != nil {
		t.Fatal(err)
	}
	data, _ = os.ReadFile(jsonPath)
	var fromJSON types.CorpusExport
	if err := json.Unmarshal(data, &fromJSON); err != nil {
		t.Fatal(err)
	}
	if len(fromJSON.Documents) != 2 || fromJSON.Documents[1].Title != "Two" {
		t.Errorf("json export = %+v", fromJSON)
	}
}

func TestSplitAuthors(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"", 0},
		{"Solo Author", 1},
		{"A; B; C", 3},
		{"Alice and Bob", 2},
		{" ; ", 0},
	}
	for _, tt := range tests {
		if got := splitAuthors(tt.in); len(got) != tt.want {
			t.Errorf("splitAuthors(%q) = %v, want %d names", tt.in, got, tt.want)
		}
	}
}

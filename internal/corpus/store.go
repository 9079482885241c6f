// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package corpus is the document corpus papers are registered into. It keeps
// one row per PDF in a SQLite database and fills in bibliographic metadata
// from the PDF itself when the caller has none.
package corpus

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/destiny-evidence/paper-qa/pkg/types"
)

const dbFile = "corpus.db"

// ErrNotFound is returned by Get for an unknown document name.
var ErrNotFound = errors.New("corpus: document not found")

// Corpus manages the corpus SQLite database.
type Corpus struct {
	db          *sql.DB
	dir         string
	searchLimit int

	// inspect reads metadata from a PDF. Replaced in tests.
	inspect func(path string) (pdfInfo, error)
	now     func() time.Time
}

// Open opens or creates the corpus database at cfg.Dir/corpus.db.
func Open(cfg types.CorpusConfig) (*Corpus, error) {
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating corpus directory: %w", err)
	}

	dbPath := filepath.Join(cfg.Dir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	limit := cfg.SearchLimit
	if limit <= 0 {
		limit = 20
	}

	c := &Corpus{
		db:          db,
		dir:         cfg.Dir,
		searchLimit: limit,
		inspect:     inspectPDF,
		now:         time.Now,
	}
	if err := c.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return c, nil
}

// Close releases the database connection.
func (c *Corpus) Close() error {
	return c.db.Close()
}

// Dir returns the directory holding the database and exports.
func (c *Corpus) Dir() string { return c.dir }

func (c *Corpus) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS documents (
			doc_name TEXT PRIMARY KEY,
			path TEXT NOT NULL,
			title TEXT NOT NULL,
			doi TEXT,
			authors TEXT,
			enriched INTEGER NOT NULL DEFAULT 0,
			page_count INTEGER,
			added_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_documents_doi ON documents(doi)`,
		`CREATE INDEX IF NOT EXISTS idx_documents_added_at ON documents(added_at)`,
	}
	for _, stmt := range statements {
		if _, err := c.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Add registers the PDF at path. With meta the record is stored as given and
// marked enriched. Without it the title, authors and page count are read from
// the PDF's info dictionary, falling back to the file stem as title.
// Adding a path whose stem is already registered replaces that record but
// keeps its original added_at. A plain add never overwrites an enriched
// record; the existing entry is returned unchanged.
func (c *Corpus) Add(ctx context.Context, path string, meta *types.Metadata) (types.CorpusEntry, error) {
	info, err := os.Stat(path)
	if err != nil {
		return types.CorpusEntry{}, fmt.Errorf("adding %s: %w", path, err)
	}
	if info.IsDir() {
		return types.CorpusEntry{}, fmt.Errorf("adding %s: is a directory", path)
	}

	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	entry := types.CorpusEntry{
		DocName: stem,
		Path:    path,
		AddedAt: c.now().UTC(),
	}

	if meta != nil {
		entry.Title = meta.Title
		entry.DOI = meta.DOI
		entry.Authors = meta.Authors
		entry.Enriched = true
	} else {
		c.infer(&entry)
	}
	if strings.TrimSpace(entry.Title) == "" {
		entry.Title = stem
	}
	if entry.Authors == nil {
		entry.Authors = []string{}
	}

	authorsJSON, err := json.Marshal(entry.Authors)
	if err != nil {
		return types.CorpusEntry{}, fmt.Errorf("marshaling authors: %w", err)
	}

	_, err = c.db.ExecContext(ctx,
		`INSERT INTO documents (doc_name, path, title, doi, authors, enriched, page_count, added_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(doc_name) DO UPDATE SET
			path = excluded.path,
			title = excluded.title,
			doi = excluded.doi,
			authors = excluded.authors,
			enriched = excluded.enriched,
			page_count = excluded.page_count
		WHERE excluded.enriched = 1 OR documents.enriched = 0`,
		entry.DocName, entry.Path, entry.Title, entry.DOI, string(authorsJSON),
		boolToInt(entry.Enriched), entry.PageCount, entry.AddedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return types.CorpusEntry{}, fmt.Errorf("inserting %s: %w", stem, err)
	}

	return c.Get(ctx, stem)
}

// Get returns the document registered under docName.
func (c *Corpus) Get(ctx context.Context, docName string) (types.CorpusEntry, error) {
	row := c.db.QueryRowContext(ctx, selectColumns+` WHERE doc_name = ?`, docName)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return types.CorpusEntry{}, fmt.Errorf("%w: %s", ErrNotFound, docName)
	}
	return e, err
}

// Count returns the number of registered documents.
func (c *Corpus) Count(ctx context.Context) (int, error) {
	var n int
	if err := c.db.QueryRowContext(ctx, `SELECT count(*) FROM documents`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting documents: %w", err)
	}
	return n, nil
}

const selectColumns = `SELECT doc_name, path, title, COALESCE(doi, ''), COALESCE(authors, '[]'),
	enriched, COALESCE(page_count, 0), added_at FROM documents`

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (types.CorpusEntry, error) {
	var (
		e           types.CorpusEntry
		authorsJSON string
		enriched    int
		addedAt     string
	)
	if err := s.Scan(&e.DocName, &e.Path, &e.Title, &e.DOI, &authorsJSON, &enriched, &e.PageCount, &addedAt); err != nil {
		return e, err
	}
	if err := json.Unmarshal([]byte(authorsJSON), &e.Authors); err != nil {
		return e, fmt.Errorf("decoding authors of %s: %w", e.DocName, err)
	}
	e.Enriched = enriched != 0
	if t, err := time.Parse(time.RFC3339Nano, addedAt); err == nil {
		e.AddedAt = t
	}
	return e, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

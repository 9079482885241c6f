// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package corpus

import (
	"context"
	"fmt"
	"strings"

	"github.com/destiny-evidence/paper-qa/pkg/types"
)

// QueryOptions holds parameters for corpus queries.
type QueryOptions struct {
	// Text is matched term by term against title, authors and DOI. Every
	// whitespace-separated term must match.
	Text string

	// EnrichedOnly restricts results to documents registered with search
	// metadata.
	EnrichedOnly bool

	// MaxResults limits result count. Zero uses the corpus default.
	MaxResults int
}

// Search returns documents matching opts, most recently added first.
func (c *Corpus) Search(ctx context.Context, opts QueryOptions) ([]types.CorpusEntry, error) {
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = c.searchLimit
	}

	var (
		qb   strings.Builder
		args []any
	)
	qb.WriteString(selectColumns)
	qb.WriteString(` WHERE 1=1`)

	for _, term := range strings.Fields(strings.ToLower(opts.Text)) {
		pattern := "%" + escapeLike(term) + "%"
		qb.WriteString(` AND (lower(title) LIKE ? ESCAPE '\' OR lower(authors) LIKE ? ESCAPE '\' OR lower(doi) LIKE ? ESCAPE '\')`)
		args = append(args, pattern, pattern, pattern)
	}
	if opts.EnrichedOnly {
		qb.WriteString(` AND enriched = 1`)
	}

	qb.WriteString(` ORDER BY added_at DESC, doc_name LIMIT ?`)
	args = append(args, maxResults)

	rows, err := c.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying corpus: %w", err)
	}
	defer rows.Close()

	var results []types.CorpusEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		results = append(results, e)
	}
	return results, rows.Err()
}

// List returns every document ordered by name.
func (c *Corpus) List(ctx context.Context) ([]types.CorpusEntry, error) {
	rows, err := c.db.QueryContext(ctx, selectColumns+` ORDER BY doc_name`)
	if err != nil {
		return nil, fmt.Errorf("listing corpus: %w", err)
	}
	defer rows.Close()

	var results []types.CorpusEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		results = append(results, e)
	}
	return results, rows.Err()
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

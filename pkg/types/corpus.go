// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// Metadata is the optional bibliographic record supplied when a document is
// registered with the corpus. A nil *Metadata asks the corpus to infer it.
type Metadata struct {
	Title   string   `json:"title" yaml:"title"`
	DOI     string   `json:"doi,omitempty" yaml:"doi,omitempty"`
	Authors []string `json:"authors" yaml:"authors"`
}

// CorpusEntry is one registered document.
type CorpusEntry struct {
	// DocName is the document's name in the corpus, the PDF's file stem.
	DocName string `json:"doc_name" yaml:"doc_name"`

	Path    string   `json:"path" yaml:"path"`
	Title   string   `json:"title" yaml:"title"`
	DOI     string   `json:"doi,omitempty" yaml:"doi,omitempty"`
	Authors []string `json:"authors" yaml:"authors"`

	// Enriched is true when metadata came from the search result rather than
	// the corpus's own inference.
	Enriched bool `json:"enriched" yaml:"enriched"`

	PageCount int       `json:"page_count,omitempty" yaml:"page_count,omitempty"`
	AddedAt   time.Time `json:"added_at" yaml:"added_at"`
}

// CorpusExport is the top-level structure for corpus exports.
type CorpusExport struct {
	Documents []CorpusEntry `json:"documents" yaml:"documents"`
}

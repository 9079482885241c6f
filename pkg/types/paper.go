// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "strings"

// OpenAlexPrefix is the URI prefix OpenAlex uses for work identifiers.
const OpenAlexPrefix = "https://openalex.org/"

// CandidatePaper is one work returned by the search service. JSON tags follow
// the OpenAlex Works schema so a result page decodes directly into this type.
type CandidatePaper struct {
	// ID is the OpenAlex work URI (e.g. "https://openalex.org/W2741809807").
	ID string `json:"id" yaml:"id"`

	Title string `json:"title" yaml:"title"`

	// DOI is the full DOI URL when OpenAlex knows one.
	DOI string `json:"doi,omitempty" yaml:"doi,omitempty"`

	PublicationYear int    `json:"publication_year,omitempty" yaml:"publication_year,omitempty"`
	PublicationDate string `json:"publication_date,omitempty" yaml:"publication_date,omitempty"`

	// Authorships lists contributors in the order OpenAlex returns them.
	Authorships []Authorship `json:"authorships" yaml:"authorships"`

	// BestOALocation holds the open-access location chosen by OpenAlex.
	// Nil when the work has no OA location.
	BestOALocation *Location `json:"best_oa_location,omitempty" yaml:"best_oa_location,omitempty"`
}

// Authorship links a work to one author.
type Authorship struct {
	Author AuthorRef `json:"author" yaml:"author"`
}

// AuthorRef is the author record nested in an authorship.
type AuthorRef struct {
	ID          string `json:"id,omitempty" yaml:"id,omitempty"`
	DisplayName string `json:"display_name" yaml:"display_name"`
}

// Location is a place where a work is hosted.
type Location struct {
	PDFURL         string `json:"pdf_url,omitempty" yaml:"pdf_url,omitempty"`
	LandingPageURL string `json:"landing_page_url,omitempty" yaml:"landing_page_url,omitempty"`
}

// Key returns the normalized identifier used as the filename stem.
func (p CandidatePaper) Key() string {
	return NormalizeID(p.ID)
}

// PDFURL returns the direct PDF link of the best OA location, or "".
func (p CandidatePaper) PDFURL() string {
	if p.BestOALocation == nil {
		return ""
	}
	return strings.TrimSpace(p.BestOALocation.PDFURL)
}

// AuthorNames returns author display names in authorship order, skipping blanks.
func (p CandidatePaper) AuthorNames() []string {
	names := make([]string, 0, len(p.Authorships))
	for _, a := range p.Authorships {
		if n := strings.TrimSpace(a.Author.DisplayName); n != "" {
			names = append(names, n)
		}
	}
	return names
}

// Metadata returns the bibliographic record passed to corpus registration.
func (p CandidatePaper) Metadata() *Metadata {
	return &Metadata{
		Title:   p.Title,
		DOI:     p.DOI,
		Authors: p.AuthorNames(),
	}
}

// NormalizeID converts an OpenAlex work URI into a filesystem-safe key.
// The URI prefix is stripped and path-hostile characters become underscores.
// For well-formed work IDs ("W" followed by digits) the result is the bare ID,
// so a stored file's stem is the key it was stored under.
func NormalizeID(id string) string {
	id = strings.TrimSpace(id)
	id = strings.TrimPrefix(id, OpenAlexPrefix)
	id = strings.TrimPrefix(id, "http://openalex.org/")
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		case ' ', '\t', '\n', '\r':
			return '_'
		}
		return r
	}, id)
}

// SearchQuery is the structured output of query synthesis.
type SearchQuery struct {
	Query string `json:"query" yaml:"query"`
}

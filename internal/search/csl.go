// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"io"
	"strings"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/destiny-evidence/paper-qa/pkg/types"
)

// CSLItem is a bibliographic entry in CSL (Citation Style Language) form,
// consumable by Pandoc and reference managers.
type CSLItem struct {
	ID     string    `yaml:"id"`
	Type   string    `yaml:"type"`
	Title  string    `yaml:"title"`
	Author []CSLName `yaml:"author,omitempty"`
	Issued *CSLDate  `yaml:"issued,omitempty"`
	DOI    string    `yaml:"DOI,omitempty"`
	URL    string    `yaml:"URL,omitempty"`
}

// CSLName is a person's name in CSL form.
type CSLName struct {
	Family  string `yaml:"family,omitempty"`
	Given   string `yaml:"given,omitempty"`
	Literal string `yaml:"literal,omitempty"`
}

// CSLDate is a CSL date using date-parts.
type CSLDate struct {
	DateParts [][]int `yaml:"date-parts"`
}

// FormatCSL writes candidates as a CSL-YAML list to w. Item IDs are the
// candidates' keys, which are also their PDF file stems in the paper store.
func FormatCSL(papers []types.CandidatePaper, w io.Writer) error {
	items := make([]CSLItem, len(papers))
	for i, p := range papers {
		items[i] = toCSLItem(p)
	}
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	return enc.Encode(items)
}

func toCSLItem(p types.CandidatePaper) CSLItem {
	item := CSLItem{
		ID:    p.Key(),
		Type:  "article-journal",
		Title: p.Title,
		DOI:   bareDOI(p.DOI),
	}
	if p.BestOALocation != nil {
		item.URL = p.BestOALocation.LandingPageURL
	}

	for _, a := range p.AuthorNames() {
		item.Author = append(item.Author, parseAuthorName(a))
	}

	if d, err := time.Parse(time.DateOnly, p.PublicationDate); err == nil {
		item.Issued = &CSLDate{DateParts: [][]int{{d.Year(), int(d.Month()), d.Day()}}}
	} else if p.PublicationYear > 0 {
		item.Issued = &CSLDate{DateParts: [][]int{{p.PublicationYear}}}
	}

	return item
}

// bareDOI strips the resolver prefix OpenAlex puts on DOIs.
func bareDOI(doi string) string {
	for _, prefix := range []string{"https://doi.org/", "http://doi.org/", "doi:"} {
		if strings.HasPrefix(strings.ToLower(doi), prefix) {
			return doi[len(prefix):]
		}
	}
	return doi
}

// parseAuthorName splits a display name on the last space: everything before
// is given, the last token is family. Single-token names use the literal
// field.
func parseAuthorName(name string) CSLName {
	name = strings.TrimSpace(name)
	if name == "" {
		return CSLName{}
	}
	idx := strings.LastIndex(name, " ")
	if idx < 0 {
		return CSLName{Literal: name}
	}
	return CSLName{
		Given:  name[:idx],
		Family: name[idx+1:],
	}
}

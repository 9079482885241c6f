// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/destiny-evidence/paper-qa/pkg/types"
)

// FormatTable writes candidates as a human-readable table to w.
func FormatTable(papers []types.CandidatePaper, w io.Writer) {
	if len(papers) == 0 {
		fmt.Fprintln(w, "No results found.")
		return
	}

	fmt.Fprintf(w, "%-4s  %-12s  %-56s  %-20s  %-4s  %s\n",
		"Rank", "Key", "Title", "Authors", "Year", "PDF")
	fmt.Fprintln(w, strings.Repeat("-", 110))

	for i, p := range papers {
		year := ""
		if p.PublicationYear > 0 {
			year = fmt.Sprintf("%d", p.PublicationYear)
		}
		pdf := "no"
		if p.PDFURL() != "" {
			pdf = "yes"
		}
		fmt.Fprintf(w, "%-4d  %-12s  %-56s  %-20s  %-4s  %s\n",
			i+1, truncate(p.Key(), 12), truncate(p.Title, 56), formatAuthors(p.AuthorNames()), year, pdf)
	}

	fmt.Fprintf(w, "\n%d results\n", len(papers))
}

// FormatJSON writes candidates as indented JSON to w.
func FormatJSON(papers []types.CandidatePaper, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(papers)
}

func formatAuthors(authors []string) string {
	switch len(authors) {
	case 0:
		return ""
	case 1:
		return truncate(authors[0], 20)
	default:
		return truncate(authors[0], 14) + " et al."
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

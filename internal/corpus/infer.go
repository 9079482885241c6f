// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package corpus

import (
	"fmt"
	"os"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/destiny-evidence/paper-qa/pkg/types"
)

func init() {
	// Keep pdfcpu from creating a configuration directory under $HOME.
	model.ConfigPath = "disable"
}

// pdfInfo is what the corpus reads from a PDF when no metadata is supplied.
type pdfInfo struct {
	Title     string
	Author    string
	PageCount int
}

// inspectPDF reads the info dictionary and page count of the PDF at path.
func inspectPDF(path string) (info pdfInfo, err error) {
	f, err := os.Open(path)
	if err != nil {
		return info, err
	}
	defer f.Close()

	// pdfcpu panics on some malformed cross-reference tables.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdfcpu panic: %v", r)
		}
	}()

	ctx, err := api.ReadValidateAndOptimize(f, model.NewDefaultConfiguration())
	if err != nil {
		return info, fmt.Errorf("pdfcpu read: %w", err)
	}
	return pdfInfo{
		Title:     strings.TrimSpace(ctx.Title),
		Author:    strings.TrimSpace(ctx.Author),
		PageCount: ctx.PageCount,
	}, nil
}

// infer fills entry from the PDF. Unreadable files leave entry as is so the
// caller's stem fallback applies.
func (c *Corpus) infer(entry *types.CorpusEntry) {
	info, err := c.inspect(entry.Path)
	if err != nil {
		return
	}
	entry.Title = info.Title
	entry.Authors = splitAuthors(info.Author)
	entry.PageCount = info.PageCount
}

// splitAuthors splits an info-dictionary Author string. Producers commonly
// separate names with semicolons or " and ".
func splitAuthors(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	s = strings.ReplaceAll(s, " and ", ";")
	var out []string
	for _, part := range strings.Split(s, ";") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

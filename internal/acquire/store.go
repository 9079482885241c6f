// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package acquire

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// tempPattern names in-progress downloads. They never end in .pdf so a
// listing can not mistake them for stored papers.
const tempPattern = ".download-*.tmp"

// PDFPath returns where the paper with key is stored.
func PDFPath(store, key string) string {
	return filepath.Join(store, key+".pdf")
}

// ListStored returns the keys of the PDFs directly inside store, creating the
// directory when it does not exist. Only the exact lowercase ".pdf" suffix
// counts, matching the names Sync writes.
func ListStored(store string) (map[string]bool, error) {
	if err := os.MkdirAll(store, 0o755); err != nil {
		return nil, fmt.Errorf("creating paper store %s: %w", store, err)
	}
	entries, err := os.ReadDir(store)
	if err != nil {
		return nil, fmt.Errorf("listing paper store %s: %w", store, err)
	}

	keys := make(map[string]bool, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".pdf") {
			continue
		}
		keys[strings.TrimSuffix(name, ".pdf")] = true
	}
	return keys, nil
}

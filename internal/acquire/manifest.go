// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package acquire

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/destiny-evidence/paper-qa/pkg/types"
)

// ManifestName is the file, inside the paper store, that records the last
// candidate set. It only feeds metadata enrichment; whether a paper is
// downloaded is always decided by listing the store.
const ManifestName = "candidates.yaml"

// Manifest is the on-disk record of a search result.
type Manifest struct {
	RunID      string                 `yaml:"run_id,omitempty"`
	Query      string                 `yaml:"query"`
	CreatedAt  time.Time              `yaml:"created_at"`
	Candidates []types.CandidatePaper `yaml:"candidates"`
}

// ManifestPath returns the manifest location for store.
func ManifestPath(store string) string {
	return filepath.Join(store, ManifestName)
}

// WriteManifest stores m under store, replacing any previous manifest.
func WriteManifest(store string, m Manifest) error {
	if err := os.MkdirAll(store, 0o755); err != nil {
		return fmt.Errorf("creating paper store %s: %w", store, err)
	}
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshaling manifest: %w", err)
	}

	tmp, err := os.CreateTemp(store, ".manifest-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	_, writeErr := tmp.Write(data)
	closeErr := tmp.Close()
	if err := errors.Join(writeErr, closeErr); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing manifest: %w", err)
	}
	if err := os.Rename(tmpPath, ManifestPath(store)); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming manifest: %w", err)
	}
	return nil
}

// ReadManifest loads the manifest under store. A missing manifest yields a
// zero Manifest and no error.
func ReadManifest(store string) (Manifest, error) {
	var m Manifest
	data, err := os.ReadFile(ManifestPath(store))
	if errors.Is(err, fs.ErrNotExist) {
		return m, nil
	}
	if err != nil {
		return m, fmt.Errorf("reading manifest: %w", err)
	}
	if err := yaml.Unmarshal(data, &m); err != nil {
		return m, fmt.Errorf("parsing manifest: %w", err)
	}
	return m, nil
}

// ByKey indexes candidates by normalized identifier. When a key repeats the
// first occurrence wins.
func ByKey(candidates []types.CandidatePaper) map[string]types.CandidatePaper {
	out := make(map[string]types.CandidatePaper, len(candidates))
	for _, c := range candidates {
		k := c.Key()
		if k == "" {
			continue
		}
		if _, dup := out[k]; !dup {
			out[k] = c
		}
	}
	return out
}

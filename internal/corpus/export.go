// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package corpus

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"

	"github.com/destiny-evidence/paper-qa/pkg/types"
)

// ExportYAML writes every document to {dir}/export.yaml and returns the path.
func (c *Corpus) ExportYAML(ctx context.Context) (string, error) {
	export, err := c.export(ctx)
	if err != nil {
		return "", err
	}
	data, err := yaml.Marshal(export)
	if err != nil {
		return "", fmt.Errorf("marshaling YAML: %w", err)
	}
	path := filepath.Join(c.dir, "export.yaml")
	return path, os.WriteFile(path, data, 0o644)
}

// ExportJSON writes every document to {dir}/export.json and returns the path.
func (c *Corpus) ExportJSON(ctx context.Context) (string, error) {
	export, err := c.export(ctx)
	if err != nil {
		return "", err
	}
	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling JSON: %w", err)
	}
	path := filepath.Join(c.dir, "export.json")
	return path, os.WriteFile(path, data, 0o644)
}

func (c *Corpus) export(ctx context.Context) (types.CorpusExport, error) {
	docs, err := c.List(ctx)
	if err != nil {
		return types.CorpusExport{}, fmt.Errorf("querying for export: %w", err)
	}
	if docs == nil {
		docs = []types.CorpusEntry{}
	}
	return types.CorpusExport{Documents: docs}, nil
}

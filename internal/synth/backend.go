// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package synth

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/destiny-evidence/paper-qa/pkg/types"
)

// NewBackend builds the backend named by cfg.Provider. The returned closer
// must be called when the backend is no longer needed.
func NewBackend(ctx context.Context, cfg types.ModelConfig) (Backend, io.Closer, error) {
	if cfg.APIKey == "" {
		return nil, nil, fmt.Errorf("%s API key is not configured", cfg.Provider)
	}
	switch cfg.Provider {
	case "anthropic":
		b := &ClaudeBackend{
			APIKey:    cfg.APIKey,
			Model:     cfg.Model,
			MaxTokens: cfg.MaxTokens,
			Client:    &http.Client{Timeout: cfg.Timeout},
		}
		return b, nopCloser{}, nil
	case "gemini":
		b, err := NewGeminiBackend(ctx, cfg.APIKey, cfg.Model)
		if err != nil {
			return nil, nil, err
		}
		return b, b, nil
	default:
		return nil, nil, fmt.Errorf("unknown model provider %q", cfg.Provider)
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package search submits structured queries to the OpenAlex Works API and
// returns candidate papers that have a PDF link.
package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/destiny-evidence/paper-qa/internal/httputil"
	"github.com/destiny-evidence/paper-qa/pkg/types"
)

const (
	// DefaultBaseURL is the OpenAlex API root.
	DefaultBaseURL = "https://api.openalex.org"

	// DefaultLimit is the number of candidates requested when the caller
	// passes a non-positive limit.
	DefaultLimit = 20

	maxPerPage = 200

	// pdfFilter restricts results to works that expose a PDF link.
	pdfFilter = "has_pdf_url:true"
)

// ErrSearchUnavailable matches any *UnavailableError.
var ErrSearchUnavailable = errors.New("search: service unavailable")

// UnavailableError reports that OpenAlex could not answer a query. Status is
// the HTTP status when a response arrived, zero otherwise.
type UnavailableError struct {
	Status int
	Err    error
}

func (e *UnavailableError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("OpenAlex unavailable (HTTP %d): %v", e.Status, e.Err)
	}
	return fmt.Sprintf("OpenAlex unavailable: %v", e.Err)
}

func (e *UnavailableError) Unwrap() error { return e.Err }

// Is reports whether target is ErrSearchUnavailable.
func (e *UnavailableError) Is(target error) bool { return target == ErrSearchUnavailable }

// Config holds the client settings. It is copied by New and never mutated.
type Config struct {
	BaseURL   string
	Email     string
	APIKey    string
	UserAgent string
	Timeout   time.Duration
	Retry     httputil.Policy

	// HTTPClient overrides the client built from Timeout. Tests set this.
	HTTPClient *http.Client
}

// ConfigFrom converts the pipeline search settings to a client Config.
func ConfigFrom(sc types.SearchConfig) Config {
	return Config{
		BaseURL:   sc.BaseURL,
		Email:     sc.Email,
		APIKey:    sc.APIKey,
		UserAgent: sc.UserAgent,
		Timeout:   sc.Timeout,
		Retry: httputil.Policy{
			MaxRetries:  sc.MaxRetries,
			Backoff:     sc.RetryBackoff,
			RetryStatus: sc.RetryStatus,
		},
	}
}

// Client queries OpenAlex.
type Client struct {
	cfg  Config
	http *http.Client
}

// New returns a Client for cfg.
func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{cfg: cfg, http: client}
}

type worksResponse struct {
	Meta struct {
		Count   int `json:"count"`
		PerPage int `json:"per_page"`
		Page    int `json:"page"`
	} `json:"meta"`
	Results []types.CandidatePaper `json:"results"`
}

// Search returns the first page of works matching query that have a PDF
// link, in OpenAlex's order. limit is clamped to [1, 200]; non-positive means
// DefaultLimit. Any failure to obtain a page is an *UnavailableError, so an
// empty slice with a nil error always means OpenAlex found nothing.
func (c *Client) Search(ctx context.Context, query types.SearchQuery, limit int) ([]types.CandidatePaper, error) {
	text := strings.TrimSpace(query.Query)
	if text == "" {
		return nil, fmt.Errorf("empty OpenAlex query")
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > maxPerPage {
		limit = maxPerPage
	}

	reqURL := c.cfg.BaseURL + "/works?" + c.params(text, limit).Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", c.cfg.UserAgent)
	}

	resp, err := httputil.DoWithRetry(ctx, c.http, req, c.cfg.Retry)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &UnavailableError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &UnavailableError{
			Status: resp.StatusCode,
			Err:    fmt.Errorf("unexpected status: %s", strings.TrimSpace(string(body))),
		}
	}

	var wr worksResponse
	if err := json.NewDecoder(resp.Body).Decode(&wr); err != nil {
		return nil, &UnavailableError{Status: resp.StatusCode, Err: fmt.Errorf("parsing response: %w", err)}
	}
	if len(wr.Results) > limit {
		wr.Results = wr.Results[:limit]
	}
	return wr.Results, nil
}

func (c *Client) params(text string, limit int) url.Values {
	params := url.Values{
		"search":   {text},
		"filter":   {pdfFilter},
		"per_page": {strconv.Itoa(limit)},
		"page":     {"1"},
	}
	if c.cfg.Email != "" {
		params.Set("mailto", c.cfg.Email)
	}
	if c.cfg.APIKey != "" {
		params.Set("api_key", c.cfg.APIKey)
	}
	return params
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/destiny-evidence/paper-qa/internal/httputil"
	"github.com/destiny-evidence/paper-qa/pkg/types"
)

// worksPage renders an OpenAlex /works response with n results W1..Wn.
func worksPage(n int) string {
	var results []string
	for i := 1; i <= n; i++ {
		results = append(results, fmt.Sprintf(`{
			"id": "https://openalex.org/W%d",
			"title": "Paper %d",
			"doi": "https://doi.org/10.1000/p%d",
			"publication_year": 2021,
			"authorships": [{"author": {"id": "https://openalex.org/A%d", "display_name": "Author %d"}}],
			"best_oa_location": {"pdf_url": "https://example.org/p%d.pdf"}
		}`, i, i, i, i, i, i))
	}
	return fmt.Sprintf(`{"meta": {"count": %d, "per_page": %d, "page": 1}, "results": [%s]}`,
		n, n, strings.Join(results, ","))
}

func TestSearchRequestAndOrder(t *testing.T) {
	var gotQuery map[string][]string
	var gotUA string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/works" {
			t.Errorf("path = %q, want /works", r.URL.Path)
		}
		gotQuery = r.URL.Query()
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, worksPage(3))
	}))
	defer ts.Close()

	c := New(Config{
		BaseURL:    ts.URL,
		Email:      "lab@example.org",
		APIKey:     "secret",
		UserAgent:  "paper-qa/test",
		HTTPClient: ts.Client(),
	})

	papers, err := c.Search(context.Background(), types.SearchQuery{Query: "sickle cell gene therapy"}, 0)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	wantParams := map[string]string{
		"search":   "sickle cell gene therapy",
		"filter":   "has_pdf_url:true",
		"per_page": "20",
		"page":     "1",
		"mailto":   "lab@example.org",
		"api_key":  "secret",
	}
	for k, want := range wantParams {
		if got := strings.Join(gotQuery[k], ","); got != want {
			t.Errorf("param %s = %q, want %q", k, got, want)
		}
	}
	if gotUA != "paper-qa/test" {
		t.Errorf("User-Agent = %q", gotUA)
	}

	if len(papers) != 3 {
		t.Fatalf("got %d papers, want 3", len(papers))
	}
	for i, p := range papers {
		wantID := fmt.Sprintf("https://openalex.org/W%d", i+1)
		if p.ID != wantID {
			t.Errorf("papers[%d].ID = %q, want %q (service order must be kept)", i, p.ID, wantID)
		}
	}
	first := papers[0]
	if first.Key() != "W1" {
		t.Errorf("Key() = %q, want W1", first.Key())
	}
	if first.PDFURL() != "https://example.org/p1.pdf" {
		t.Errorf("PDFURL() = %q", first.PDFURL())
	}
	if got := first.AuthorNames(); len(got) != 1 || got[0] != "Author 1" {
		t.Errorf("AuthorNames() = %v", got)
	}
	if first.DOI != "https://doi.org/10.1000/p1" {
		t.Errorf("DOI = %q", first.DOI)
	}
}

func TestSearchOmitsUnsetCredentials(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Has("mailto") || q.Has("api_key") {
			t.Errorf("unexpected credentials in query: %v", q)
		}
		fmt.Fprint(w, worksPage(0))
	}))
	defer ts.Close()

	c := New(Config{BaseURL: ts.URL, HTTPClient: ts.Client()})
	papers, err := c.Search(context.Background(), types.SearchQuery{Query: "q"}, 5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(papers) != 0 {
		t.Errorf("got %d papers, want 0", len(papers))
	}
}

func TestSearchLimitClamped(t *testing.T) {
	tests := []struct {
		limit int
		want  string
	}{
		{0, "20"},
		{-3, "20"},
		{7, "7"},
		{500, "200"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			var perPage string
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				perPage = r.URL.Query().Get("per_page")
				fmt.Fprint(w, worksPage(0))
			}))
			defer ts.Close()

			c := New(Config{BaseURL: ts.URL, HTTPClient: ts.Client()})
			if _, err := c.Search(context.Background(), types.SearchQuery{Query: "q"}, tt.limit); err != nil {
				t.Fatalf("Search: %v", err)
			}
			if perPage != tt.want {
				t.Errorf("per_page = %q, want %q", perPage, tt.want)
			}
		})
	}
}

func TestSearchTruncatesOversizedPage(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, worksPage(5))
	}))
	defer ts.Close()

	c := New(Config{BaseURL: ts.URL, HTTPClient: ts.Client()})
	papers, err := c.Search(context.Background(), types.SearchQuery{Query: "q"}, 2)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(papers) != 2 {
		t.Errorf("got %d papers, want 2", len(papers))
	}
}

func TestSearchUnavailable(t *testing.T) {
	tests := []struct {
		name       string
		handler    http.HandlerFunc
		wantStatus int
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				http.Error(w, "boom", http.StatusInternalServerError)
			},
			wantStatus: http.StatusInternalServerError,
		},
		{
			name: "rate limited",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusTooManyRequests)
			},
			wantStatus: http.StatusTooManyRequests,
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				fmt.Fprint(w, `{"results": [`)
			},
			wantStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(tt.handler)
			defer ts.Close()

			c := New(Config{BaseURL: ts.URL, HTTPClient: ts.Client()})
			papers, err := c.Search(context.Background(), types.SearchQuery{Query: "q"}, 20)
			if !errors.Is(err, ErrSearchUnavailable) {
				t.Fatalf("err = %v, want ErrSearchUnavailable", err)
			}
			if papers != nil {
				t.Errorf("papers = %v, want nil on failure", papers)
			}
			var ue *UnavailableError
			if !errors.As(err, &ue) || ue.Status != tt.wantStatus {
				t.Errorf("UnavailableError status = %+v, want %d", ue, tt.wantStatus)
			}
		})
	}
}

func TestSearchTransportFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := ts.URL
	ts.Close()

	c := New(Config{BaseURL: url, Timeout: time.Second})
	_, err := c.Search(context.Background(), types.SearchQuery{Query: "q"}, 20)
	if !errors.Is(err, ErrSearchUnavailable) {
		t.Fatalf("err = %v, want ErrSearchUnavailable", err)
	}
}

func TestSearchRetryPolicy(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, worksPage(1))
	}))
	defer ts.Close()

	c := New(Config{
		BaseURL:    ts.URL,
		HTTPClient: ts.Client(),
		Retry:      httputil.Policy{MaxRetries: 2, Backoff: time.Millisecond, RetryStatus: []int{503}},
	})
	papers, err := c.Search(context.Background(), types.SearchQuery{Query: "q"}, 20)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(papers) != 1 || atomic.LoadInt32(&calls) != 2 {
		t.Errorf("papers=%d calls=%d, want 1 and 2", len(papers), calls)
	}
}

func TestSearchEmptyQuery(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer ts.Close()

	c := New(Config{BaseURL: ts.URL, HTTPClient: ts.Client()})
	if _, err := c.Search(context.Background(), types.SearchQuery{Query: "  "}, 20); err == nil {
		t.Fatal("expected error for empty query")
	}
	if calls != 0 {
		t.Errorf("made %d requests for an empty query", calls)
	}
}

func TestFormatTable(t *testing.T) {
	var papers []types.CandidatePaper
	if err := json.Unmarshal([]byte(worksPage(2)), &struct {
		Results *[]types.CandidatePaper `json:"results"`
	}{&papers}); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	FormatTable(papers, &buf)
	out := buf.String()
	for _, want := range []string{"Rank", "W1", "Paper 2", "Author 1", "2021", "2 results"} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q:\n%s", want, out)
		}
	}

	buf.Reset()
	FormatTable(nil, &buf)
	if !strings.Contains(buf.String(), "No results found.") {
		t.Errorf("empty table = %q", buf.String())
	}
}

// Package acquire downloads candidate PDFs into a flat local paper store.
// The store directory itself is the record of what has been downloaded: a
// file named {key}.pdf means the candidate with that key is present.
package acquire

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/destiny-evidence/paper-qa/pkg/types"
)

const (
	defaultTimeout     = 15 * time.Second
	defaultConcurrency = 4
	defaultUserAgent   = "paper-qa/0.1"
)

// Report holds the outcome of one Sync. Keys appear in exactly one of the
// three lists, each sorted.
type Report struct {
	Downloaded []string
	Skipped    []string
	Failed     []string

	// Errors maps each failed key to its *DownloadError.
	Errors map[string]error
}

// Total returns the number of candidates accounted for.
func (r Report) Total() int {
	return len(r.Downloaded) + len(r.Skipped) + len(r.Failed)
}

// HasFailures reports whether any candidate failed.
func (r Report) HasFailures() bool {
	return len(r.Failed) > 0
}

// Summary renders the one-line batch summary.
func (r Report) Summary() string {
	return fmt.Sprintf("Batch summary: %d downloaded, %d skipped, %d failed (total: %d)",
		len(r.Downloaded), len(r.Skipped), len(r.Failed), r.Total())
}

func (r *Report) fail(key string, err error) {
	r.Failed = append(r.Failed, key)
	if r.Errors == nil {
		r.Errors = make(map[string]error)
	}
	r.Errors[key] = err
}

func (r *Report) sort() {
	slices.Sort(r.Downloaded)
	slices.Sort(r.Skipped)
	slices.Sort(r.Failed)
}

// Manager downloads candidates into a paper store.
type Manager struct {
	// Client performs the downloads. Its Timeout bounds each fetch and is
	// reported on timeout failures. Redirects are followed.
	Client *http.Client

	UserAgent string

	// Concurrency bounds simultaneous downloads.
	Concurrency int

	// Limiter paces download starts. Nil disables pacing.
	Limiter *rate.Limiter

	Log zerolog.Logger
}

// NewManager builds a Manager from acquisition settings.
func NewManager(cfg types.AcquisitionConfig, log zerolog.Logger) *Manager {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	m := &Manager{
		Client:      &http.Client{Timeout: timeout},
		UserAgent:   cfg.UserAgent,
		Concurrency: cfg.Concurrency,
		Log:         log,
	}
	if cfg.RequestsPerSecond > 0 {
		m.Limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}
	return m
}

// Sync downloads every candidate whose key is not already in store. Each
// candidate succeeds, is skipped, or fails on its own; a failure never stops
// the others and is not retried. The returned error is non-nil only when the
// store cannot be listed or ctx is cancelled, in which case the report holds
// what completed before cancellation.
func (m *Manager) Sync(ctx context.Context, candidates []types.CandidatePaper, store string) (Report, error) {
	var report Report

	present, err := ListStored(store)
	if err != nil {
		return report, err
	}

	queued := make(map[string]bool)
	var todo []types.CandidatePaper
	for i, c := range candidates {
		key := c.Key()
		switch {
		case key == "":
			label := fmt.Sprintf("#%d", i)
			report.fail(label, &DownloadError{Key: label, kind: FailureNoPDF, Err: fmt.Errorf("%w: candidate has no identifier", ErrNoPDFURL)})
			m.Log.Warn().Int("index", i).Msg("candidate has no identifier")
		case present[key]:
			report.Skipped = append(report.Skipped, key)
			m.Log.Debug().Str("key", key).Msg("skipped: already exists")
		case queued[key]:
			// Same work listed twice in one result set.
		case c.PDFURL() == "":
			queued[key] = true
			report.fail(key, &DownloadError{Key: key, kind: FailureNoPDF, Err: ErrNoPDFURL})
			m.Log.Warn().Str("key", key).Msg("candidate has no PDF URL")
		default:
			queued[key] = true
			todo = append(todo, c)
		}
	}

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	limit := m.Concurrency
	if limit <= 0 {
		limit = defaultConcurrency
	}
	g.SetLimit(limit)

	for _, c := range todo {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			key := c.Key()
			if m.Limiter != nil {
				if err := m.Limiter.Wait(ctx); err != nil {
					if ctx.Err() != nil {
						return nil
					}
					// The wait would outlast the ctx deadline.
					de := &DownloadError{Key: key, URL: c.PDFURL(), kind: FailureTransport,
						Err: fmt.Errorf("waiting for rate limiter: %w", err)}
					mu.Lock()
					report.fail(key, de)
					mu.Unlock()
					m.logFailure(de)
					return nil
				}
			}
			m.Log.Info().Str("key", key).Str("url", c.PDFURL()).Msg("downloading")
			err := m.fetch(ctx, key, c.PDFURL(), store)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				report.Downloaded = append(report.Downloaded, key)
			case errors.Is(err, errAlreadyPresent):
				report.Skipped = append(report.Skipped, key)
				m.Log.Debug().Str("key", key).Msg("skipped: appeared during download")
			case ctx.Err() != nil:
				// Cancelled mid-transfer; the next run picks it up.
			default:
				report.fail(key, err)
				m.logFailure(err)
			}
			return nil
		})
	}
	g.Wait()

	report.sort()
	if err := ctx.Err(); err != nil {
		return report, err
	}
	return report, nil
}

func (m *Manager) logFailure(err error) {
	var de *DownloadError
	if !errors.As(err, &de) {
		m.Log.Warn().Err(err).Msg("download failed")
		return
	}
	ev := m.Log.Warn().Str("key", de.Key).Str("url", de.URL).Str("kind", string(de.Kind()))
	switch de.Kind() {
	case FailureStatus:
		ev = ev.Int("status", de.Status).Str("body", de.Body)
	case FailureTimeout:
		ev = ev.Dur("timeout", de.Timeout)
	}
	ev.Err(de.Err).Msg("download failed")
}

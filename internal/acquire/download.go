// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package acquire

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"strings"
	"time"
)

var (
	// ErrDownloadFailed matches any *DownloadError.
	ErrDownloadFailed = errors.New("acquire: download failed")

	// ErrNoPDFURL marks candidates that cannot be fetched because they carry
	// no identifier or no PDF link.
	ErrNoPDFURL = errors.New("acquire: no PDF URL")

	errAlreadyPresent = errors.New("acquire: file already present")
)

// FailureKind classifies a download failure.
type FailureKind string

const (
	FailureStatus    FailureKind = "status"
	FailureTimeout   FailureKind = "timeout"
	FailureTransport FailureKind = "transport"
	FailureWrite     FailureKind = "write"
	FailureNoPDF     FailureKind = "no_pdf_url"
)

// DownloadError describes why one candidate could not be stored. Every field
// comes from that candidate's own attempt.
type DownloadError struct {
	Key string
	URL string

	// Status is the HTTP status for FailureStatus.
	Status int

	// Body is the start of the error response body for FailureStatus.
	Body string

	// Timeout is the client timeout that elapsed for FailureTimeout.
	Timeout time.Duration

	Err  error
	kind FailureKind
}

// Kind returns the failure class.
func (e *DownloadError) Kind() FailureKind { return e.kind }

func (e *DownloadError) Error() string {
	switch e.kind {
	case FailureStatus:
		return fmt.Sprintf("download %s: HTTP %d from %s", e.Key, e.Status, e.URL)
	case FailureTimeout:
		return fmt.Sprintf("download %s: timed out after %v fetching %s", e.Key, e.Timeout, e.URL)
	default:
		return fmt.Sprintf("download %s: %s: %v", e.Key, e.kind, e.Err)
	}
}

func (e *DownloadError) Unwrap() error { return e.Err }

// Is reports whether target is ErrDownloadFailed.
func (e *DownloadError) Is(target error) bool { return target == ErrDownloadFailed }

// fetch downloads url into store/{key}.pdf through a temporary file in the
// same directory. The final name only appears after the whole body has been
// written, and an existing file is never replaced.
func (m *Manager) fetch(ctx context.Context, key, url, store string) error {
	destPath := PDFPath(store, key)
	fail := func(kind FailureKind, err error) *DownloadError {
		return &DownloadError{Key: key, URL: url, Err: err, kind: kind}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fail(FailureTransport, fmt.Errorf("creating request: %w", err))
	}
	ua := m.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}
	req.Header.Set("User-Agent", ua)
	req.Header.Set("Accept", "application/pdf")

	resp, err := m.Client.Do(req)
	if err != nil {
		if isTimeout(err) && ctx.Err() == nil {
			de := fail(FailureTimeout, err)
			de.Timeout = m.Client.Timeout
			return de
		}
		return fail(FailureTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		de := fail(FailureStatus, fmt.Errorf("unexpected status %s", resp.Status))
		de.Status = resp.StatusCode
		de.Body = strings.TrimSpace(string(body))
		return de
	}

	tmpFile, err := os.CreateTemp(store, tempPattern)
	if err != nil {
		return fail(FailureWrite, fmt.Errorf("creating temp file: %w", err))
	}
	tmpPath := tmpFile.Name()

	_, copyErr := io.Copy(tmpFile, resp.Body)
	closeErr := tmpFile.Close()
	if copyErr != nil {
		os.Remove(tmpPath)
		if isTimeout(copyErr) && ctx.Err() == nil {
			de := fail(FailureTimeout, copyErr)
			de.Timeout = m.Client.Timeout
			return de
		}
		return fail(FailureTransport, fmt.Errorf("reading body: %w", copyErr))
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fail(FailureWrite, fmt.Errorf("closing temp file: %w", closeErr))
	}

	if _, err := os.Stat(destPath); err == nil {
		os.Remove(tmpPath)
		return errAlreadyPresent
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return fail(FailureWrite, fmt.Errorf("renaming temp file: %w", err))
	}
	return nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

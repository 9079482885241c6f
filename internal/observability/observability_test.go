// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package observability

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/destiny-evidence/paper-qa/pkg/types"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]zerolog.Level{
		"trace":   zerolog.TraceLevel,
		"DEBUG":   zerolog.DebugLevel,
		"info":    zerolog.InfoLevel,
		"warning": zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
		"bogus":   zerolog.InfoLevel,
		"":        zerolog.InfoLevel,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestNewLoggerToJSON(t *testing.T) {
	var buf bytes.Buffer
	log := NewLoggerTo(&buf, types.LoggingConfig{Level: "warn", Format: "json"})
	log = WithStage(WithRun(log, "run-1", "why?"), "search")

	log.Info().Msg("dropped")
	log.Warn().Str("key", "W1").Msg("kept")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &rec))
	assert.Equal(t, "kept", rec["message"])
	assert.Equal(t, "run-1", rec["run_id"])
	assert.Equal(t, "search", rec["stage"])
	assert.Equal(t, "W1", rec["key"])
	assert.Contains(t, rec, "time")
}

func TestNewLoggerToConsole(t *testing.T) {
	var buf bytes.Buffer
	log := NewLoggerTo(&buf, types.LoggingConfig{Level: "info", Format: "console"})
	log.Info().Msg("hello")
	assert.Contains(t, buf.String(), "hello")
	assert.False(t, json.Valid(bytes.TrimSpace(buf.Bytes())))
}

func TestMetricsIsolatedRegistries(t *testing.T) {
	a, b := NewMetrics(), NewMetrics()

	a.Runs.WithLabelValues("success").Inc()
	a.Downloads.WithLabelValues("downloaded").Add(3)

	assert.Equal(t, 1.0, testutil.ToFloat64(a.Runs.WithLabelValues("success")))
	assert.Equal(t, 3.0, testutil.ToFloat64(a.Downloads.WithLabelValues("downloaded")))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.Runs.WithLabelValues("success")))
}

func TestWriteTextfile(t *testing.T) {
	m := NewMetrics()
	m.Ingested.WithLabelValues("enriched").Add(2)
	m.StageDuration.WithLabelValues("search").Observe(0.3)

	path := filepath.Join(t.TempDir(), "paperqa.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `paperqa_ingested_documents_total{kind="enriched"} 2`)
	assert.Contains(t, string(data), `paperqa_stage_duration_seconds_count{stage="search"} 1`)
}

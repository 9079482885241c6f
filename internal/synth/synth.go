// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package synth turns a natural-language question into a structured OpenAlex
// search query by asking a language model for output that matches a fixed
// schema.
package synth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/template"

	"github.com/destiny-evidence/paper-qa/pkg/types"
)

// ErrEmptyQuestion is returned when the question is blank.
var ErrEmptyQuestion = errors.New("synth: empty question")

// ErrMalformedModelOutput matches any *MalformedOutputError.
var ErrMalformedModelOutput = errors.New("synth: malformed model output")

// MalformedOutputError reports a model response that does not conform to the
// query schema. Raw holds the response text as received.
type MalformedOutputError struct {
	Raw string
	Err error
}

func (e *MalformedOutputError) Error() string {
	return fmt.Sprintf("malformed model output: %v (raw %q)", e.Err, truncate(e.Raw, 200))
}

func (e *MalformedOutputError) Unwrap() error { return e.Err }

// Is reports whether target is ErrMalformedModelOutput.
func (e *MalformedOutputError) Is(target error) bool { return target == ErrMalformedModelOutput }

// ModelError wraps a failure reported by the model backend itself.
type ModelError struct {
	Backend string
	Err     error
}

func (e *ModelError) Error() string {
	return fmt.Sprintf("model backend %s: %v", e.Backend, e.Err)
}

func (e *ModelError) Unwrap() error { return e.Err }

// Message is one turn of the conversation sent to a backend.
type Message struct {
	Role    string
	Content string
}

// Property is a single field of an output schema.
type Property struct {
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
}

// Schema is a flat JSON object schema describing the required model output.
type Schema struct {
	Properties map[string]Property
	Required   []string
}

// JSON renders the schema as a JSON Schema document.
func (s Schema) JSON() string {
	doc := struct {
		Type                 string              `json:"type"`
		Properties           map[string]Property `json:"properties"`
		Required             []string            `json:"required"`
		AdditionalProperties bool                `json:"additionalProperties"`
	}{"object", s.Properties, s.Required, false}
	b, _ := json.Marshal(doc)
	return string(b)
}

// QuerySchema is the output schema for query synthesis: a single string field.
var QuerySchema = Schema{
	Properties: map[string]Property{
		"query": {Type: "string", Description: "OpenAlex full-text search query"},
	},
	Required: []string{"query"},
}

// Backend abstracts the language model so tests can supply a fake. Complete
// sends the conversation and returns the model's raw text response, which the
// backend should constrain to schema where the provider supports it.
type Backend interface {
	Name() string
	Complete(ctx context.Context, msgs []Message, schema Schema) (string, error)
}

var promptTmpl = template.Must(template.New("query").Parse(
	`You are the helper model that aims to generate a search query to get up to {{.Limit}} most relevant papers for the user's question from OpenAlex. User's question:
{{.Question}}`))

// Synthesizer produces search queries through a Backend.
type Synthesizer struct {
	backend Backend
	limit   int
}

// New returns a Synthesizer that asks for queries targeting limit papers.
// A non-positive limit means 20.
func New(backend Backend, limit int) *Synthesizer {
	if limit <= 0 {
		limit = 20
	}
	return &Synthesizer{backend: backend, limit: limit}
}

// Synthesize asks the model for a search query answering question. Backend
// failures come back as *ModelError and are not retried here.
func (s *Synthesizer) Synthesize(ctx context.Context, question string) (types.SearchQuery, error) {
	if strings.TrimSpace(question) == "" {
		return types.SearchQuery{}, ErrEmptyQuestion
	}

	prompt, err := s.Prompt(question)
	if err != nil {
		return types.SearchQuery{}, fmt.Errorf("rendering prompt: %w", err)
	}

	raw, err := s.backend.Complete(ctx, []Message{{Role: "user", Content: prompt}}, QuerySchema)
	if err != nil {
		return types.SearchQuery{}, &ModelError{Backend: s.backend.Name(), Err: err}
	}

	return ParseQuery(raw)
}

// Prompt renders the instruction followed by the question.
func (s *Synthesizer) Prompt(question string) (string, error) {
	var buf bytes.Buffer
	data := struct {
		Limit    int
		Question string
	}{s.limit, question}
	if err := promptTmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// ParseQuery decodes a model response into a SearchQuery. The response must be
// exactly one JSON object with a non-empty "query" string and no other fields.
// A single surrounding Markdown code fence is tolerated.
func ParseQuery(raw string) (types.SearchQuery, error) {
	text := stripFence(strings.TrimSpace(raw))

	dec := json.NewDecoder(strings.NewReader(text))
	dec.DisallowUnknownFields()

	var q types.SearchQuery
	if err := dec.Decode(&q); err != nil {
		return types.SearchQuery{}, &MalformedOutputError{Raw: raw, Err: err}
	}
	if _, err := dec.Token(); err != io.EOF {
		return types.SearchQuery{}, &MalformedOutputError{Raw: raw, Err: errors.New("trailing content after JSON object")}
	}

	q.Query = strings.TrimSpace(q.Query)
	if q.Query == "" {
		return types.SearchQuery{}, &MalformedOutputError{Raw: raw, Err: errors.New(`missing or empty "query"`)}
	}
	return q, nil
}

func stripFence(s string) string {
	if !strings.HasPrefix(s, "```") || !strings.HasSuffix(s, "```") || len(s) < 6 {
		return s
	}
	body := strings.TrimSuffix(strings.TrimPrefix(s, "```"), "```")
	// Drop an info string such as "json" on the opening fence line.
	if i := strings.IndexByte(body, '\n'); i >= 0 && !strings.ContainsAny(body[:i], "{[") {
		body = body[i+1:]
	}
	return strings.TrimSpace(body)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

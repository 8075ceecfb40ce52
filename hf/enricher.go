// Package hf provides an Enricher backed by the HuggingFace Inference API
// running a token-classification model.
package hf

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/AbhigyanVE/carspect"
)

// DefaultBaseURL is the HuggingFace Inference API endpoint.
const DefaultBaseURL = "https://api-inference.huggingface.co"

// DefaultModel is the NER model used for entity hints.
const DefaultModel = "dslim/bert-base-NER"

// DefaultTimeout bounds one inference call. Cold model starts on the hosted
// API can take tens of seconds.
const DefaultTimeout = 30 * time.Second

// DefaultWindow is the number of leading characters of text sent for
// inference. BERT-family models truncate input anyway, so sending the full
// page wastes transfer without improving hints.
const DefaultWindow = 3000

// DefaultHintCap truncates the deduplicated hint list.
const DefaultHintCap = 10

// Ensure Enricher implements carspect.Enricher at compile time.
var _ carspect.Enricher = (*Enricher)(nil)

// Enricher calls the HuggingFace Inference API to recognize named entities
// in listing text. Hints are advisory: downstream consumers treat them as
// candidates, never as extracted values.
type Enricher struct {
	client  *http.Client
	baseURL string
	model   string
	token   string
	window  int
	hintCap int
}

// Option configures an Enricher.
type Option func(*Enricher)

// WithBaseURL overrides the API endpoint. Used in tests.
func WithBaseURL(u string) Option {
	return func(e *Enricher) {
		e.baseURL = u
	}
}

// WithModel overrides the token-classification model.
func WithModel(m string) Option {
	return func(e *Enricher) {
		e.model = m
	}
}

// WithTimeout sets the per-call timeout.
func WithTimeout(d time.Duration) Option {
	return func(e *Enricher) {
		e.client.Timeout = d
	}
}

// WithWindow sets how many leading characters of text are sent.
func WithWindow(n int) Option {
	return func(e *Enricher) {
		e.window = n
	}
}

// WithHintCap sets the maximum number of returned hints.
func WithHintCap(n int) Option {
	return func(e *Enricher) {
		e.hintCap = n
	}
}

// NewEnricher creates an Enricher authenticated with the given API token.
func NewEnricher(token string, opts ...Option) *Enricher {
	e := &Enricher{
		client:  &http.Client{Timeout: DefaultTimeout},
		baseURL: DefaultBaseURL,
		model:   DefaultModel,
		token:   token,
		window:  DefaultWindow,
		hintCap: DefaultHintCap,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

type inferenceRequest struct {
	Inputs     string              `json:"inputs"`
	Parameters inferenceParameters `json:"parameters"`
}

type inferenceParameters struct {
	AggregationStrategy string `json:"aggregation_strategy"`
}

type inferenceEntity struct {
	EntityGroup string  `json:"entity_group"`
	Word        string  `json:"word"`
	Score       float64 `json:"score"`
}

// Enrich runs NER over the leading window of text and returns deduplicated,
// capped entity hints in model output order.
func (e *Enricher) Enrich(ctx context.Context, text string) ([]carspect.EntityHint, error) {
	if e.token == "" {
		return nil, carspect.Errorf(carspect.EINVALID, "HuggingFace API token required")
	}
	if text == "" {
		return nil, nil
	}
	if len(text) > e.window {
		text = text[:e.window]
	}

	payload, err := json.Marshal(inferenceRequest{
		Inputs:     text,
		Parameters: inferenceParameters{AggregationStrategy: "simple"},
	})
	if err != nil {
		return nil, carspect.Errorf(carspect.EINTERNAL, "encoding inference request: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		e.baseURL+"/models/"+e.model, bytes.NewReader(payload))
	if err != nil {
		return nil, carspect.Errorf(carspect.EINTERNAL, "building inference request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+e.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, carspect.Errorf(carspect.EEXTERNAL, "calling inference API: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, carspect.Errorf(carspect.EEXTERNAL, "reading inference response: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, carspect.Errorf(carspect.EEXTERNAL, "inference API returned HTTP %d: %s", resp.StatusCode, body)
	}

	var entities []inferenceEntity
	if err := json.Unmarshal(body, &entities); err != nil {
		return nil, carspect.Errorf(carspect.EEXTERNAL, "decoding inference response: %v", err)
	}

	return e.toHints(entities), nil
}

// toHints deduplicates by text, keeps the first occurrence and caps the list.
func (e *Enricher) toHints(entities []inferenceEntity) []carspect.EntityHint {
	var hints []carspect.EntityHint
	seen := make(map[string]bool)
	for _, ent := range entities {
		if ent.Word == "" || seen[ent.Word] {
			continue
		}
		seen[ent.Word] = true
		hints = append(hints, carspect.EntityHint{
			Text:  ent.Word,
			Group: carspect.EntityGroup(ent.EntityGroup),
			Score: ent.Score,
		})
		if len(hints) == e.hintCap {
			break
		}
	}
	return hints
}

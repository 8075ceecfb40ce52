package carspect

import (
	"context"
	"time"
)

// Provenance tags which stage produced a field's value.
type Provenance string

// Provenance values for FinalRecord fields.
const (
	ProvenanceRule   Provenance = "rule"
	ProvenanceLLM    Provenance = "llm"
	ProvenanceAbsent Provenance = "absent"
)

// Usage holds token counts for a completion call. It is zero for requests
// that never reached the LLM.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// PartialRecord is the output of rule-based extraction. Fields the rules
// could not populate are left at their zero values.
type PartialRecord struct {
	Price          string
	Specifications map[string]string
	Features       []string
	Images         []string
}

// FinalRecord is the normalized listing record returned to callers.
// Every field is always present in the JSON output, possibly empty.
// Entities and ModelCandidates are advisory data from entity enrichment;
// they are never merged into ModelName automatically.
type FinalRecord struct {
	ModelName       string                `json:"model_name"`
	Variant         string                `json:"variant"`
	Price           string                `json:"price"`
	Specifications  map[string]string     `json:"specifications"`
	Features        []string              `json:"features"`
	Images          []string              `json:"images"`
	Description     string                `json:"description"`
	ModelCandidates []string              `json:"model_candidates,omitempty"`
	Entities        []EntityHint          `json:"entities,omitempty"`
	Provenance      map[string]Provenance `json:"provenance,omitempty"`
}

// LLMFields is the schema-constrained payload a GapFiller returns.
// The completion is instructed to leave a field empty rather than invent
// a value, so any of these may be zero.
type LLMFields struct {
	ModelName      string            `json:"model_name"`
	Variant        string            `json:"variant"`
	Specifications map[string]string `json:"specifications"`
	Features       []string          `json:"features"`
	Description    string            `json:"description"`
}

// CleanedPage holds a sanitized page: noise elements (scripts, styles,
// navigation, footers, decorative regions) removed before any extraction.
type CleanedPage struct {
	// Title is the page title or first heading, advisory only.
	Title string

	// Text is the visible text with a single-space join across element
	// boundaries, so removed regions don't concatenate adjacent tokens.
	Text string

	// HTML is the cleaned element tree serialized back to HTML.
	HTML string
}

// Sanitizer strips non-content markup from a fetched document.
type Sanitizer interface {
	// Clean removes noise elements from raw HTML and returns the cleaned
	// text and element tree. Runs before any extraction because noise
	// regions inject high-frequency tokens that corrupt both regex
	// matching and entity recognition.
	Clean(rawHTML string) (*CleanedPage, error)
}

// RuleExtractor applies deterministic heuristics to a cleaned page.
type RuleExtractor interface {
	// Extract produces a partial record from price regex matching,
	// paired-cell and keyword-block specification mining, list/block
	// feature collection, and image references.
	Extract(page *CleanedPage) (*PartialRecord, error)
}

// GapFiller invokes an LLM completion to fill only the missing fields of a
// record. Implementations constrain the completion to a single JSON object
// and parse it strictly; a malformed payload is an EEXTERNAL error, not a
// partial success.
type GapFiller interface {
	// Fill requests values for the named missing fields given the current
	// record and a bounded slice of page context. Returns the decoded
	// fields and the token usage of the call.
	Fill(ctx context.Context, record *FinalRecord, missing []string, contextText string) (*LLMFields, *Usage, error)
}

// CacheEntry is a persisted pipeline result keyed by exact URL string.
// No normalization is applied: trailing slashes, query order and scheme
// case all produce distinct keys.
type CacheEntry struct {
	URL       string
	Usage     Usage
	Record    *FinalRecord
	CreatedAt time.Time
}

// CacheService stores and retrieves final records by URL.
// Entries are append-only: no update-in-place, no eviction, no TTL.
type CacheService interface {
	// Lookup returns the entry whose URL matches exactly.
	// Returns ENOTFOUND on a miss.
	Lookup(ctx context.Context, url string) (*CacheEntry, error)

	// Store appends a new entry. Only terminal pipeline successes are
	// stored; failures are never cached.
	Store(ctx context.Context, entry *CacheEntry) error
}

// EntryLister enumerates persisted cache entries. Implemented by cache
// backends that support inspection (CLI listing, filter warm-up).
type EntryLister interface {
	Entries(ctx context.Context) ([]*CacheEntry, error)
}

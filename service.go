package carspect

import "context"

// ExtractResult is the outcome of one pipeline run for a URL.
type ExtractResult struct {
	Record   *FinalRecord `json:"data"`
	Usage    *Usage       `json:"usage,omitempty"`
	LLMUsed  bool         `json:"llm_used"`
	CacheHit bool         `json:"cache_hit"`
}

// ExtractService runs the full extraction pipeline for a listing URL.
type ExtractService interface {
	Extract(ctx context.Context, url string) (*ExtractResult, error)
}

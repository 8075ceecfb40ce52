package carspect

import "context"

// Fetcher retrieves HTML for a URL.
// Implementations may use browser automation to handle JavaScript-rendered
// content ("rendered" mode) or plain HTTP for static pages; the pipeline is
// mode-agnostic and treats both as "produce HTML text for this URL".
type Fetcher interface {
	// Fetch retrieves the document at url.
	// The context controls timeout and cancellation.
	Fetch(ctx context.Context, url string) (html string, err error)

	// Close releases fetcher resources (browser sessions, connections).
	// Must be called when the Fetcher is no longer needed.
	Close() error
}

// DomainLimiter throttles outbound requests per target domain.
type DomainLimiter interface {
	// Wait blocks until the rate limit allows a request to the domain.
	// Returns an error if the context is canceled before the wait completes.
	Wait(ctx context.Context, domain string) error
}

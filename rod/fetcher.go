// Package rod provides a Fetcher that retrieves JS-rendered HTML through
// headless Chrome, with pooled browser sessions.
package rod

import (
	"context"
	"time"

	"github.com/AbhigyanVE/carspect"
	"github.com/go-rod/rod/lib/proto"
)

// DefaultFetchTimeout bounds a single rendered fetch when the caller's
// context carries no deadline.
const DefaultFetchTimeout = 30 * time.Second

// requestIdleWindow is how long the network must stay quiet before a page
// counts as settled. Listing pages load galleries and pricing widgets after
// the load event fires.
const requestIdleWindow = 300 * time.Millisecond

// Ensure Fetcher implements carspect.Fetcher at compile time.
var _ carspect.Fetcher = (*Fetcher)(nil)

// Fetcher retrieves rendered HTML from URLs using Chrome browser automation.
// Fetcher is safe for concurrent use by multiple goroutines.
type Fetcher struct {
	pool    *SessionPool
	timeout time.Duration
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithTimeout sets the per-fetch timeout applied when the caller's context
// has no deadline. Defaults to 30 seconds.
func WithTimeout(d time.Duration) FetcherOption {
	return func(f *Fetcher) {
		f.timeout = d
	}
}

// NewFetcher creates a Fetcher backed by a pool of headless Chrome sessions.
// Close must be called when the Fetcher is no longer needed.
//
// Returns an error if Chrome/Chromium cannot be found or launched.
func NewFetcher(poolOpts []PoolOption, opts ...FetcherOption) (*Fetcher, error) {
	pool, err := NewSessionPool(poolOpts...)
	if err != nil {
		return nil, err
	}

	f := &Fetcher{
		pool:    pool,
		timeout: DefaultFetchTimeout,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// Fetch navigates to the URL and returns the rendered HTML after the load
// event and a quiet network window.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	browser, release, err := f.pool.Acquire(ctx)
	if err != nil {
		return "", err
	}
	defer release()

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return "", err
	}
	defer page.Close()

	page = page.Context(ctx)

	if err := page.Navigate(url); err != nil {
		return "", err
	}

	if err := page.WaitLoad(); err != nil {
		return "", err
	}

	// Settle late XHR-driven content before snapshotting.
	wait := page.WaitRequestIdle(requestIdleWindow, nil, nil, nil)
	wait()

	html, err := page.HTML()
	if err != nil {
		return "", err
	}

	return html, nil
}

// Close releases all browser resources.
func (f *Fetcher) Close() error {
	return f.pool.Close()
}

package mock

import (
	"context"

	"github.com/AbhigyanVE/carspect"
)

var _ carspect.CacheService = (*CacheService)(nil)

// CacheService is a mock implementation of carspect.CacheService.
type CacheService struct {
	LookupFn func(ctx context.Context, url string) (*carspect.CacheEntry, error)
	StoreFn  func(ctx context.Context, entry *carspect.CacheEntry) error
}

func (c *CacheService) Lookup(ctx context.Context, url string) (*carspect.CacheEntry, error) {
	return c.LookupFn(ctx, url)
}

func (c *CacheService) Store(ctx context.Context, entry *carspect.CacheEntry) error {
	return c.StoreFn(ctx, entry)
}

package bloom

import (
	"context"
	"sync"

	"github.com/AbhigyanVE/carspect"
)

// Compile-time interface verification.
var _ carspect.CacheService = (*Cache)(nil)

// Cache decorates a CacheService with a Bloom filter so definite misses skip
// the backing store entirely. The filter admits false positives, never false
// negatives: a positive test still consults the store, a negative one is a
// guaranteed miss.
type Cache struct {
	next   carspect.CacheService
	mu     sync.RWMutex
	filter *Filter
}

// NewCache wraps next with a fresh filter sized for n expected URLs. If next
// also implements carspect.EntryLister the filter is warmed from existing
// entries, so pre-existing rows don't read as misses after a restart.
func NewCache(next carspect.CacheService, n uint, fpRate float64) (*Cache, error) {
	c := &Cache{
		next:   next,
		filter: NewFilter(n, fpRate),
	}

	if lister, ok := next.(carspect.EntryLister); ok {
		entries, err := lister.Entries(context.Background())
		if err != nil {
			return nil, err
		}
		for _, entry := range entries {
			c.filter.Add(entry.URL)
		}
	}

	return c, nil
}

// Lookup short-circuits definite misses, otherwise delegates.
func (c *Cache) Lookup(ctx context.Context, url string) (*carspect.CacheEntry, error) {
	c.mu.RLock()
	maybe := c.filter.Test(url)
	c.mu.RUnlock()

	if !maybe {
		return nil, carspect.Errorf(carspect.ENOTFOUND, "no cache entry for %q", url)
	}
	return c.next.Lookup(ctx, url)
}

// Store delegates, then admits the URL to the filter.
func (c *Cache) Store(ctx context.Context, entry *carspect.CacheEntry) error {
	if err := c.next.Store(ctx, entry); err != nil {
		return err
	}

	c.mu.Lock()
	c.filter.Add(entry.URL)
	c.mu.Unlock()
	return nil
}

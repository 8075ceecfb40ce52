package mock

import (
	"context"

	"github.com/AbhigyanVE/carspect"
)

var _ carspect.Enricher = (*Enricher)(nil)

// Enricher is a mock implementation of carspect.Enricher.
type Enricher struct {
	EnrichFn func(ctx context.Context, text string) ([]carspect.EntityHint, error)
}

func (e *Enricher) Enrich(ctx context.Context, text string) ([]carspect.EntityHint, error) {
	return e.EnrichFn(ctx, text)
}

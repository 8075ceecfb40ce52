package mock

import (
	"context"

	"github.com/AbhigyanVE/carspect"
)

var _ carspect.GapFiller = (*GapFiller)(nil)

// GapFiller is a mock implementation of carspect.GapFiller.
type GapFiller struct {
	FillFn func(ctx context.Context, record *carspect.FinalRecord, missing []string, contextText string) (*carspect.LLMFields, *carspect.Usage, error)
}

func (g *GapFiller) Fill(ctx context.Context, record *carspect.FinalRecord, missing []string, contextText string) (*carspect.LLMFields, *carspect.Usage, error) {
	return g.FillFn(ctx, record, missing, contextText)
}

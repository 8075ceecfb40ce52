package mock

import (
	"context"

	"github.com/AbhigyanVE/carspect"
)

var _ carspect.ExtractService = (*ExtractService)(nil)

// ExtractService is a mock implementation of carspect.ExtractService.
type ExtractService struct {
	ExtractFn func(ctx context.Context, url string) (*carspect.ExtractResult, error)
}

func (s *ExtractService) Extract(ctx context.Context, url string) (*carspect.ExtractResult, error) {
	return s.ExtractFn(ctx, url)
}

package mock

import "github.com/AbhigyanVE/carspect"

var _ carspect.RuleExtractor = (*RuleExtractor)(nil)

// RuleExtractor is a mock implementation of carspect.RuleExtractor.
type RuleExtractor struct {
	ExtractFn func(page *carspect.CleanedPage) (*carspect.PartialRecord, error)
}

func (e *RuleExtractor) Extract(page *carspect.CleanedPage) (*carspect.PartialRecord, error) {
	return e.ExtractFn(page)
}

package mock

import "github.com/AbhigyanVE/carspect"

var _ carspect.Sanitizer = (*Sanitizer)(nil)

// Sanitizer is a mock implementation of carspect.Sanitizer.
type Sanitizer struct {
	CleanFn func(rawHTML string) (*carspect.CleanedPage, error)
}

func (s *Sanitizer) Clean(rawHTML string) (*carspect.CleanedPage, error) {
	return s.CleanFn(rawHTML)
}

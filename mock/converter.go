package mock

import "github.com/AbhigyanVE/carspect"

var _ carspect.Converter = (*Converter)(nil)

// Converter is a mock implementation of carspect.Converter.
type Converter struct {
	ConvertFn func(html string) (string, error)
}

func (c *Converter) Convert(html string) (string, error) {
	return c.ConvertFn(html)
}

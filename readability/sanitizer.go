// Package readability provides a Sanitizer built on go-readability. It is an
// alternative to the selector-based default for article-shaped listing pages
// where heuristic content scoring outperforms a fixed noise list.
package readability

import (
	"regexp"
	"strings"

	"github.com/AbhigyanVE/carspect"
	"github.com/go-shiori/go-readability"
)

var whitespaceRE = regexp.MustCompile(`\s+`)

// Ensure Sanitizer implements carspect.Sanitizer at compile time.
var _ carspect.Sanitizer = (*Sanitizer)(nil)

// Sanitizer wraps go-readability to extract main content from raw HTML.
type Sanitizer struct{}

// NewSanitizer creates a new Sanitizer.
func NewSanitizer() *Sanitizer {
	return &Sanitizer{}
}

// Clean extracts the main content and returns the cleaned text and tree.
func (s *Sanitizer) Clean(rawHTML string) (*carspect.CleanedPage, error) {
	if rawHTML == "" {
		return nil, carspect.Errorf(carspect.EINVALID, "empty HTML input")
	}

	article, err := readability.FromReader(strings.NewReader(rawHTML), nil)
	if err != nil {
		return nil, carspect.Errorf(carspect.EINVALID, "failed to extract content: %v", err)
	}

	text := strings.TrimSpace(whitespaceRE.ReplaceAllString(article.TextContent, " "))

	return &carspect.CleanedPage{
		Title: article.Title,
		Text:  text,
		HTML:  article.Content,
	}, nil
}

// Package trafilatura provides a Sanitizer built on go-trafilatura, a port
// of the trafilatura content extraction library.
package trafilatura

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/AbhigyanVE/carspect"
	"github.com/markusmobius/go-trafilatura"
	"golang.org/x/net/html"
)

var whitespaceRE = regexp.MustCompile(`\s+`)

// Ensure Sanitizer implements carspect.Sanitizer at compile time.
var _ carspect.Sanitizer = (*Sanitizer)(nil)

// Sanitizer wraps go-trafilatura to extract main content from raw HTML.
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

	opts := trafilatura.Options{
		EnableFallback: true,
	}

	result, err := trafilatura.Extract(strings.NewReader(rawHTML), opts)
	if err != nil {
		return nil, carspect.Errorf(carspect.EINVALID, "failed to extract content: %v", err)
	}

	var contentHTML string
	if result.ContentNode != nil {
		contentHTML, err = renderNode(result.ContentNode)
		if err != nil {
			return nil, carspect.Errorf(carspect.EINTERNAL, "failed to render content tree: %v", err)
		}
	}

	text := strings.TrimSpace(whitespaceRE.ReplaceAllString(result.ContentText, " "))

	return &carspect.CleanedPage{
		Title: result.Metadata.Title,
		Text:  text,
		HTML:  contentHTML,
	}, nil
}

// renderNode converts an html.Node to a string.
func renderNode(n *html.Node) (string, error) {
	var buf bytes.Buffer
	if err := html.Render(&buf, n); err != nil {
		return "", err
	}
	return buf.String(), nil
}

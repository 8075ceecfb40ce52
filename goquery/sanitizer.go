// Package goquery provides the default Sanitizer and RuleExtractor built on
// CSS-selector traversal of the page tree.
package goquery

import (
	"regexp"
	"strings"

	"github.com/AbhigyanVE/carspect"
	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// noiseSelector matches the elements stripped before extraction: script and
// style payloads, navigation, footers, decorative asides and noscript
// fallbacks all inject high-frequency tokens that corrupt regex matching
// and entity recognition.
const noiseSelector = "script, style, nav, footer, aside, noscript"

var whitespaceRE = regexp.MustCompile(`\s+`)

// Ensure Sanitizer implements carspect.Sanitizer at compile time.
var _ carspect.Sanitizer = (*Sanitizer)(nil)

// Sanitizer strips non-content markup from raw HTML.
type Sanitizer struct{}

// NewSanitizer creates a new Sanitizer.
func NewSanitizer() *Sanitizer {
	return &Sanitizer{}
}

// Clean removes noise elements and returns the cleaned text and tree.
func (s *Sanitizer) Clean(rawHTML string) (*carspect.CleanedPage, error) {
	if rawHTML == "" {
		return nil, carspect.Errorf(carspect.EINVALID, "empty HTML input")
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return nil, carspect.Errorf(carspect.EINVALID, "failed to parse HTML: %v", err)
	}

	doc.Find(noiseSelector).Remove()

	title := strings.TrimSpace(doc.Find("title").First().Text())
	if h1 := strings.TrimSpace(doc.Find("h1").First().Text()); h1 != "" {
		title = h1
	}

	cleanedHTML, err := doc.Html()
	if err != nil {
		return nil, carspect.Errorf(carspect.EINTERNAL, "failed to serialize cleaned tree: %v", err)
	}

	return &carspect.CleanedPage{
		Title: title,
		Text:  visibleText(doc),
		HTML:  cleanedHTML,
	}, nil
}

// visibleText joins text nodes with single spaces so text from adjacent
// elements never concatenates into one token, then collapses runs of
// whitespace.
func visibleText(doc *goquery.Document) string {
	var sb strings.Builder
	for _, root := range doc.Nodes {
		collectText(root, &sb)
	}
	return strings.TrimSpace(whitespaceRE.ReplaceAllString(sb.String(), " "))
}

func collectText(n *html.Node, sb *strings.Builder) {
	if n.Type == html.TextNode {
		sb.WriteString(n.Data)
		sb.WriteByte(' ')
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, sb)
	}
}

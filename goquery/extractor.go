package goquery

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/AbhigyanVE/carspect"
	"github.com/PuerkitoBio/goquery"
)

// Ensure Extractor implements carspect.RuleExtractor at compile time.
var _ carspect.RuleExtractor = (*Extractor)(nil)

// Extractor applies deterministic heuristics to a cleaned page: price regex,
// paired-cell and keyword-block specifications, list/block features, and
// image references. Each sub-extraction is independent and individually
// optional; a page yielding nothing produces an empty partial record, not
// an error.
type Extractor struct {
	cfg     carspect.RuleConfig
	priceRE *regexp.Regexp
}

// NewExtractor creates an Extractor with the given rule configuration.
func NewExtractor(cfg carspect.RuleConfig) *Extractor {
	return &Extractor{
		cfg:     cfg,
		priceRE: buildPriceRegexp(cfg.CurrencyMarkers),
	}
}

// buildPriceRegexp compiles the currency-marker pattern: a marker from the
// configured set, optional space, digits with optional thousands separators
// and an optional decimal portion. A bare number never matches.
func buildPriceRegexp(markers []string) *regexp.Regexp {
	quoted := make([]string, 0, len(markers))
	for _, m := range markers {
		quoted = append(quoted, regexp.QuoteMeta(m))
	}
	pattern := `(?:` + strings.Join(quoted, "|") + `)\s?[0-9][0-9,]*(?:\.[0-9]+)?`
	return regexp.MustCompile(pattern)
}

// Extract produces a partial record from the cleaned page.
func (e *Extractor) Extract(page *carspect.CleanedPage) (*carspect.PartialRecord, error) {
	if page == nil {
		return nil, carspect.Errorf(carspect.EINVALID, "cleaned page required")
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page.HTML))
	if err != nil {
		return nil, carspect.Errorf(carspect.EINVALID, "failed to parse cleaned HTML: %v", err)
	}

	return &carspect.PartialRecord{
		Price:          e.extractPrice(page.Text),
		Specifications: e.extractSpecifications(doc),
		Features:       e.extractFeatures(doc),
		Images:         e.extractImages(doc),
	}, nil
}

// extractPrice returns the first currency-marked amount in document order,
// or "" when no marker matches.
func (e *Extractor) extractPrice(text string) string {
	return e.priceRE.FindString(text)
}

// extractSpecifications combines two strategies into one mapping. Paired-cell
// rows contribute under their own first-cell key; keyword blocks contribute
// under a synthetic "block_N" key, so the two namespaces cannot collide.
func (e *Extractor) extractSpecifications(doc *goquery.Document) map[string]string {
	specs := make(map[string]string)

	doc.Find("tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("th, td")
		if cells.Length() != 2 {
			return
		}
		key := strings.TrimSpace(cells.Eq(0).Text())
		val := strings.TrimSpace(cells.Eq(1).Text())
		if key == "" || val == "" {
			return
		}
		if _, ok := specs[key]; ok {
			return // first occurrence wins
		}
		specs[key] = val
	})

	blockIndex := 0
	doc.Find("p, div").Each(func(_ int, block *goquery.Selection) {
		if block.Children().Length() > 0 {
			return // leaf blocks only, parents would duplicate child text
		}
		text := strings.TrimSpace(block.Text())
		if len(text) < e.cfg.SpecBlockMin || len(text) > e.cfg.SpecBlockMax {
			return
		}
		if !containsKeyword(text, e.cfg.SpecKeywords) {
			return
		}
		blockIndex++
		specs[fmt.Sprintf("block_%d", blockIndex)] = text
	})

	return specs
}

// extractFeatures collects short list items unconditionally and short leaf
// blocks when they hit the feature lexicon, deduplicated by exact text with
// the first occurrence kept, then capped.
func (e *Extractor) extractFeatures(doc *goquery.Document) []string {
	var features []string
	seen := make(map[string]bool)

	add := func(text string) {
		text = strings.TrimSpace(text)
		if len(text) <= e.cfg.FeatureMin || len(text) >= e.cfg.FeatureMax {
			return
		}
		if seen[text] {
			return
		}
		seen[text] = true
		features = append(features, text)
	}

	doc.Find("li").Each(func(_ int, li *goquery.Selection) {
		add(li.Text())
	})

	doc.Find("p, span").Each(func(_ int, block *goquery.Selection) {
		if block.Children().Length() > 0 {
			return
		}
		text := strings.TrimSpace(block.Text())
		if !containsKeyword(text, e.cfg.FeatureKeywords) {
			return
		}
		add(text)
	})

	if len(features) > e.cfg.FeatureCap {
		features = features[:e.cfg.FeatureCap]
	}
	return features
}

// extractImages collects every image source in tree order, excluding
// inline data URIs, capped.
func (e *Extractor) extractImages(doc *goquery.Document) []string {
	var images []string
	doc.Find("img").Each(func(_ int, img *goquery.Selection) {
		src, ok := img.Attr("src")
		if !ok || src == "" {
			return
		}
		if strings.HasPrefix(src, "data:") {
			return
		}
		images = append(images, src)
	})

	if len(images) > e.cfg.ImageCap {
		images = images[:e.cfg.ImageCap]
	}
	return images
}

func containsKeyword(text string, keywords []string) bool {
	lower := strings.ToLower(text)
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

package goquery_test

import (
	"strings"
	"testing"

	"github.com/AbhigyanVE/carspect"
	"github.com/AbhigyanVE/carspect/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ carspect.RuleExtractor = (*goquery.Extractor)(nil)

func extract(t *testing.T, html string) *carspect.PartialRecord {
	t.Helper()

	page, err := goquery.NewSanitizer().Clean(html)
	require.NoError(t, err)

	record, err := goquery.NewExtractor(carspect.DefaultRuleConfig()).Extract(page)
	require.NoError(t, err)
	return record
}

func TestExtractor_Price(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
		want string
	}{
		{"dollar with thousands separator", "Price: $19,499 drive away", "$19,499"},
		{"rupee symbol lakh format", "On sale at ₹12,50,000 only", "₹12,50,000"},
		{"textual marker with space", "Priced at INR 500000 ex-showroom", "INR 500000"},
		{"decimal amount", "From €24,999.50 incl. VAT", "€24,999.50"},
		{"bare number never matches", "Over 19499 units sold", ""},
		{"first match wins", "Was $24,999 now $19,499", "$24,999"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			record := extract(t, "<html><body><p>"+tt.text+"</p></body></html>")

			assert.Equal(t, tt.want, record.Price)
		})
	}
}

func TestExtractor_Specifications(t *testing.T) {
	t.Parallel()

	t.Run("pairs two-cell table rows", func(t *testing.T) {
		t.Parallel()

		html := `<html><body><table>
<tr><th>Engine</th><td>2.0L Turbo</td></tr>
<tr><td>Transmission</td><td>8-speed automatic</td></tr>
<tr><td>single cell row</td></tr>
<tr><td>a</td><td>b</td><td>c</td></tr>
</table></body></html>`

		record := extract(t, html)

		assert.Equal(t, "2.0L Turbo", record.Specifications["Engine"])
		assert.Equal(t, "8-speed automatic", record.Specifications["Transmission"])
		assert.Len(t, record.Specifications, 2)
	})

	t.Run("first occurrence of a key wins", func(t *testing.T) {
		t.Parallel()

		html := `<html><body><table>
<tr><td>Engine</td><td>2.0L Turbo</td></tr>
<tr><td>Engine</td><td>3.0L V6</td></tr>
</table></body></html>`

		record := extract(t, html)

		assert.Equal(t, "2.0L Turbo", record.Specifications["Engine"])
	})

	t.Run("keyword blocks get synthetic keys", func(t *testing.T) {
		t.Parallel()

		html := `<html><body>
<div>Powered by a 2.0L turbocharged engine producing 255 hp of output</div>
<div>This block mentions no vehicle terms at all and is long enough to qualify</div>
<div>engine</div>
</body></html>`

		record := extract(t, html)

		require.Contains(t, record.Specifications, "block_1")
		assert.Contains(t, record.Specifications["block_1"], "turbocharged engine")
		assert.Len(t, record.Specifications, 1)
	})

	t.Run("overlong blocks are skipped", func(t *testing.T) {
		t.Parallel()

		html := "<html><body><div>engine " + strings.Repeat("x", 400) + "</div></body></html>"

		record := extract(t, html)

		assert.Empty(t, record.Specifications)
	})
}

func TestExtractor_Features(t *testing.T) {
	t.Parallel()

	t.Run("collects list items", func(t *testing.T) {
		t.Parallel()

		html := `<html><body><ul>
<li>Panoramic sunroof</li>
<li>Heated leather seats</li>
</ul></body></html>`

		record := extract(t, html)

		assert.Equal(t, []string{"Panoramic sunroof", "Heated leather seats"}, record.Features)
	})

	t.Run("deduplicates keeping first occurrence", func(t *testing.T) {
		t.Parallel()

		html := `<html><body><ul>
<li>Leather seats</li>
<li>Leather seats</li>
<li>Sunroof deluxe</li>
</ul></body></html>`

		record := extract(t, html)

		assert.Equal(t, []string{"Leather seats", "Sunroof deluxe"}, record.Features)
	})

	t.Run("length window is exclusive", func(t *testing.T) {
		t.Parallel()

		html := `<html><body><ul>
<li>short one</li>
<li>` + strings.Repeat("very long feature ", 10) + `</li>
<li>Adaptive cruise control</li>
</ul></body></html>`

		record := extract(t, html)

		assert.Equal(t, []string{"Adaptive cruise control"}, record.Features)
	})

	t.Run("keyword blocks outside lists qualify", func(t *testing.T) {
		t.Parallel()

		html := `<html><body>
<p>Equipped with a premium sunroof option</p>
<p>Completely unrelated sentence here</p>
</body></html>`

		record := extract(t, html)

		assert.Equal(t, []string{"Equipped with a premium sunroof option"}, record.Features)
	})

	t.Run("caps the result", func(t *testing.T) {
		t.Parallel()

		var sb strings.Builder
		sb.WriteString("<html><body><ul>")
		for i := 0; i < 30; i++ {
			sb.WriteString("<li>Feature number ")
			sb.WriteString(strings.Repeat("x", i+1))
			sb.WriteString("</li>")
		}
		sb.WriteString("</ul></body></html>")

		record := extract(t, sb.String())

		assert.Len(t, record.Features, carspect.DefaultRuleConfig().FeatureCap)
	})
}

func TestExtractor_Images(t *testing.T) {
	t.Parallel()

	t.Run("collects sources in tree order", func(t *testing.T) {
		t.Parallel()

		html := `<html><body>
<img src="/img/front.jpg">
<img src="https://cdn.example.com/side.jpg">
<img alt="no source">
</body></html>`

		record := extract(t, html)

		assert.Equal(t, []string{"/img/front.jpg", "https://cdn.example.com/side.jpg"}, record.Images)
	})

	t.Run("excludes data URIs", func(t *testing.T) {
		t.Parallel()

		html := `<html><body>
<img src="data:image/png;base64,iVBORw0KGgo=">
<img src="/img/rear.jpg">
</body></html>`

		record := extract(t, html)

		assert.Equal(t, []string{"/img/rear.jpg"}, record.Images)
	})

	t.Run("caps the result", func(t *testing.T) {
		t.Parallel()

		var sb strings.Builder
		sb.WriteString("<html><body>")
		for i := 0; i < 25; i++ {
			sb.WriteString(`<img src="/img/photo.jpg">`)
		}
		sb.WriteString("</body></html>")

		record := extract(t, sb.String())

		assert.Len(t, record.Images, carspect.DefaultRuleConfig().ImageCap)
	})
}

func TestExtractor_NilPage(t *testing.T) {
	t.Parallel()

	_, err := goquery.NewExtractor(carspect.DefaultRuleConfig()).Extract(nil)

	require.Error(t, err)
	assert.Equal(t, carspect.EINVALID, carspect.ErrorCode(err))
}

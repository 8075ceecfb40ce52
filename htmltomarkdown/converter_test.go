package htmltomarkdown_test

import (
	"testing"

	"github.com/AbhigyanVE/carspect"
	"github.com/AbhigyanVE/carspect/htmltomarkdown"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Ensure Converter implements carspect.Converter at compile time.
var _ carspect.Converter = (*htmltomarkdown.Converter)(nil)

func TestConverter_Convert(t *testing.T) {
	t.Parallel()

	t.Run("converts basic paragraph", func(t *testing.T) {
		t.Parallel()

		conv := htmltomarkdown.NewConverter()
		md, err := conv.Convert(`<p>Well maintained, single owner.</p>`)

		require.NoError(t, err)
		assert.Contains(t, md, "Well maintained, single owner.")
	})

	t.Run("converts headings", func(t *testing.T) {
		t.Parallel()

		conv := htmltomarkdown.NewConverter()
		md, err := conv.Convert(`<h1>2021 BMW X5</h1><h2>Specifications</h2>`)

		require.NoError(t, err)
		assert.Contains(t, md, "# 2021 BMW X5")
		assert.Contains(t, md, "## Specifications")
	})

	t.Run("converts spec tables", func(t *testing.T) {
		t.Parallel()

		html := `<table>
<tr><th>Engine</th><td>2.0L Turbo</td></tr>
<tr><th>Transmission</th><td>8-speed automatic</td></tr>
</table>`

		conv := htmltomarkdown.NewConverter()
		md, err := conv.Convert(html)

		require.NoError(t, err)
		assert.Contains(t, md, "Engine")
		assert.Contains(t, md, "2.0L Turbo")
		assert.Contains(t, md, "|")
	})

	t.Run("converts feature lists", func(t *testing.T) {
		t.Parallel()

		conv := htmltomarkdown.NewConverter()
		md, err := conv.Convert(`<ul><li>Panoramic sunroof</li><li>Heated seats</li></ul>`)

		require.NoError(t, err)
		assert.Contains(t, md, "- Panoramic sunroof")
		assert.Contains(t, md, "- Heated seats")
	})

	t.Run("rejects empty input", func(t *testing.T) {
		t.Parallel()

		conv := htmltomarkdown.NewConverter()
		_, err := conv.Convert("   ")

		require.Error(t, err)
		assert.Equal(t, carspect.EINVALID, carspect.ErrorCode(err))
	})
}

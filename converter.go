package carspect

// Converter transforms cleaned HTML into Markdown. The pipeline uses it to
// build the context slice handed to the GapFiller: specification tables
// survive as markdown tables, which the completion reads far better than
// flattened text.
type Converter interface {
	Convert(html string) (markdown string, err error)
}

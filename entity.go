package carspect

import "context"

// EntityGroup is a named-entity category label.
type EntityGroup string

// Entity groups produced by the recognizer. ORG and MISC spans are the
// brand/model candidates; PER and LOC are surfaced but not used.
const (
	EntityOrg  EntityGroup = "ORG"
	EntityMisc EntityGroup = "MISC"
	EntityPer  EntityGroup = "PER"
	EntityLoc  EntityGroup = "LOC"
)

// EntityHint is a whole-word span recognized in page text.
type EntityHint struct {
	Text  string      `json:"text"`
	Group EntityGroup `json:"group"`
	Score float64     `json:"score"`
}

// Enricher runs named-entity recognition over a bounded text window.
// Implementations truncate input to a leading window before invoking the
// model: full-document recognition cost is unbounded and brand/model
// naming concentrates near the top of the page.
type Enricher interface {
	// Enrich returns recognized entity hints, aggregated to whole-word
	// spans, deduplicated by surface text and capped.
	Enrich(ctx context.Context, text string) ([]EntityHint, error)
}

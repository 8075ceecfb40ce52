package extract

import (
	"strings"

	"github.com/AbhigyanVE/carspect"
)

// RequiredFields are the fields that must be populated for a record to be
// complete without LLM help. Their absence is what triggers gap filling.
var RequiredFields = []string{"model_name", "variant", "description"}

// BuildRecord assembles a FinalRecord from rule output and advisory signals.
// The page title and ORG/MISC entity spans become model candidates; they are
// suggestions for review, never auto-promoted into ModelName.
func BuildRecord(partial *carspect.PartialRecord, title string, hints []carspect.EntityHint, candidateCap int) *carspect.FinalRecord {
	record := &carspect.FinalRecord{
		Price:          partial.Price,
		Specifications: partial.Specifications,
		Features:       partial.Features,
		Images:         partial.Images,
		Entities:       hints,
		Provenance:     make(map[string]carspect.Provenance),
	}
	if record.Specifications == nil {
		record.Specifications = map[string]string{}
	}
	if record.Features == nil {
		record.Features = []string{}
	}
	if record.Images == nil {
		record.Images = []string{}
	}

	record.ModelCandidates = modelCandidates(title, hints, candidateCap)

	record.Provenance["model_name"] = carspect.ProvenanceAbsent
	record.Provenance["variant"] = carspect.ProvenanceAbsent
	record.Provenance["description"] = carspect.ProvenanceAbsent
	record.Provenance["price"] = provenanceOf(record.Price != "")
	record.Provenance["specifications"] = provenanceOf(len(record.Specifications) > 0)
	record.Provenance["features"] = provenanceOf(len(record.Features) > 0)
	record.Provenance["images"] = provenanceOf(len(record.Images) > 0)

	return record
}

func provenanceOf(populated bool) carspect.Provenance {
	if populated {
		return carspect.ProvenanceRule
	}
	return carspect.ProvenanceAbsent
}

// modelCandidates collects the page title and brand/model entity spans,
// deduplicated with first occurrence kept, capped.
func modelCandidates(title string, hints []carspect.EntityHint, limit int) []string {
	var candidates []string
	seen := make(map[string]bool)

	add := func(text string) {
		text = strings.TrimSpace(text)
		if text == "" || seen[text] {
			return
		}
		seen[text] = true
		candidates = append(candidates, text)
	}

	add(title)
	for _, hint := range hints {
		if hint.Group != carspect.EntityOrg && hint.Group != carspect.EntityMisc {
			continue
		}
		add(hint.Text)
	}

	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates
}

// MissingRequired returns the required fields the record does not populate,
// in RequiredFields order.
func MissingRequired(record *carspect.FinalRecord) []string {
	var missing []string
	for _, field := range RequiredFields {
		switch field {
		case "model_name":
			if record.ModelName == "" {
				missing = append(missing, field)
			}
		case "variant":
			if record.Variant == "" {
				missing = append(missing, field)
			}
		case "description":
			if record.Description == "" {
				missing = append(missing, field)
			}
		}
	}
	return missing
}

// Merge folds LLM fields into the record. The merge is asymmetric: by
// default an LLM value only lands in a field the rules left empty, and
// specifications merge per key with existing keys kept. With overwrite set,
// non-empty LLM values replace rule values instead.
func Merge(record *carspect.FinalRecord, fields *carspect.LLMFields, overwrite bool) {
	if fields == nil {
		return
	}

	mergeString(&record.ModelName, fields.ModelName, "model_name", record, overwrite)
	mergeString(&record.Variant, fields.Variant, "variant", record, overwrite)
	mergeString(&record.Description, fields.Description, "description", record, overwrite)

	if len(fields.Specifications) > 0 {
		if record.Specifications == nil {
			record.Specifications = map[string]string{}
		}
		merged := false
		for key, val := range fields.Specifications {
			if val == "" {
				continue
			}
			if _, exists := record.Specifications[key]; exists && !overwrite {
				continue
			}
			record.Specifications[key] = val
			merged = true
		}
		if merged {
			record.Provenance["specifications"] = carspect.ProvenanceLLM
		}
	}

	if len(fields.Features) > 0 {
		if len(record.Features) == 0 || overwrite {
			record.Features = fields.Features
			record.Provenance["features"] = carspect.ProvenanceLLM
		}
	}
}

func mergeString(dst *string, src, field string, record *carspect.FinalRecord, overwrite bool) {
	if src == "" {
		return
	}
	if *dst != "" && !overwrite {
		return
	}
	*dst = src
	record.Provenance[field] = carspect.ProvenanceLLM
}

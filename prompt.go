package carspect

import (
	"encoding/json"
	"fmt"
	"strings"
)

// fillSchema maps field names to the JSON zero value shown in the prompt's
// output schema. Only the missing fields are requested.
var fillSchema = []struct {
	name string
	zero string
}{
	{"model_name", `""`},
	{"variant", `""`},
	{"specifications", `{}`},
	{"features", `[]`},
	{"description", `""`},
}

// BuildFillPrompt constructs the gap-fill prompt: the partial record as
// structured text, a bounded slice of page context, an explicit output
// schema listing the missing fields, and a directive to leave a field empty
// rather than invent a value. Shared by all GapFiller implementations so
// the prompt contract stays provider-independent.
func BuildFillPrompt(record *FinalRecord, missing []string, contextText string) string {
	partial, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		partial = []byte("{}")
	}

	want := make(map[string]bool, len(missing))
	for _, field := range missing {
		want[field] = true
	}

	var schema strings.Builder
	schema.WriteString("{\n")
	first := true
	for _, field := range fillSchema {
		if !want[field.name] {
			continue
		}
		if !first {
			schema.WriteString(",\n")
		}
		fmt.Fprintf(&schema, "  %q: %s", field.name, field.zero)
		first = false
	}
	schema.WriteString("\n}")

	var sb strings.Builder
	sb.WriteString("You are given partially extracted vehicle listing data.\n")
	sb.WriteString("Fill ONLY the missing fields listed in the output schema.\n")
	sb.WriteString("Do NOT invent values: if the context does not contain a field, leave it empty.\n\n")
	fmt.Fprintf(&sb, "Partial data:\n%s\n\n", partial)
	fmt.Fprintf(&sb, "Context text:\n%s\n\n", contextText)
	fmt.Fprintf(&sb, "Return a single JSON object with exactly these keys:\n%s\n", schema.String())
	return sb.String()
}

// DecodeLLMFields parses a completion payload strictly. The payload must be
// a single JSON object whose keys belong to the declared output schema; any
// parse failure or schema mismatch is an EEXTERNAL error.
func DecodeLLMFields(raw string) (*LLMFields, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, Errorf(EEXTERNAL, "completion returned an empty payload")
	}

	dec := json.NewDecoder(strings.NewReader(raw))
	dec.DisallowUnknownFields()

	var fields LLMFields
	if err := dec.Decode(&fields); err != nil {
		return nil, Errorf(EEXTERNAL, "completion payload is not valid schema JSON: %v", err)
	}
	if dec.More() {
		return nil, Errorf(EEXTERNAL, "completion payload contains trailing data")
	}
	return &fields, nil
}

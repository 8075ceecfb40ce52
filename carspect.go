// Package carspect turns vehicle-listing web pages into normalized
// structured records. It layers cheap deterministic extraction (regex,
// tag structure, keyword lexicons) under named-entity enrichment and a
// single schema-constrained LLM call that fills only the fields the
// cheaper stages left empty.
//
// This package contains domain types and interfaces following Ben Johnson's
// Standard Package Layout. Implementations live in subdirectories named
// after their primary dependency (e.g., goquery/, rod/, gemini/, sqlite/).
package carspect

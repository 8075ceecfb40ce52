package carspect

// RuleConfig holds the numeric thresholds and keyword lexicons of rule-based
// extraction. These are configuration, not constants: deployments targeting
// different listing sites override them, and DefaultRuleConfig documents the
// canonical set.
type RuleConfig struct {
	// CurrencyMarkers are the symbols and codes a price must start with.
	// A bare number with no marker is never a price.
	CurrencyMarkers []string

	// SpecBlockMin/SpecBlockMax bound the length of free-text blocks
	// accepted as specifications by the keyword-block strategy.
	SpecBlockMin int
	SpecBlockMax int

	// SpecKeywords is the technical lexicon a free-text block must hit to
	// count as a specification.
	SpecKeywords []string

	// FeatureMin/FeatureMax bound the length of feature candidates.
	FeatureMin int
	FeatureMax int

	// FeatureKeywords is the amenity/technology lexicon required for the
	// block strategy. List items need no keyword.
	FeatureKeywords []string

	// FeatureCap and ImageCap truncate the collected sequences.
	FeatureCap int
	ImageCap   int
}

// DefaultRuleConfig returns the canonical threshold set.
func DefaultRuleConfig() RuleConfig {
	return RuleConfig{
		CurrencyMarkers: []string{"₹", "$", "€", "£", "INR", "USD", "EUR", "Rs"},
		SpecBlockMin:    30,
		SpecBlockMax:    300,
		SpecKeywords: []string{
			"engine", "fuel", "power", "torque", "transmission", "mileage",
			"displacement", "bhp", "cc", "km/h", "mph", "top speed",
			"acceleration", "drivetrain", "gearbox",
		},
		FeatureMin: 10,
		FeatureMax: 120,
		FeatureKeywords: []string{
			"sunroof", "airbag", "touchscreen", "leather", "alloy", "camera",
			"cruise", "climate", "keyless", "bluetooth", "navigation",
			"wireless", "heated", "ventilated", "parking",
		},
		FeatureCap: 20,
		ImageCap:   10,
	}
}

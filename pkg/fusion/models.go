// Package fusion resolves raw passenger-name variants to canonical person
// entities using tiered match strategies and an auto-merge policy.
package fusion

// MatchType names the strategy that produced a merge candidate.
type MatchType string

const (
	MatchExact        MatchType = "exact_match"
	MatchAbbreviation MatchType = "abbreviation"
	MatchSubstring    MatchType = "substring"
	MatchFuzzy        MatchType = "fuzzy_match"
	MatchAIInferred   MatchType = "ai_inferred"
)

// PersonEntity is the single authoritative identity a group of name
// variants resolves to. Aliases always includes the canonical name itself.
type PersonEntity struct {
	ID            string   `json:"id"`
	CanonicalName string   `json:"canonical_name"`
	Aliases       []string `json:"aliases"`
	Confidence    float64  `json:"confidence"`
	FlightCount   int      `json:"flight_count"`
	Notes         string   `json:"notes,omitempty"`
}

// MergeCandidate proposes mapping a raw name onto an existing entity.
// AutoMerge marks candidates confident enough to apply without human
// confirmation.
type MergeCandidate struct {
	SourceName          string    `json:"source_name"`
	TargetEntityID      string    `json:"target_entity_id"`
	TargetCanonicalName string    `json:"target_canonical_name"`
	SimilarityScore     float64   `json:"similarity_score"`
	MatchType           MatchType `json:"match_type"`
	AutoMerge           bool      `json:"auto_merge"`
}

// NameCount is one row of the name-frequency snapshot the engine consumes.
type NameCount struct {
	Name  string
	Count int
}

// Config holds fusion thresholds. The engine is domain-neutral: the
// abbreviation table is user-supplied and empty by default.
type Config struct {
	// FuzzyThreshold is the minimum Jaro-Winkler similarity to propose a
	// fuzzy candidate at all.
	FuzzyThreshold float64

	// AutoMergeThreshold is the similarity at or above which a fuzzy
	// candidate is marked safe to auto-apply.
	AutoMergeThreshold float64

	// MinEntityFrequency is the flight count at which an unmapped name
	// seeds a new canonical entity.
	MinEntityFrequency int

	// KnownAbbreviations maps an abbreviation directly to a canonical
	// name; a hit short-circuits all other matching for that name.
	KnownAbbreviations map[string]string
}

// DefaultConfig returns the default fusion thresholds.
func DefaultConfig() Config {
	return Config{
		FuzzyThreshold:     0.85,
		AutoMergeThreshold: 0.95,
		MinEntityFrequency: 5,
	}
}

package fusion

import (
	"sort"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// titleTokens are honorifics stripped before abbreviation matching.
var titleTokens = map[string]struct{}{
	"MR.": {}, "MS.": {}, "MRS.": {}, "DR.": {},
}

// Engine resolves a name-frequency snapshot into canonical entities and
// merge candidates. It is a pure function of (config, snapshot, applied
// merges); it mutates only its own entity map and alias index. Entity IDs
// are fresh per run and not stable across independent runs.
type Engine struct {
	cfg    Config
	logger *zap.Logger

	entities   map[string]*PersonEntity // by ID
	order      []string                 // entity IDs in creation order
	aliasIndex map[string]string        // normalized alias -> entity ID
	unmapped   []string                 // names the last Analyze could not place
}

// NewEngine creates a fusion engine.
func NewEngine(cfg Config, logger *zap.Logger) *Engine {
	if cfg.FuzzyThreshold <= 0 {
		cfg.FuzzyThreshold = 0.85
	}
	if cfg.AutoMergeThreshold <= 0 {
		cfg.AutoMergeThreshold = 0.95
	}
	if cfg.MinEntityFrequency <= 0 {
		cfg.MinEntityFrequency = 5
	}
	return &Engine{
		cfg:        cfg,
		logger:     logger.Named("fusion"),
		entities:   make(map[string]*PersonEntity),
		aliasIndex: make(map[string]string),
	}
}

// normalizeName upper-cases, trims, and collapses internal whitespace.
func normalizeName(name string) string {
	return strings.Join(strings.Fields(strings.ToUpper(strings.TrimSpace(name))), " ")
}

// Analyze resolves a name-frequency snapshot in one pass, most frequent
// first. Each name is first matched against the entities seeded so far
// (the abbreviation table short-circuits everything else); an unmatched
// name with frequency at or above the seeding threshold becomes a new
// canonical entity. Matching before seeding is what keeps a frequent
// shorthand like "JE" an alias of the full name instead of an entity of
// its own. Names with no match are surfaced via Unmapped, never as errors.
func (e *Engine) Analyze(nameCounts []NameCount) []MergeCandidate {
	sorted := make([]NameCount, len(nameCounts))
	copy(sorted, nameCounts)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Count > sorted[j].Count
	})

	candidates := make([]MergeCandidate, 0)
	e.unmapped = e.unmapped[:0]

	for _, nc := range sorted {
		norm := normalizeName(nc.Name)
		if norm == "" {
			continue
		}
		if _, mapped := e.aliasIndex[norm]; mapped {
			continue
		}

		if c, ok := e.matchKnownAbbreviation(nc.Name, norm); ok {
			candidates = append(candidates, c)
			continue
		}

		if c, ok := e.bestMatch(nc.Name, norm); ok {
			candidates = append(candidates, c)
			continue
		}

		if nc.Count >= e.cfg.MinEntityFrequency {
			e.addEntity(norm, nc.Count)
			continue
		}

		e.unmapped = append(e.unmapped, nc.Name)
	}

	e.logger.Info("analysis complete",
		zap.Int("names", len(sorted)),
		zap.Int("entities", len(e.order)),
		zap.Int("candidates", len(candidates)),
		zap.Int("unmapped", len(e.unmapped)))

	return candidates
}

func (e *Engine) addEntity(canonical string, flightCount int) *PersonEntity {
	entity := &PersonEntity{
		ID:            uuid.NewString(),
		CanonicalName: canonical,
		Aliases:       []string{canonical},
		Confidence:    1.0,
		FlightCount:   flightCount,
	}
	e.entities[entity.ID] = entity
	e.order = append(e.order, entity.ID)
	e.aliasIndex[canonical] = entity.ID
	return entity
}

// matchKnownAbbreviation consults the user-supplied abbreviation table.
// A hit maps directly to the named canonical entity with full confidence.
func (e *Engine) matchKnownAbbreviation(source, norm string) (MergeCandidate, bool) {
	target, ok := e.cfg.KnownAbbreviations[norm]
	if !ok {
		target, ok = e.cfg.KnownAbbreviations[source]
	}
	if !ok {
		return MergeCandidate{}, false
	}

	targetNorm := normalizeName(target)
	for _, id := range e.order {
		if e.entities[id].CanonicalName == targetNorm {
			return MergeCandidate{
				SourceName:          source,
				TargetEntityID:      id,
				TargetCanonicalName: targetNorm,
				SimilarityScore:     1.0,
				MatchType:           MatchAbbreviation,
				AutoMerge:           true,
			}, true
		}
	}
	return MergeCandidate{}, false
}

// bestMatch scans all entities and keeps the single highest-scoring match.
// Per entity the strategies run in priority order: exact, abbreviation,
// substring, fuzzy. Ties keep the first entity found.
func (e *Engine) bestMatch(source, norm string) (MergeCandidate, bool) {
	var best MergeCandidate
	found := false

	for _, id := range e.order {
		entity := e.entities[id]

		c, ok := e.scoreAgainst(source, norm, entity)
		if !ok {
			continue
		}
		if !found || c.SimilarityScore > best.SimilarityScore {
			best = c
			found = true
		}
	}

	return best, found
}

func (e *Engine) scoreAgainst(source, norm string, entity *PersonEntity) (MergeCandidate, bool) {
	c := MergeCandidate{
		SourceName:          source,
		TargetEntityID:      entity.ID,
		TargetCanonicalName: entity.CanonicalName,
	}

	switch {
	case norm == entity.CanonicalName:
		c.SimilarityScore = 1.0
		c.MatchType = MatchExact
		c.AutoMerge = true

	case IsAbbreviation(norm, entity.CanonicalName):
		c.SimilarityScore = 0.95
		c.MatchType = MatchAbbreviation
		c.AutoMerge = true

	case IsPartialMatch(norm, entity.CanonicalName):
		c.SimilarityScore = 0.90
		c.MatchType = MatchSubstring
		c.AutoMerge = false // substrings always require confirmation

	default:
		sim := JaroWinkler(norm, entity.CanonicalName)
		if sim < e.cfg.FuzzyThreshold {
			return MergeCandidate{}, false
		}
		c.SimilarityScore = sim
		c.MatchType = MatchFuzzy
		c.AutoMerge = sim >= e.cfg.AutoMergeThreshold
	}

	return c, true
}

// IsAbbreviation reports whether candidate is an abbreviation of the
// canonical name: its letters equal the initials of each word (when the
// word count matches), or it equals the first or last word. Title tokens
// (MR., MS., MRS., DR.) are stripped first.
func IsAbbreviation(candidate, canonical string) bool {
	cand := normalizeName(candidate)
	words := significantWords(canonical)
	if cand == "" || len(words) == 0 {
		return false
	}

	if len(cand) == len(words) {
		initials := true
		for i, w := range words {
			if cand[i] != w[0] {
				initials = false
				break
			}
		}
		if initials {
			return true
		}
	}

	return cand == words[0] || cand == words[len(words)-1]
}

// IsPartialMatch reports whether candidate is a proper substring of the
// canonical name. Candidates shorter than three characters are rejected:
// two-letter fragments match far too much to be useful.
func IsPartialMatch(candidate, canonical string) bool {
	cand := normalizeName(candidate)
	canon := normalizeName(canonical)
	if len(cand) < 3 || cand == canon {
		return false
	}
	return strings.Contains(canon, cand)
}

func significantWords(name string) []string {
	var words []string
	for _, w := range strings.Fields(normalizeName(name)) {
		if _, title := titleTokens[w]; title {
			continue
		}
		words = append(words, w)
	}
	return words
}

// ApplyMerge appends the candidate's source name to the target entity's
// alias list (if not already present) and updates the alias index. It is
// the engine's only mutation path and never fails; merging onto an unknown
// entity is a no-op. A name already aliased elsewhere is silently
// repointed - latest wins.
func (e *Engine) ApplyMerge(c MergeCandidate) {
	entity, ok := e.entities[c.TargetEntityID]
	if !ok {
		return
	}

	norm := normalizeName(c.SourceName)
	present := false
	for _, a := range entity.Aliases {
		if a == norm {
			present = true
			break
		}
	}
	if !present {
		entity.Aliases = append(entity.Aliases, norm)
	}
	e.aliasIndex[norm] = entity.ID
}

// Entities returns the entity set in creation order.
func (e *Engine) Entities() []PersonEntity {
	out := make([]PersonEntity, 0, len(e.order))
	for _, id := range e.order {
		out = append(out, *e.entities[id])
	}
	return out
}

// ExportAliases flattens every entity's alias list into a flat
// alias -> canonical-name map. A canonical name maps to itself.
func (e *Engine) ExportAliases() map[string]string {
	aliases := make(map[string]string)
	for _, id := range e.order {
		entity := e.entities[id]
		for _, a := range entity.Aliases {
			aliases[a] = entity.CanonicalName
		}
	}
	return aliases
}

// Unmapped returns the names the last Analyze run could not place.
func (e *Engine) Unmapped() []string {
	out := make([]string, len(e.unmapped))
	copy(out, e.unmapped)
	return out
}

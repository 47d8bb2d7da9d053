package fusion

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
)

// WriteAliases writes the flat alias -> canonical-name map as JSON.
func WriteAliases(path string, aliases map[string]string) error {
	return writeJSONFile(path, aliases)
}

// WriteEntities writes the entity list as JSON.
func WriteEntities(path string, entities []PersonEntity) error {
	return writeJSONFile(path, entities)
}

// WriteCandidates writes the merge-candidate list as JSON.
func WriteCandidates(path string, candidates []MergeCandidate) error {
	return writeJSONFile(path, candidates)
}

// WriteSQL writes the alias map as a single transaction of INSERT OR
// REPLACE statements against the passenger_aliases table. The SQL is
// generated text for an external consumer; nothing here executes it.
func WriteSQL(path string, aliases map[string]string) error {
	keys := make([]string, 0, len(aliases))
	for k := range aliases {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString("BEGIN TRANSACTION;\n")
	for _, alias := range keys {
		fmt.Fprintf(&b, "INSERT OR REPLACE INTO passenger_aliases (alias, canonical_name) VALUES ('%s', '%s');\n",
			escapeSQL(alias), escapeSQL(aliases[alias]))
	}
	b.WriteString("COMMIT;\n")

	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// unmappedReportCap bounds the unmapped-name list in the report; beyond
// this the full set belongs in merge_candidates.json, not prose.
const unmappedReportCap = 50

// WriteReport writes the human-readable fusion summary: counts, resolved
// entities by flight count, a manual-review table, and a capped list of
// unmapped names.
func WriteReport(path string, entities []PersonEntity, candidates []MergeCandidate, unmapped []string) error {
	autoMerges := 0
	var review []MergeCandidate
	for _, c := range candidates {
		if c.AutoMerge {
			autoMerges++
		} else {
			review = append(review, c)
		}
	}

	byFlights := make([]PersonEntity, len(entities))
	copy(byFlights, entities)
	sort.SliceStable(byFlights, func(i, j int) bool {
		return byFlights[i].FlightCount > byFlights[j].FlightCount
	})

	sort.SliceStable(review, func(i, j int) bool {
		return review[i].SimilarityScore > review[j].SimilarityScore
	})

	var b strings.Builder
	b.WriteString("# Identity Fusion Report\n\n")
	fmt.Fprintf(&b, "- Canonical entities: %d\n", len(entities))
	fmt.Fprintf(&b, "- Merge candidates: %d (%d auto-merge, %d need review)\n",
		len(candidates), autoMerges, len(review))
	fmt.Fprintf(&b, "- Unmapped names: %d\n\n", len(unmapped))

	b.WriteString("## Resolved entities\n\n")
	b.WriteString("| Canonical name | Flights | Aliases |\n")
	b.WriteString("|---|---|---|\n")
	for _, e := range byFlights {
		fmt.Fprintf(&b, "| %s | %d | %s |\n", e.CanonicalName, e.FlightCount, strings.Join(e.Aliases, ", "))
	}
	b.WriteString("\n")

	b.WriteString("## Manual review\n\n")
	if len(review) == 0 {
		b.WriteString("No candidates need review.\n\n")
	} else {
		b.WriteString("| Name | Proposed entity | Score | Match type |\n")
		b.WriteString("|---|---|---|---|\n")
		for _, c := range review {
			fmt.Fprintf(&b, "| %s | %s | %.2f | %s |\n",
				c.SourceName, c.TargetCanonicalName, c.SimilarityScore, c.MatchType)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Unmapped names\n\n")
	if len(unmapped) == 0 {
		b.WriteString("None.\n")
	} else {
		shown := unmapped
		if len(shown) > unmappedReportCap {
			shown = shown[:unmappedReportCap]
		}
		for _, name := range shown {
			fmt.Fprintf(&b, "- %s\n", name)
		}
		if len(unmapped) > unmappedReportCap {
			fmt.Fprintf(&b, "- ... and %d more\n", len(unmapped)-unmappedReportCap)
		}
	}

	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// escapeSQL doubles single quotes for SQL string literals.
func escapeSQL(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

func writeJSONFile(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", path, err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

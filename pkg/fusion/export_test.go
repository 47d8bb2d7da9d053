package fusion

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteSQL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "apply_aliases.sql")
	require.NoError(t, WriteSQL(path, map[string]string{
		"JE":      "JEFFREY EPSTEIN",
		"O'BRIEN": "MARY O'BRIEN",
	}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	sql := string(data)

	assert.True(t, strings.HasPrefix(sql, "BEGIN TRANSACTION;\n"))
	assert.True(t, strings.HasSuffix(sql, "COMMIT;\n"))
	assert.Contains(t, sql, "INSERT OR REPLACE INTO passenger_aliases (alias, canonical_name) VALUES ('JE', 'JEFFREY EPSTEIN');")
	assert.Contains(t, sql, "VALUES ('O''BRIEN', 'MARY O''BRIEN');", "single quotes doubled")

	// Statements come out in sorted alias order for stable diffs.
	assert.Less(t, strings.Index(sql, "'JE'"), strings.Index(sql, "'O''BRIEN'"))
}

func TestWriteReport(t *testing.T) {
	entities := []PersonEntity{
		{ID: "a", CanonicalName: "SARAH KELLEN", Aliases: []string{"SARAH KELLEN"}, FlightCount: 20},
		{ID: "b", CanonicalName: "JEFFREY EPSTEIN", Aliases: []string{"JEFFREY EPSTEIN", "JE"}, FlightCount: 100},
	}
	candidates := []MergeCandidate{
		{SourceName: "JE", TargetCanonicalName: "JEFFREY EPSTEIN", SimilarityScore: 0.95, MatchType: MatchAbbreviation, AutoMerge: true},
		{SourceName: "EPST", TargetCanonicalName: "JEFFREY EPSTEIN", SimilarityScore: 0.90, MatchType: MatchSubstring},
	}

	path := filepath.Join(t.TempDir(), "fusion_report.md")
	require.NoError(t, WriteReport(path, entities, candidates, []string{"XQ"}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	report := string(data)

	assert.Contains(t, report, "Canonical entities: 2")
	assert.Contains(t, report, "Merge candidates: 2 (1 auto-merge, 1 need review)")
	assert.Contains(t, report, "Unmapped names: 1")
	assert.Contains(t, report, "| JEFFREY EPSTEIN | 100 | JEFFREY EPSTEIN, JE |")
	assert.Contains(t, report, "| EPST | JEFFREY EPSTEIN | 0.90 | substring |")
	assert.NotContains(t, report, "| JE | JEFFREY EPSTEIN | 0.95", "auto-merges stay out of the review table")
	assert.Contains(t, report, "- XQ")

	// Entities are listed by flight count, descending.
	assert.Less(t, strings.Index(report, "| JEFFREY EPSTEIN |"), strings.Index(report, "| SARAH KELLEN |"))
}

func TestWriteReport_CapsUnmappedList(t *testing.T) {
	unmapped := make([]string, unmappedReportCap+10)
	for i := range unmapped {
		unmapped[i] = "NAME"
	}

	path := filepath.Join(t.TempDir(), "fusion_report.md")
	require.NoError(t, WriteReport(path, nil, nil, unmapped))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	assert.Contains(t, string(data), "- ... and 10 more")
	assert.Equal(t, unmappedReportCap, strings.Count(string(data), "- NAME\n"))
}

func TestWriteEntitiesAndAliases(t *testing.T) {
	dir := t.TempDir()

	entities := []PersonEntity{{ID: "a", CanonicalName: "JEFFREY EPSTEIN", Aliases: []string{"JEFFREY EPSTEIN"}, Confidence: 1.0, FlightCount: 100}}
	require.NoError(t, WriteEntities(filepath.Join(dir, "entities.json"), entities))

	data, err := os.ReadFile(filepath.Join(dir, "entities.json"))
	require.NoError(t, err)
	var gotEntities []PersonEntity
	require.NoError(t, json.Unmarshal(data, &gotEntities))
	assert.Equal(t, entities, gotEntities)

	aliases := map[string]string{"JE": "JEFFREY EPSTEIN"}
	require.NoError(t, WriteAliases(filepath.Join(dir, "aliases.json"), aliases))

	data, err = os.ReadFile(filepath.Join(dir, "aliases.json"))
	require.NoError(t, err)
	var gotAliases map[string]string
	require.NoError(t, json.Unmarshal(data, &gotAliases))
	assert.Equal(t, aliases, gotAliases)
}

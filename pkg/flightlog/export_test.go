package flightlog

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLog() *MasterFlightLog {
	return &MasterFlightLog{
		Entries: []FlightLogEntry{
			{Date: "July 6, 1995", From: "TEB", To: "PBI", AircraftRegistration: "N908JE", Passengers: "JE; GM", SourcePage: 1},
			{Date: "July 7, 1995", From: "PBI", AircraftRegistration: "N908JE", Passengers: "JE", SourcePage: 1},
			{Date: "July 8, 1995", From: "PBI", To: "TEB", Passengers: "JE; SK; GM", SourcePage: 2},
		},
		TotalEntries:   3,
		PagesProcessed: 2,
	}
}

func TestWriteCSV_ExcludesIncompleteRoutes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flight_log.csv")
	require.NoError(t, WriteCSV(path, testLog()))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)

	require.Len(t, rows, 3, "header plus two complete rows")
	assert.Equal(t, csvHeader, rows[0])
	assert.Equal(t, []string{"July 6, 1995", "TEB", "PBI", "N908JE", "JE; GM", ""}, rows[1])
	assert.Equal(t, []string{"July 8, 1995", "PBI", "TEB", "", "JE; SK; GM", ""}, rows[2])
}

func TestWriteJSON_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "master_log.json")
	require.NoError(t, WriteJSON(path, testLog()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var got MasterFlightLog
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, 3, got.TotalEntries)
	require.Len(t, got.Entries, 3)
	// The incomplete route stays in the JSON export.
	assert.Equal(t, "", got.Entries[1].To)
}

func TestWritePageResult(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, WritePageResult(dir, PageExtractionResult{
		PageNumber: 7,
		ImagePath:  "pages/page-007.png",
		Entries:    []FlightLogEntry{{From: "TEB", To: "PBI", SourcePage: 7}},
	}))

	data, err := os.ReadFile(filepath.Join(dir, "page_007.json"))
	require.NoError(t, err)

	var got PageExtractionResult
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, 7, got.PageNumber)
	require.Len(t, got.Entries, 1)
}

func TestPassengerCounts(t *testing.T) {
	counts := PassengerCounts(testLog())

	assert.Equal(t, map[string]int{"JE": 3, "GM": 2, "SK": 1}, counts)
}

package flightlog

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// csvHeader is the fixed column set of the CSV export.
var csvHeader = []string{"date", "from", "to", "aircraft_registration", "passengers", "flight_number"}

// WriteJSON writes the master log as indented JSON.
func WriteJSON(path string, log *MasterFlightLog) error {
	return writeJSONFile(path, log)
}

// WriteCSV writes the six-column CSV export. Entries missing either airport
// are excluded: a row without both endpoints is useless for route analysis,
// though such entries remain in the JSON export.
func WriteCSV(path string, log *MasterFlightLog) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return fmt.Errorf("write CSV header: %w", err)
	}

	for _, e := range log.Entries {
		if e.From == "" || e.To == "" {
			continue
		}
		row := []string{e.Date, e.From, e.To, e.AircraftRegistration, e.Passengers, e.FlightNumber}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write CSV row: %w", err)
		}
	}

	w.Flush()
	return w.Error()
}

// WritePageResult writes one page's extraction result as page_NNN.json in
// the given directory, for debugging and re-runs.
func WritePageResult(dir string, result PageExtractionResult) error {
	path := filepath.Join(dir, fmt.Sprintf("page_%03d.json", result.PageNumber))
	return writeJSONFile(path, result)
}

// PassengerCounts tallies how many entries each passenger name appears in,
// the name-frequency snapshot the fusion engine consumes.
func PassengerCounts(log *MasterFlightLog) map[string]int {
	counts := make(map[string]int)
	for _, e := range log.Entries {
		if e.Passengers == "" {
			continue
		}
		for _, name := range splitPassengers(e.Passengers) {
			counts[name]++
		}
	}
	return counts
}

func splitPassengers(joined string) []string {
	var names []string
	for _, p := range strings.Split(joined, ";") {
		if name := strings.TrimSpace(p); name != "" {
			names = append(names, name)
		}
	}
	return names
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

package flightlog

import (
	"sort"

	"go.uber.org/zap"
)

// Aggregator merges page extraction results into one corrected master log.
type Aggregator struct {
	corrector *Corrector
	logger    *zap.Logger
}

// NewAggregator creates an Aggregator with the default corrector.
func NewAggregator(logger *zap.Logger) *Aggregator {
	return &Aggregator{
		corrector: NewCorrector(),
		logger:    logger.Named("aggregate"),
	}
}

// NewAggregatorWithCorrector creates an Aggregator with a caller-supplied
// corrector (custom confusion tables or airport allow-list).
func NewAggregatorWithCorrector(corrector *Corrector, logger *zap.Logger) *Aggregator {
	return &Aggregator{corrector: corrector, logger: logger.Named("aggregate")}
}

// Aggregate cleans every entry of every page result and merges them into a
// MasterFlightLog sorted by source page. Page-level errors are folded into
// the error count and detail list; they never abort aggregation.
func (a *Aggregator) Aggregate(results []PageExtractionResult) *MasterFlightLog {
	log := &MasterFlightLog{
		Entries:          []FlightLogEntry{},
		PagesProcessed:   len(results),
		UniqueAircraft:   []string{},
		UniqueAirports:   []string{},
		ProcessingErrors: []ProcessingError{},
	}

	aircraft := make(map[string]struct{})
	airports := make(map[string]struct{})

	for _, page := range results {
		if page.Error != "" {
			log.PagesWithErrors++
			log.ProcessingErrors = append(log.ProcessingErrors, ProcessingError{
				PageNumber: page.PageNumber,
				Error:      page.Error,
			})
			continue
		}

		for _, entry := range page.Entries {
			cleaned := a.cleanEntry(entry)

			if cleaned.AircraftRegistration != "" {
				aircraft[cleaned.AircraftRegistration] = struct{}{}
			}
			if cleaned.From != "" {
				airports[cleaned.From] = struct{}{}
			}
			if cleaned.To != "" {
				airports[cleaned.To] = struct{}{}
			}

			log.Entries = append(log.Entries, cleaned)
		}
	}

	sort.SliceStable(log.Entries, func(i, j int) bool {
		return log.Entries[i].SourcePage < log.Entries[j].SourcePage
	})
	sort.SliceStable(log.ProcessingErrors, func(i, j int) bool {
		return log.ProcessingErrors[i].PageNumber < log.ProcessingErrors[j].PageNumber
	})

	log.TotalEntries = len(log.Entries)
	log.UniqueAircraft = sortedKeys(aircraft)
	log.UniqueAirports = sortedKeys(airports)
	log.DateRange = dateRange(log.Entries)

	a.logger.Info("aggregation complete",
		zap.Int("entries", log.TotalEntries),
		zap.Int("pages", log.PagesProcessed),
		zap.Int("pages_with_errors", log.PagesWithErrors),
		zap.Int("unique_aircraft", len(log.UniqueAircraft)),
		zap.Int("unique_airports", len(log.UniqueAirports)))

	return log
}

// cleanEntry applies correction in order: tail number, airport codes,
// passenger names.
func (a *Aggregator) cleanEntry(entry FlightLogEntry) FlightLogEntry {
	entry.AircraftRegistration = a.corrector.CleanTailNumber(entry.AircraftRegistration)
	entry.From = a.corrector.CleanAirportCode(entry.From)
	entry.To = a.corrector.CleanAirportCode(entry.To)
	entry.Passengers = CleanPassengers(entry.Passengers)
	return entry
}

// dateRange takes the first and last non-empty date string in post-sort
// order. This trusts the source log to be chronological; the strings are
// free text and are not parsed.
func dateRange(entries []FlightLogEntry) DateRange {
	var dr DateRange
	for _, e := range entries {
		if e.Date == "" {
			continue
		}
		if dr.First == "" {
			dr.First = e.Date
		}
		dr.Last = e.Date
	}
	return dr
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Package flightlog defines the flight-log data model and the aggregation
// and OCR-correction steps that turn per-page extraction results into a
// single corrected master log.
package flightlog

// FlightLogEntry is one row of a flight log. All fields are best-effort
// transcriptions and may be absent; SourcePage is always populated after
// aggregation, and is never set by the extraction call itself.
type FlightLogEntry struct {
	Date                 string `json:"date,omitempty"`
	From                 string `json:"from,omitempty"`
	To                   string `json:"to,omitempty"`
	AircraftRegistration string `json:"aircraft_registration,omitempty"`
	Passengers           string `json:"passengers,omitempty"`
	FlightNumber         string `json:"flight_number,omitempty"`
	SourcePage           int    `json:"source_page"`
}

// PageExtractionResult is the per-page outcome of vision extraction.
// Error is set iff the extraction call failed, in which case Entries is
// empty. A page can legitimately have zero entries without an error (blank
// page, or a response that could not be parsed; RawResponse keeps the
// model output for diagnosis either way).
type PageExtractionResult struct {
	PageNumber  int              `json:"page_number"`
	ImagePath   string           `json:"image_path"`
	Entries     []FlightLogEntry `json:"entries"`
	RawResponse string           `json:"raw_response,omitempty"`
	Error       string           `json:"error,omitempty"`
}

// ProcessingError records one failed page in the master log.
type ProcessingError struct {
	PageNumber int    `json:"page_number"`
	Error      string `json:"error"`
}

// DateRange is the best-effort first/last non-empty date string in page
// order. It assumes the source log is already chronological; the strings
// are free text and are not validated as dates.
type DateRange struct {
	First string `json:"first,omitempty"`
	Last  string `json:"last,omitempty"`
}

// MasterFlightLog is the corrected, page-ordered union of all page results.
type MasterFlightLog struct {
	Entries          []FlightLogEntry  `json:"entries"`
	TotalEntries     int               `json:"total_entries"`
	PagesProcessed   int               `json:"pages_processed"`
	PagesWithErrors  int               `json:"pages_with_errors"`
	UniqueAircraft   []string          `json:"unique_aircraft"`
	UniqueAirports   []string          `json:"unique_airports"`
	DateRange        DateRange         `json:"date_range"`
	ProcessingErrors []ProcessingError `json:"processing_errors"`
}

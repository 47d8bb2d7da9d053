package vision

// extractionInstruction is the fixed per-page instruction. It pins the
// output schema, the date-reconstruction rule for logs where the month and
// year appear only as a column header, and guidance for the handwriting
// confusions the aggregator later corrects.
const extractionInstruction = `You are an expert data entry specialist transcribing a scanned page from a handwritten aircraft flight log.

Extract EVERY flight entry visible on this page. Transcribe VERBATIM - do not summarize, correct spelling, or invent values you cannot see.

DATE RECONSTRUCTION RULES:
- The year and month usually appear ONCE as a column header or at the top of the page; individual rows carry only the day number.
- Reconstruct each row's full date from the most recent month/year header above it.
- If a day number DECREASES relative to the previous row, the month has rolled over: advance to the next month.
- If a new month name or abbreviation appears inline in a row, switch to that month from that row onward.
- If the month or year is genuinely not visible anywhere, record just what is written (e.g. "14").

TAIL NUMBERS AND AIRPORT CODES:
- US aircraft registrations start with N followed by digits and up to two letters (e.g. N908JE).
- Handwriting confuses O/0, I/1, S/5, B/8, Z/2, G/6 - transcribe what you SEE; do not guess corrections.
- Airport codes are 3-letter IATA or 4-letter ICAO codes (e.g. TEB, PBI, KTEB).

PASSENGERS:
- List every passenger name in the entry, joined with semicolons.
- Keep initials and abbreviations exactly as written (e.g. "JE; GM; 1 female").

Respond with ONLY a JSON array, no commentary, one object per flight entry:
[
  {
    "date": "full reconstructed date or null",
    "from": "departure airport code or null",
    "to": "arrival airport code or null",
    "aircraft_registration": "tail number or null",
    "passengers": "name; name; name or null",
    "flight_number": "flight number or null"
  }
]

If the page contains no flight entries (cover page, blank page, notes), respond with [].`

// ExtractionInstruction returns the fixed extraction prompt. Exposed for
// the --dry-run inspection path and for tests.
func ExtractionInstruction() string { return extractionInstruction }

package flightlog

import (
	"strings"
	"unicode"
)

// The confusion tables encode how handwritten characters get misread when
// the surrounding context tells us what character class to expect. They are
// data, not control flow: a different alphabet or registration jurisdiction
// swaps the tables on the Corrector without touching the algorithm.
// Case matters before normalization: a lowercase b reads as 6, an uppercase
// B as 8; a lowercase q as 9, an uppercase Q as 0.
var defaultDigitFor = map[rune]rune{
	'O': '0', 'Q': '0', 'D': '0',
	'I': '1', 'l': '1', 'L': '1', '|': '1',
	'Z': '2',
	'E': '3',
	'A': '4', 'h': '4',
	'S': '5', 's': '5',
	'G': '6', 'b': '6',
	'T': '7',
	'B': '8',
	'g': '9', 'q': '9',
}

var defaultLetterFor = map[rune]rune{
	'0': 'O',
	'1': 'I',
	'2': 'Z',
	'3': 'E',
	'4': 'A',
	'5': 'S',
	'6': 'G',
	'7': 'T',
	'8': 'B',
	'9': 'Q',
}

// defaultKnownAirports is the allow-list of airport codes seen in the
// source logs. A cleaned code already on the list is accepted as-is; a
// corrected code is accepted only if the correction lands on the list.
var defaultKnownAirports = []string{
	// US IATA
	"ABQ", "ATL", "BED", "BOS", "CMH", "CYS", "DCA", "EWR", "HPN", "IAD",
	"JFK", "LAX", "LGA", "MIA", "OPF", "ORD", "PBI", "PHL", "SAF", "SFO",
	"SJU", "STT", "TEB", "VNY",
	// US ICAO
	"KABQ", "KATL", "KBED", "KBOS", "KCMH", "KCYS", "KDCA", "KEWR", "KHPN",
	"KIAD", "KJFK", "KLAX", "KLGA", "KMIA", "KOPF", "KORD", "KPBI", "KPHL",
	"KSAF", "KSFO", "KTEB", "KVNY",
	// Caribbean / international
	"TIST", "TJSJ", "MBPV", "MYNN", "LFPB", "LFPG", "EGGW", "EGLF", "GMMX",
	"LIRA", "LSGG", "LLBG", "FAGM", "OMDB", "VABB",
}

// Corrector applies character-confusion correction under domain-specific
// shape constraints: tail numbers expect digits then a letter suffix,
// airport codes expect letters.
type Corrector struct {
	digitFor      map[rune]rune
	letterFor     map[rune]rune
	knownAirports map[string]struct{}
}

// NewCorrector returns a Corrector with the default confusion tables and
// airport allow-list.
func NewCorrector() *Corrector {
	airports := make(map[string]struct{}, len(defaultKnownAirports))
	for _, code := range defaultKnownAirports {
		airports[code] = struct{}{}
	}
	return &Corrector{
		digitFor:      defaultDigitFor,
		letterFor:     defaultLetterFor,
		knownAirports: airports,
	}
}

// NewCorrectorWithTables returns a Corrector with caller-supplied tables,
// for jurisdictions with different registration formats.
func NewCorrectorWithTables(digitFor, letterFor map[rune]rune, knownAirports []string) *Corrector {
	airports := make(map[string]struct{}, len(knownAirports))
	for _, code := range knownAirports {
		airports[strings.ToUpper(code)] = struct{}{}
	}
	return &Corrector{digitFor: digitFor, letterFor: letterFor, knownAirports: airports}
}

// CleanTailNumber normalizes a US aircraft registration: trims, strips the
// stray "N-" prefix artifact, prepends N when the string starts with a
// digit, then reinterprets the body positionally. A trailing run of up to
// two letters keeps its letter reading; everything before it is coerced
// toward digits.
func (c *Corrector) CleanTailNumber(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}

	if len(s) >= 2 && (s[0] == 'N' || s[0] == 'n') && s[1] == '-' {
		s = s[:1] + s[2:]
	}
	if s[0] >= '0' && s[0] <= '9' {
		s = "N" + s
	}
	if s[0] != 'N' && s[0] != 'n' {
		// Not a US registration; leave foreign formats alone.
		return strings.ToUpper(s)
	}

	body := []rune(s[1:])
	suffixStart := len(body)
	for suffixStart > 0 && suffixStart > len(body)-2 && unicode.IsLetter(body[suffixStart-1]) {
		suffixStart--
	}

	out := make([]rune, 0, len(body)+1)
	out = append(out, 'N')
	for i, r := range body {
		if i < suffixStart {
			out = append(out, c.toDigit(r))
		} else {
			out = append(out, c.toLetter(r))
		}
	}
	return strings.ToUpper(string(out))
}

// CleanAirportCode normalizes an airport code. Codes outside length 3-4 are
// returned unchanged (trimmed/uppercased); codes already on the allow-list
// are accepted as-is; otherwise the letter-coercion heuristic is applied and
// the corrected value is accepted only if it now matches the allow-list.
func (c *Corrector) CleanAirportCode(raw string) string {
	code := strings.ToUpper(strings.TrimSpace(raw))
	if len(code) < 3 || len(code) > 4 {
		return code
	}
	if _, ok := c.knownAirports[code]; ok {
		return code
	}

	fixed := make([]rune, 0, len(code))
	for _, r := range code {
		fixed = append(fixed, c.toLetter(r))
	}
	if candidate := string(fixed); candidate != code {
		if _, ok := c.knownAirports[candidate]; ok {
			return candidate
		}
	}
	return code
}

// CleanPassengers splits a semicolon-joined passenger list, trims each
// name, drops empties, and rejoins. An all-empty result becomes absent
// rather than an empty string.
func CleanPassengers(raw string) string {
	parts := strings.Split(raw, ";")
	names := make([]string, 0, len(parts))
	for _, p := range parts {
		if name := strings.TrimSpace(p); name != "" {
			names = append(names, name)
		}
	}
	return strings.Join(names, "; ")
}

func (c *Corrector) toDigit(r rune) rune {
	if r >= '0' && r <= '9' {
		return r
	}
	if d, ok := c.digitFor[r]; ok {
		return d
	}
	return r
}

func (c *Corrector) toLetter(r rune) rune {
	if unicode.IsLetter(r) {
		return r
	}
	if l, ok := c.letterFor[r]; ok {
		return l
	}
	return r
}

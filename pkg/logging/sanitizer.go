package logging

import "regexp"

// RedactedText is the replacement text for sensitive data.
const RedactedText = "[REDACTED]"

var (
	// Matches API keys passed as key=value pairs or Anthropic-style tokens.
	apiKeyPattern  = regexp.MustCompile(`(?i)(api[_-]?key|apikey|x-api-key)[=:]\s*[A-Za-z0-9-_]{16,}`)
	skTokenPattern = regexp.MustCompile(`\bsk-[A-Za-z0-9-_]{16,}`)

	// Matches bearer tokens in error strings bubbled up from HTTP clients.
	bearerPattern = regexp.MustCompile(`Bearer\s+[A-Za-z0-9-_.]+`)
)

// SanitizeError strips credentials from an error message before logging.
// Vision-service errors can echo request headers back on auth failures.
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}
	s := apiKeyPattern.ReplaceAllString(err.Error(), "${1}="+RedactedText)
	s = skTokenPattern.ReplaceAllString(s, RedactedText)
	s = bearerPattern.ReplaceAllString(s, "Bearer "+RedactedText)
	return s
}

// TruncateString truncates a string to maxLen and adds ellipsis if needed.
// Used to keep raw model responses out of full log lines.
func TruncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

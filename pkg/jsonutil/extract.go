// Package jsonutil extracts structured JSON from messy model output.
// Malformed responses are an expected occurrence, not an exceptional one,
// so extraction is a first-class, independently testable step.
package jsonutil

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// fencePattern matches a markdown code fence with optional language tag,
// capturing the fenced content.
var fencePattern = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")

// ExtractArray locates a JSON array inside a model response that may be a
// bare array, fenced in a markdown code block, or surrounded by explanatory
// text. Strategies, in order:
//  1. trust a leading '[' and take the balanced array from there;
//  2. extract the content of a fenced code block;
//  3. take the span between the first '[' and the last ']'.
func ExtractArray(response string) (string, error) {
	trimmed := strings.TrimSpace(response)
	if trimmed == "" {
		return "", fmt.Errorf("empty response")
	}

	if strings.HasPrefix(trimmed, "[") {
		if arr, ok := extractBalanced(trimmed, '[', ']'); ok && json.Valid([]byte(arr)) {
			return arr, nil
		}
	}

	if m := fencePattern.FindStringSubmatch(trimmed); len(m) >= 2 {
		fenced := strings.TrimSpace(m[1])
		if arr, ok := extractBalanced(fenced, '[', ']'); ok && json.Valid([]byte(arr)) {
			return arr, nil
		}
	}

	start := strings.IndexByte(trimmed, '[')
	end := strings.LastIndexByte(trimmed, ']')
	if start >= 0 && end > start {
		span := trimmed[start : end+1]
		if json.Valid([]byte(span)) {
			return span, nil
		}
		// The widest span can swallow trailing prose containing ']';
		// fall back to the first balanced array.
		if arr, ok := extractBalanced(trimmed, '[', ']'); ok && json.Valid([]byte(arr)) {
			return arr, nil
		}
	}

	return "", fmt.Errorf("no valid JSON array found in response")
}

// ParseArray extracts a JSON array from a response and unmarshals it into
// a slice of T.
func ParseArray[T any](response string) ([]T, error) {
	arr, err := ExtractArray(response)
	if err != nil {
		return nil, err
	}

	var result []T
	if err := json.Unmarshal([]byte(arr), &result); err != nil {
		return nil, fmt.Errorf("unmarshal JSON array: %w", err)
	}
	return result, nil
}

// extractBalanced finds the first balanced structure starting with openChar,
// counting bracket depth and skipping string literals.
func extractBalanced(s string, openChar, closeChar byte) (string, bool) {
	start := strings.IndexByte(s, openChar)
	if start == -1 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(s); i++ {
		c := s[i]

		if escaped {
			escaped = false
			continue
		}
		if c == '\\' && inString {
			escaped = true
			continue
		}
		if c == '"' {
			inString = !inString
			continue
		}
		if inString {
			continue
		}

		if c == openChar {
			depth++
		} else if c == closeChar {
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}

	return "", false
}

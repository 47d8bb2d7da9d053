package fusion

import "strings"

// JaroWinkler computes Jaro-Winkler similarity in [0,1], case-insensitive.
// Identical strings short-circuit to 1.0; the Winkler refinement adds a
// prefix bonus of 0.1 per common leading character, capped at four.
func JaroWinkler(s1, s2 string) float64 {
	a := strings.ToUpper(s1)
	b := strings.ToUpper(s2)

	if a == b {
		if a == "" {
			return 0
		}
		return 1.0
	}

	j := jaro(a, b)

	prefix := 0
	for prefix < len(a) && prefix < len(b) && prefix < 4 && a[prefix] == b[prefix] {
		prefix++
	}

	return j + 0.1*float64(prefix)*(1-j)
}

// jaro computes the standard Jaro similarity with a matching window of
// max(len1,len2)/2 - 1 and transposition counting over matched pairs.
func jaro(a, b string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	window := len(a)
	if len(b) > window {
		window = len(b)
	}
	window = window/2 - 1
	if window < 0 {
		window = 0
	}

	aMatched := make([]bool, len(a))
	bMatched := make([]bool, len(b))

	matches := 0
	for i := 0; i < len(a); i++ {
		lo := i - window
		if lo < 0 {
			lo = 0
		}
		hi := i + window + 1
		if hi > len(b) {
			hi = len(b)
		}
		for j := lo; j < hi; j++ {
			if bMatched[j] || a[i] != b[j] {
				continue
			}
			aMatched[i] = true
			bMatched[j] = true
			matches++
			break
		}
	}

	if matches == 0 {
		return 0
	}

	transpositions := 0
	j := 0
	for i := 0; i < len(a); i++ {
		if !aMatched[i] {
			continue
		}
		for !bMatched[j] {
			j++
		}
		if a[i] != b[j] {
			transpositions++
		}
		j++
	}
	transpositions /= 2

	m := float64(matches)
	return (m/float64(len(a)) + m/float64(len(b)) + (m-float64(transpositions))/m) / 3
}

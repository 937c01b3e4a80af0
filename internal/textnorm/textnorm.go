// Package textnorm holds the text normalisation shared by keyword extraction,
// similarity scoring and semantic matching.
package textnorm

import (
	"regexp"
	"strings"
)

var (
	reNonToken = regexp.MustCompile(`[^a-z0-9 +#]+`)
	reSpaces   = regexp.MustCompile(` {2,}`)
	// segment boundaries: line breaks and sentence punctuation followed by space or end.
	reSegment = regexp.MustCompile(`[\r\n]+|[.!?;•]+(?:\s+|$)`)
)

// Normalize lowercases s, replaces every character outside [a-z0-9 +#] with a
// space, collapses repeated spaces and trims the result.
// Normalize(Normalize(s)) == Normalize(s) for every s.
func Normalize(s string) string {
	s = strings.ToLower(s)
	s = reNonToken.ReplaceAllString(s, " ")
	s = reSpaces.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// Tokens splits an already normalised string into tokens.
func Tokens(normalized string) []string {
	if normalized == "" {
		return nil
	}
	return strings.Split(normalized, " ")
}

// ContainsPhrase reports whether a normalised phrase occurs in a normalised
// text on token boundaries: "rest api" matches "use rest api daily" but not
// "rest apis".
func ContainsPhrase(normalizedText, normalizedPhrase string) bool {
	if normalizedPhrase == "" || normalizedText == "" {
		return false
	}
	return strings.Contains(" "+normalizedText+" ", " "+normalizedPhrase+" ")
}

// NGrams returns every contiguous run of minN..maxN tokens, grouped by length
// and in order of appearance within each length.
func NGrams(tokens []string, minN, maxN int) []string {
	if minN < 1 {
		minN = 1
	}
	var out []string
	for n := minN; n <= maxN; n++ {
		for i := 0; i+n <= len(tokens); i++ {
			out = append(out, strings.Join(tokens[i:i+n], " "))
		}
	}
	return out
}

// Segments splits raw text into sentence-like pieces, normalising each one.
// Empty pieces are dropped.
func Segments(raw string) []string {
	parts := reSegment.Split(raw, -1)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if n := Normalize(p); n != "" {
			out = append(out, n)
		}
	}
	return out
}

package entity

import (
	"strings"
	"unicode"
)

// Severity is an accident damage label as produced by the text or vision
// service. Labels are compared after normalization, never verbatim.
type Severity string

// Canonical severity labels
const (
	SeverityMinor    Severity = "Minor"
	SeverityModerate Severity = "Moderate"
	SeveritySevere   Severity = "Severe"
	SeverityUnknown  Severity = "Unknown"
)

// Normalize returns the trimmed, lower-cased label
func (s Severity) Normalize() string {
	return strings.ToLower(strings.TrimSpace(string(s)))
}

// IsUnknown reports whether the label carries no severity.
// An empty label counts as unknown.
func (s Severity) IsUnknown() bool {
	n := s.Normalize()
	return n == "" || n == "unknown"
}

// Display returns the normalized label in title case, "Unknown" when empty
func (s Severity) Display() string {
	n := s.Normalize()
	if n == "" {
		return string(SeverityUnknown)
	}
	return TitleCase(n)
}

// TitleCase upper-cases the first letter of every word and lower-cases the
// rest. A word starts after any non-letter rune.
func TitleCase(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	prevLetter := false
	for _, r := range s {
		if prevLetter {
			b.WriteRune(unicode.ToLower(r))
		} else {
			b.WriteRune(unicode.ToUpper(r))
		}
		prevLetter = unicode.IsLetter(r)
	}
	return b.String()
}

package audit

import (
	"math"
	"strconv"
	"strings"
)

// formatSeconds renders a float so whole values keep one decimal ("155.0")
func formatSeconds(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// formatThreshold renders the configured threshold as written ("5", "2.5")
func formatThreshold(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// roundDisplay trims float noise from a delta before it reaches a note.
// Comparison always uses the unrounded value.
func roundDisplay(v float64) float64 {
	return math.Round(v*1000) / 1000
}

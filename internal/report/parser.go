// Package report extracts the claims of a written incident report: when the
// collision happened and how severe it was.
package report

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/garyjia/evidence-check/internal/domain/entity"
)

// ErrNoText is returned when there is no report text to parse
var ErrNoText = errors.New("no text to process")

// snippetLength is the number of characters kept for display
const snippetLength = 100

var (
	// A labeled time ("Time: 10:30 PM", "occurred at 00:02:32"). Scanned forms
	// often read digits as look-alike letters, so those are accepted here and
	// repaired in parseClock.
	labeledTimePattern = regexp.MustCompile(
		`(?i)\b(?:time|at)[:\s.]*([0-9OQDILZSBG]{1,2}\s*[:.]\s*[0-9OQDILZSBG]{2}(?:\s*[:.]\s*[0-9OQDILZSBG]{2})?)(?:\s*(AM|PM)\b)?`)

	// A bare clock anywhere in the text
	bareTimePattern = regexp.MustCompile(
		`\b([0-9OQlI]{1,2}:[0-9OQlI]{2}(?::[0-9OQlI]{2})?)\b(?:\s*([AaPp][Mm])\b)?`)

	nonClockChars = regexp.MustCompile(`[^0-9:]`)

	ocrDigits = strings.NewReplacer(
		"O", "0", "Q", "0", "D", "0",
		"I", "1", "L", "1", "|", "1",
		"Z", "2",
		"S", "5",
		"B", "8",
		"G", "6",
	)
)

type spellingFix struct {
	pattern *regexp.Regexp // any of the misreadings, whole word
	word    string
}

// Misreadings seen in scanned and handwritten reports
var spellingFixes = []spellingFix{
	fix("severe", "sever", "sevre", "svere", "seyere", "5evere", "severc", "sevcre"),
	fix("fatal", "fata1", "fatai", "fatsl"),
	fix("minor", "mincr", "minar", "rninor", "mlnor", "ninor", "mimor"),
	fix("moderate", "moberate", "noderate", "modr8", "modrate"),
}

type severityRule struct {
	level    entity.Severity
	keywords []*regexp.Regexp
}

// Checked in order; the first level with a matching keyword wins
var severityRules = []severityRule{
	{entity.SeveritySevere, compileKeywords("severe", "fatal", "critical", "major", "crushed", "destroyed")},
	{entity.SeverityModerate, compileKeywords("moderate", "medium", "dent", "bumper")},
	{entity.SeverityMinor, compileKeywords("minor", "scratch", "fender bender", "light", "scuff")},
}

// Parser is a rule-based report parser
type Parser struct {
	logger *zap.Logger
}

// NewParser creates a new report parser
func NewParser(logger *zap.Logger) *Parser {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Parser{logger: logger}
}

// Process extracts a TextObservation from report text
func (p *Parser) Process(text string) (*entity.TextObservation, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrNoText
	}

	clean := strings.ReplaceAll(strings.ReplaceAll(text, "\r\n", " "), "\n", " ")

	return &entity.TextObservation{
		ReportedTimeSeconds: p.ExtractTime(clean),
		ReportedSeverity:    p.ExtractSeverity(clean),
		RawTextSnippet:      snippet(clean),
	}, nil
}

// ExtractTime finds the reported time of impact as seconds since midnight
func (p *Parser) ExtractTime(text string) entity.Optional[int] {
	if m := labeledTimePattern.FindStringSubmatch(text); m != nil {
		p.logger.Debug("Time found (labeled)", zap.String("match", strings.TrimSpace(m[0])))
		if secs, ok := parseClock(m[1], m[2]); ok {
			return entity.Some(secs)
		}
	}

	if m := bareTimePattern.FindStringSubmatch(text); m != nil {
		p.logger.Debug("Time found (bare)", zap.String("match", strings.TrimSpace(m[0])))
		if secs, ok := parseClock(m[1], m[2]); ok {
			return entity.Some(secs)
		}
	}

	return entity.None[int]()
}

// ExtractSeverity classifies the reported damage, Unknown when nothing matches
func (p *Parser) ExtractSeverity(text string) entity.Severity {
	lower := strings.ToLower(text)
	for _, fix := range spellingFixes {
		lower = fix.pattern.ReplaceAllString(lower, fix.word)
	}

	for _, rule := range severityRules {
		for _, kw := range rule.keywords {
			if kw.MatchString(lower) {
				p.logger.Debug("Severity found",
					zap.String("severity", string(rule.level)),
					zap.String("keyword", kw.String()))
				return rule.level
			}
		}
	}
	return entity.SeverityUnknown
}

// parseClock converts "H:MM[:SS]" with an optional meridian to seconds since
// midnight. Out-of-range clocks are rejected.
func parseClock(clock, meridian string) (int, bool) {
	s := strings.ToUpper(strings.TrimSpace(clock))
	meridian = strings.ToUpper(meridian)

	s = ocrDigits.Replace(s)
	s = strings.ReplaceAll(s, ".", ":")
	s = nonClockChars.ReplaceAllString(s, "")

	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, false
	}

	var fields [3]int
	for i, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil {
			return 0, false
		}
		fields[i] = n
	}
	hours, minutes, seconds := fields[0], fields[1], fields[2]

	switch meridian {
	case "PM":
		if hours < 12 {
			hours += 12
		}
	case "AM":
		if hours == 12 {
			hours = 0
		}
	}

	if hours > 23 || minutes > 59 || seconds > 59 {
		return 0, false
	}
	return hours*3600 + minutes*60 + seconds, true
}

func snippet(text string) string {
	if utf8.RuneCountInString(text) <= snippetLength {
		return text
	}
	runes := []rune(text)
	return string(runes[:snippetLength]) + "..."
}

func compileKeywords(words ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(words))
	for _, w := range words {
		out = append(out, regexp.MustCompile(`\b`+regexp.QuoteMeta(w)+`\b`))
	}
	return out
}

func fix(word string, misreadings ...string) spellingFix {
	quoted := make([]string, len(misreadings))
	for i, m := range misreadings {
		quoted[i] = regexp.QuoteMeta(m)
	}
	return spellingFix{
		pattern: regexp.MustCompile(`\b(?:` + strings.Join(quoted, "|") + `)\b`),
		word:    word,
	}
}

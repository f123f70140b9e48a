// Package audit reconciles a written incident report with video evidence
// of the same collision and produces a scored, itemized verdict.
//
// The engine is pure: it performs no I/O, keeps no state between calls and
// holds only immutable configuration, so one instance may be shared by any
// number of goroutines.
package audit

import (
	"fmt"
	"math"

	"github.com/garyjia/evidence-check/internal/domain/entity"
)

// Default scoring parameters
const (
	DefaultTimeThresholdSeconds = 5.0
	DefaultTimeWeight           = 50
	DefaultSeverityWeight       = 50
)

// Config holds the scoring parameters of an Engine
type Config struct {
	TimeThresholdSeconds float64 // max |reported - actual| for a time MATCH, inclusive
	TimeWeight           int     // points for a time MATCH
	SeverityWeight       int     // points for a severity MATCH
}

// DefaultConfig returns the 5s / 50 / 50 configuration
func DefaultConfig() Config {
	return Config{
		TimeThresholdSeconds: DefaultTimeThresholdSeconds,
		TimeWeight:           DefaultTimeWeight,
		SeverityWeight:       DefaultSeverityWeight,
	}
}

// Validate rejects configurations that would produce nonsensical scores
func (c Config) Validate() error {
	if math.IsNaN(c.TimeThresholdSeconds) || math.IsInf(c.TimeThresholdSeconds, 0) || c.TimeThresholdSeconds < 0 {
		return fmt.Errorf("%w: %v", ErrInvalidThreshold, c.TimeThresholdSeconds)
	}
	if c.TimeWeight < 0 {
		return fmt.Errorf("%w: time weight %d", ErrNegativeWeight, c.TimeWeight)
	}
	if c.SeverityWeight < 0 {
		return fmt.Errorf("%w: severity weight %d", ErrNegativeWeight, c.SeverityWeight)
	}
	return nil
}

// Engine scores the consistency of a text observation against a video observation
type Engine struct {
	cfg Config
}

// NewEngine creates an engine, failing fast on invalid configuration
func NewEngine(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid audit config: %w", err)
	}
	return &Engine{cfg: cfg}, nil
}

// Config returns the engine's configuration
func (e *Engine) Config() Config {
	return e.cfg
}

// MaxScore is the score of a fully consistent report
func (e *Engine) MaxScore() int {
	return e.cfg.TimeWeight + e.cfg.SeverityWeight
}

// Audit compares the two observations. It never fails: missing data and
// disagreement are reported as findings, not errors.
func (e *Engine) Audit(text entity.TextObservation, video entity.VideoObservation) entity.AuditReport {
	if !video.CollisionDetected {
		return entity.AuditReport{
			Score:    0,
			MaxScore: e.MaxScore(),
			Status:   entity.StatusNoCollision,
			Findings: []entity.AuditFinding{{
				ClaimType:     entity.ClaimEventExistence,
				ClaimValue:    entity.ValueAccidentReported,
				ObservedValue: entity.ValueNoCollision,
				Result:        entity.ResultFail,
				Note:          "The video analysis could not find a crash in the footage.",
			}},
		}
	}

	timeFinding, timePoints := e.checkTime(text.ReportedTimeSeconds, video.ActualTimeSeconds)
	sevFinding, sevPoints := e.checkSeverity(text.ReportedSeverity, video.ActualSeverity)

	return entity.AuditReport{
		Score:    timePoints + sevPoints,
		MaxScore: e.MaxScore(),
		Status:   entity.StatusComplete,
		Findings: []entity.AuditFinding{timeFinding, sevFinding},
	}
}

func (e *Engine) checkTime(reported entity.Optional[int], actual entity.Optional[float64]) (entity.AuditFinding, int) {
	finding := entity.AuditFinding{
		ClaimType:     entity.ClaimTimeOfImpact,
		ClaimValue:    entity.ValueUnknown,
		ObservedValue: entity.ValueUnknown,
	}

	rep, hasRep := reported.Get()
	if hasRep {
		finding.ClaimValue = fmt.Sprintf("%d sec", rep)
	}
	act, hasAct := actual.Get()
	if hasAct {
		finding.ObservedValue = formatSeconds(act) + " sec"
	}

	switch {
	case !hasRep:
		finding.Result = entity.ResultMissingData
		finding.Note = "No time found in text report."
		return finding, 0
	case !hasAct:
		finding.Result = entity.ResultMissingData
		finding.Note = "No impact timestamp calculated."
		return finding, 0
	}

	delta := math.Abs(float64(rep) - act)
	threshold := e.cfg.TimeThresholdSeconds

	if delta <= threshold {
		finding.Result = entity.ResultMatch
		finding.Note = fmt.Sprintf("Difference of %ss is within tolerance (%ss).",
			formatSeconds(roundDisplay(delta)), formatThreshold(threshold))
		return finding, e.cfg.TimeWeight
	}

	finding.Result = entity.ResultInconsistent
	finding.Note = fmt.Sprintf("Time gap (%ss) exceeds threshold (%ss).",
		formatSeconds(roundDisplay(delta)), formatThreshold(threshold))
	return finding, 0
}

func (e *Engine) checkSeverity(reported, actual entity.Severity) (entity.AuditFinding, int) {
	rep := reported.Normalize()
	act := actual.Normalize()

	finding := entity.AuditFinding{
		ClaimType:     entity.ClaimAccidentSeverity,
		ClaimValue:    reported.Display(),
		ObservedValue: actual.Display(),
	}

	switch {
	case reported.IsUnknown() || actual.IsUnknown():
		finding.Result = entity.ResultMissingData
		finding.Note = "Could not determine severity from one or both sources."
		return finding, 0
	case rep == act:
		finding.Result = entity.ResultMatch
		finding.Note = "Reported severity matches video analysis."
		return finding, e.cfg.SeverityWeight
	default:
		finding.Result = entity.ResultMismatch
		finding.Note = fmt.Sprintf("Report says '%s', Video shows '%s'.", rep, act)
		return finding, 0
	}
}

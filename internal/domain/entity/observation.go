package entity

// TextObservation is what the text service extracted from a written report
type TextObservation struct {
	ReportedTimeSeconds Optional[int] `json:"reported_time_seconds" yaml:"reported_time_seconds"` // seconds since midnight
	ReportedSeverity    Severity      `json:"reported_severity" yaml:"reported_severity"`
	RawTextSnippet      string        `json:"raw_text_snippet,omitempty" yaml:"raw_text_snippet,omitempty"`
}

// VideoObservation is what the vision service detected in the footage.
// Confidence values, frame index and sequence ID are carried for display
// only and never influence scoring.
type VideoObservation struct {
	CollisionDetected   bool              `json:"collision_detected" yaml:"collision_detected"`
	ActualTimeSeconds   Optional[float64] `json:"actual_time_seconds" yaml:"actual_time_seconds"` // seconds from video start
	ActualSeverity      Severity          `json:"actual_severity" yaml:"actual_severity"`
	CollisionConfidence Optional[float64] `json:"collision_confidence" yaml:"collision_confidence"`
	SeverityConfidence  Optional[float64] `json:"severity_confidence" yaml:"severity_confidence"`
	CollisionFrame      Optional[int]     `json:"collision_frame" yaml:"collision_frame"`
	SequenceID          string            `json:"sequence_id,omitempty" yaml:"sequence_id,omitempty"`
}

package entity

// Audit result constants
const (
	ResultMatch        Result = "MATCH"
	ResultMismatch     Result = "MISMATCH"
	ResultInconsistent Result = "INCONSISTENT"
	ResultFail         Result = "FAIL"
	ResultMissingData  Result = "MISSING_DATA"
)

// Claim type constants, in report order
const (
	ClaimEventExistence   = "Event Existence"
	ClaimTimeOfImpact     = "Time of Impact"
	ClaimAccidentSeverity = "Accident Severity"
)

// Audit status constants
const (
	StatusComplete    = "COMPLETE"
	StatusNoCollision = "NO COLLISION DETECTED IN VIDEO"
)

// Display values used when a side has nothing to show
const (
	ValueUnknown          = "Unknown"
	ValueAccidentReported = "Accident Reported"
	ValueNoCollision      = "No Collision Detected"
)

package entity

// Result is the outcome of a single comparison
type Result string

// IsValid reports whether r is one of the five audit results
func (r Result) IsValid() bool {
	switch r {
	case ResultMatch, ResultMismatch, ResultInconsistent, ResultFail, ResultMissingData:
		return true
	}
	return false
}

// AuditFinding is one row of the itemized comparison
type AuditFinding struct {
	ClaimType     string `json:"claim_type" yaml:"claim_type"`
	ClaimValue    string `json:"claim_value" yaml:"claim_value"`
	ObservedValue string `json:"observed_value" yaml:"observed_value"`
	Result        Result `json:"result" yaml:"result"`
	Note          string `json:"note" yaml:"note"`
}

// AuditReport is the verdict of one audit call
type AuditReport struct {
	Score    int            `json:"score" yaml:"score"`
	MaxScore int            `json:"max_score" yaml:"max_score"`
	Status   string         `json:"status" yaml:"status"`
	Findings []AuditFinding `json:"findings" yaml:"findings"`
}

// Finding returns the finding for claimType, if any
func (r *AuditReport) Finding(claimType string) (AuditFinding, bool) {
	for _, f := range r.Findings {
		if f.ClaimType == claimType {
			return f, true
		}
	}
	return AuditFinding{}, false
}

// CollisionConfirmed reports whether the audit got past the collision gate
func (r *AuditReport) CollisionConfirmed() bool {
	return r.Status != StatusNoCollision
}

package entity

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptional_JSON(t *testing.T) {
	obs := VideoObservation{
		CollisionDetected: true,
		ActualTimeSeconds: Some(155.5),
		ActualSeverity:    SeveritySevere,
	}

	data, err := json.Marshal(obs)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"actual_time_seconds":155.5`)
	assert.Contains(t, string(data), `"collision_confidence":null`)

	var decoded VideoObservation
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, obs, decoded)
}

func TestOptional_AbsentIsNotZero(t *testing.T) {
	var text TextObservation
	require.NoError(t, json.Unmarshal([]byte(`{"reported_time_seconds":0}`), &text))

	v, ok := text.ReportedTimeSeconds.Get()
	assert.True(t, ok, "midnight is a real time")
	assert.Equal(t, 0, v)

	require.NoError(t, json.Unmarshal([]byte(`{"reported_time_seconds":null}`), &text))
	assert.False(t, text.ReportedTimeSeconds.IsPresent())
	assert.Equal(t, -1, text.ReportedTimeSeconds.OrElse(-1))
}

func TestSeverity_Normalization(t *testing.T) {
	tests := []struct {
		in        Severity
		normal    string
		display   string
		unknown bool
	}{
		{"Severe", "severe", "Severe", false},
		{"  MODERATE\t", "moderate", "Moderate", false},
		{"minor", "minor", "Minor", false},
		{"UNKNOWN", "unknown", "Unknown", true},
		{"", "", "Unknown", true},
		{"fender bender", "fender bender", "Fender Bender", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.in), func(t *testing.T) {
			assert.Equal(t, tt.normal, tt.in.Normalize())
			assert.Equal(t, tt.display, tt.in.Display())
			assert.Equal(t, tt.unknown, tt.in.IsUnknown())
		})
	}
}

func TestTitleCase(t *testing.T) {
	assert.Equal(t, "Rear-End", TitleCase("rear-end"))
	assert.Equal(t, "T-Bone", TitleCase("T-BONE"))
	assert.Equal(t, "", TitleCase(""))
}

func TestResult_IsValid(t *testing.T) {
	for _, r := range []Result{ResultMatch, ResultMismatch, ResultInconsistent, ResultFail, ResultMissingData} {
		assert.True(t, r.IsValid(), r)
	}
	assert.False(t, Result("MISSING DATA").IsValid())
	assert.False(t, Result("").IsValid())
}

func TestAuditReport_Finding(t *testing.T) {
	report := AuditReport{
		Status: StatusComplete,
		Findings: []AuditFinding{
			{ClaimType: ClaimTimeOfImpact, Result: ResultMatch},
			{ClaimType: ClaimAccidentSeverity, Result: ResultMismatch},
		},
	}

	f, ok := report.Finding(ClaimAccidentSeverity)
	require.True(t, ok)
	assert.Equal(t, ResultMismatch, f.Result)

	_, ok = report.Finding(ClaimEventExistence)
	assert.False(t, ok)
	assert.True(t, report.CollisionConfirmed())
}

// Package convert turns the loosely typed results of the external text and
// vision services into observations the audit engine can trust.
//
// Missing keys, null values and the -1 "not found" indicator all become
// explicit absence here, so the engine never sees a sentinel.
package convert

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/spf13/cast"

	"github.com/garyjia/evidence-check/internal/domain/entity"
)

// ErrInvalidField is returned when a present field has the wrong shape
var ErrInvalidField = errors.New("invalid field")

// notFound is the services' "value not found" indicator
const notFound = -1

// Exclusive upper bounds of whole-number fields
const (
	secondsPerDay = 24 * 60 * 60
	maxFrame      = math.MaxInt32
)

// Accepted keys per field. The first key present wins; the later aliases
// are the field names emitted by the keyframe processor and report parser.
var (
	reportedTimeKeys        = []string{"reported_time_seconds", "TReport"}
	reportedSeverityKeys    = []string{"reported_severity", "SeverityReport"}
	rawTextSnippetKeys      = []string{"raw_text_snippet", "RawTextSnippet"}
	collisionDetectedKeys   = []string{"collision_detected", "Collision_Detected"}
	actualTimeKeys          = []string{"actual_time_seconds", "T_actual", "T_Actual"}
	actualSeverityKeys      = []string{"actual_severity", "severity_actual", "Severity_Actual"}
	collisionConfidenceKeys = []string{"collision_confidence"}
	severityConfidenceKeys  = []string{"severity_confidence"}
	collisionFrameKeys      = []string{"collision_frame", "F_Actual"}
	sequenceIDKeys          = []string{"sequence_id", "Video_Sequence_ID"}
)

// TextObservation converts a text-service result
func TextObservation(m map[string]interface{}) (entity.TextObservation, error) {
	var obs entity.TextObservation
	var err error

	if obs.ReportedTimeSeconds, err = optionalWhole(m, reportedTimeKeys, secondsPerDay); err != nil {
		return entity.TextObservation{}, err
	}
	if obs.ReportedSeverity, err = severity(m, reportedSeverityKeys); err != nil {
		return entity.TextObservation{}, err
	}
	if obs.RawTextSnippet, err = text(m, rawTextSnippetKeys); err != nil {
		return entity.TextObservation{}, err
	}
	return obs, nil
}

// VideoObservation converts a vision-service result. A missing collision
// flag means no collision.
func VideoObservation(m map[string]interface{}) (entity.VideoObservation, error) {
	var obs entity.VideoObservation
	var err error

	if obs.CollisionDetected, err = flag(m, collisionDetectedKeys); err != nil {
		return entity.VideoObservation{}, err
	}
	if obs.ActualTimeSeconds, err = optionalNumber(m, actualTimeKeys, true); err != nil {
		return entity.VideoObservation{}, err
	}
	if obs.ActualSeverity, err = severity(m, actualSeverityKeys); err != nil {
		return entity.VideoObservation{}, err
	}
	if obs.CollisionConfidence, err = optionalNumber(m, collisionConfidenceKeys, false); err != nil {
		return entity.VideoObservation{}, err
	}
	if obs.SeverityConfidence, err = optionalNumber(m, severityConfidenceKeys, false); err != nil {
		return entity.VideoObservation{}, err
	}
	if obs.CollisionFrame, err = optionalWhole(m, collisionFrameKeys, maxFrame); err != nil {
		return entity.VideoObservation{}, err
	}
	if obs.SequenceID, err = text(m, sequenceIDKeys); err != nil {
		return entity.VideoObservation{}, err
	}
	return obs, nil
}

// lookup returns the first non-nil value stored under one of keys
func lookup(m map[string]interface{}, keys []string) (string, interface{}, bool) {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			return k, v, true
		}
	}
	return keys[0], nil, false
}

func number(key string, v interface{}) (float64, error) {
	if _, isBool := v.(bool); isBool {
		return 0, fmt.Errorf("%w: %s must be a number, got bool", ErrInvalidField, key)
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrInvalidField, key, err)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: %s must be finite", ErrInvalidField, key)
	}
	return f, nil
}

// optionalNumber reads a real number; with sentinel set, -1 means absent
func optionalNumber(m map[string]interface{}, keys []string, sentinel bool) (entity.Optional[float64], error) {
	key, v, ok := lookup(m, keys)
	if !ok {
		return entity.None[float64](), nil
	}
	f, err := number(key, v)
	if err != nil {
		return entity.None[float64](), err
	}
	if sentinel && f == notFound {
		return entity.None[float64](), nil
	}
	return entity.Some(f), nil
}

// optionalWhole reads an integer in [0, limit); -1 means absent
func optionalWhole(m map[string]interface{}, keys []string, limit int) (entity.Optional[int], error) {
	key, v, ok := lookup(m, keys)
	if !ok {
		return entity.None[int](), nil
	}
	f, err := number(key, v)
	if err != nil {
		return entity.None[int](), err
	}
	if f != math.Trunc(f) {
		return entity.None[int](), fmt.Errorf("%w: %s must be a whole number, got %v", ErrInvalidField, key, f)
	}
	if f == notFound {
		return entity.None[int](), nil
	}
	if f < 0 || f >= float64(limit) {
		return entity.None[int](), fmt.Errorf("%w: %s must be in [0, %d), got %v", ErrInvalidField, key, limit, f)
	}
	return entity.Some(int(f)), nil
}

func severity(m map[string]interface{}, keys []string) (entity.Severity, error) {
	key, v, ok := lookup(m, keys)
	if !ok {
		return entity.SeverityUnknown, nil
	}
	s, isString := v.(string)
	if !isString {
		return entity.SeverityUnknown, fmt.Errorf("%w: %s must be a string, got %T", ErrInvalidField, key, v)
	}
	if strings.TrimSpace(s) == "" {
		return entity.SeverityUnknown, nil
	}
	return entity.Severity(s), nil
}

func flag(m map[string]interface{}, keys []string) (bool, error) {
	key, v, ok := lookup(m, keys)
	if !ok {
		return false, nil
	}
	b, err := cast.ToBoolE(v)
	if err != nil {
		return false, fmt.Errorf("%w: %s: %v", ErrInvalidField, key, err)
	}
	return b, nil
}

func text(m map[string]interface{}, keys []string) (string, error) {
	key, v, ok := lookup(m, keys)
	if !ok {
		return "", nil
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrInvalidField, key, err)
	}
	return s, nil
}

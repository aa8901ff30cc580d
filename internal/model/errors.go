package model

import (
	"fmt"
	"strings"
)

// Invariant names reported by StructuralViolation.
const (
	InvariantRequiredKey       = "required-key"
	InvariantContainerType     = "container-type"
	InvariantUniqueFacilityID  = "unique-facility-id"
	InvariantFacilityReference = "facility-reference"
	InvariantNonNegativeCount  = "non-negative-count"
)

// StructuralViolation reports a missing required field or a failed uniqueness or
// referential invariant. It is always fatal for the notice concerned.
type StructuralViolation struct {
	Invariant string
	Value     string
	Detail    string
}

func (e *StructuralViolation) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("structural violation: %s: %q", e.Invariant, e.Value)
	}
	return fmt.Sprintf("structural violation: %s: %q: %s", e.Invariant, e.Value, e.Detail)
}

// FieldResolutionError reports a record where none of the synonymous title fields is populated.
type FieldResolutionError struct {
	Tried      []TitleField
	FacilityID string
}

func (e *FieldResolutionError) Error() string {
	names := make([]string, 0, len(e.Tried))
	for _, f := range e.Tried {
		names = append(names, string(f))
	}
	msg := "missing job title field: none of [" + strings.Join(names, ", ") + "] is populated"
	if e.FacilityID != "" {
		msg += " (facilityId=" + e.FacilityID + ")"
	}
	return msg
}

// DataLoadError reports an input file that is missing or cannot be parsed.
type DataLoadError struct {
	Path string
	Err  error
}

func (e *DataLoadError) Error() string {
	return fmt.Sprintf("data load %s: %v", e.Path, e.Err)
}

func (e *DataLoadError) Unwrap() error {
	return e.Err
}

// Data-quality issue kinds.
const (
	IssueNonNumeric = "non-numeric"
	IssueUnresolved = "unresolved"
	IssueMissingGeo = "missing-geocode"
	IssueOutOfRange = "out-of-range"
)

// QualityIssue is one soft data-quality problem absorbed with a zero or blank default.
type QualityIssue struct {
	Stage  string `json:"stage"`
	Kind   string `json:"kind"`
	Key    string `json:"key"`
	Detail string `json:"detail,omitempty"`
}

// QualityLog collects soft data-quality issues for an operator summary.
// A nil *QualityLog discards everything.
type QualityLog struct {
	issues []QualityIssue
}

// Record appends an issue.
func (q *QualityLog) Record(stage, kind, key, detail string) {
	if q == nil {
		return
	}
	q.issues = append(q.issues, QualityIssue{Stage: stage, Kind: kind, Key: key, Detail: detail})
}

// Len returns the number of recorded issues.
func (q *QualityLog) Len() int {
	if q == nil {
		return 0
	}
	return len(q.issues)
}

// Issues returns a copy of the recorded issues in record order.
func (q *QualityLog) Issues() []QualityIssue {
	if q == nil {
		return nil
	}
	out := make([]QualityIssue, len(q.issues))
	copy(out, q.issues)
	return out
}

// CountByKind tallies issues per kind.
func (q *QualityLog) CountByKind() map[string]int {
	out := map[string]int{}
	if q == nil {
		return out
	}
	for _, is := range q.issues {
		out[is.Kind]++
	}
	return out
}

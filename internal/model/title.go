package model

import (
	"errors"
	"strings"
)

// TitleField names one of the synonymous job-title fields a record may carry.
type TitleField string

// Title source fields.
const (
	TitleFieldCanonical TitleField = "jobTitleCanonical"
	TitleFieldTitle     TitleField = "jobTitle"
	TitleFieldRaw       TitleField = "jobTitleRaw"
)

// TitlePriority is the resolution order for notice job-title impacts.
var TitlePriority = []TitleField{TitleFieldCanonical, TitleFieldTitle, TitleFieldRaw}

// TitleFields holds the three optional title fields different notice sources populate.
type TitleFields struct {
	JobTitleCanonical string `json:"jobTitleCanonical,omitempty"`
	JobTitle          string `json:"jobTitle,omitempty"`
	JobTitleRaw       string `json:"jobTitleRaw,omitempty"`
}

// Get returns the value of the named field.
func (f TitleFields) Get(field TitleField) string {
	switch field {
	case TitleFieldCanonical:
		return f.JobTitleCanonical
	case TitleFieldTitle:
		return f.JobTitle
	case TitleFieldRaw:
		return f.JobTitleRaw
	default:
		return ""
	}
}

// Present lists the fields that carry a non-blank value, in priority order.
func (f TitleFields) Present() []TitleField {
	var out []TitleField
	for _, field := range TitlePriority {
		if strings.TrimSpace(f.Get(field)) != "" {
			out = append(out, field)
		}
	}
	return out
}

// ResolveTitle returns the first non-blank field in policy order, trimmed.
// It fails with a *FieldResolutionError when no field in the policy is populated.
func ResolveTitle(f TitleFields, policy []TitleField) (string, TitleField, error) {
	for _, field := range policy {
		if v := strings.TrimSpace(f.Get(field)); v != "" {
			return v, field, nil
		}
	}
	return "", "", &FieldResolutionError{Tried: policy}
}

// Title resolves the impact's title using TitlePriority.
func (j JobTitleImpact) Title() (string, error) {
	title, _, err := ResolveTitle(j.TitleFields, TitlePriority)
	if err != nil {
		var fre *FieldResolutionError
		if errors.As(err, &fre) {
			fre.FacilityID = j.FacilityID
		}
		return "", err
	}
	return title, nil
}

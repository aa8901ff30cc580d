// Package validate checks the structural invariants of a normalized notice file.
// Violations are reported, never repaired.
package validate

import (
	"encoding/json"
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/tidwall/gjson"

	"github.com/sells-group/warn-cli/internal/model"
)

// Result summarizes an accepted notice.
type Result struct {
	NoticeID        string
	Facilities      int
	JobTitleImpacts int
}

type keyRule struct {
	path string
	kind gjson.Type
	// array marks a JSON list; gjson reports lists and objects both as gjson.JSON.
	array bool
}

var envelopeRules = []keyRule{
	{path: "version", kind: gjson.String},
	{path: "generatedAt", kind: gjson.String},
	{path: "notice", kind: gjson.JSON},
}

var noticeRules = []keyRule{
	{path: "noticeId", kind: gjson.String},
	{path: "source", kind: gjson.String},
	{path: "jurisdiction", kind: gjson.String},
	{path: "separationDates", kind: gjson.JSON, array: true},
	{path: "facilities", kind: gjson.JSON, array: true},
	{path: "jobTitleImpacts", kind: gjson.JSON, array: true},
}

// Bytes validates raw notice-file JSON and returns the decoded file. Shape is
// checked on the raw document first so a missing key is reported as such
// rather than as a zero value after decoding.
func Bytes(data []byte) (*model.NoticeFile, error) {
	if !gjson.ValidBytes(data) {
		return nil, eris.New("validate: notice file is not valid JSON")
	}
	doc := gjson.ParseBytes(data)
	if !doc.IsObject() {
		return nil, &model.StructuralViolation{Invariant: model.InvariantContainerType, Value: "$", Detail: "notice file must be an object"}
	}
	if err := checkRules(doc, "", envelopeRules); err != nil {
		return nil, err
	}
	notice := doc.Get("notice")
	if !notice.IsObject() {
		return nil, &model.StructuralViolation{Invariant: model.InvariantContainerType, Value: "notice", Detail: "must be an object"}
	}
	if err := checkRules(notice, "notice.", noticeRules); err != nil {
		return nil, err
	}
	if rc := notice.Get("remoteClauses"); rc.Exists() && rc.Type != gjson.Null && !rc.IsArray() {
		return nil, &model.StructuralViolation{Invariant: model.InvariantContainerType, Value: "notice.remoteClauses", Detail: "must be a list"}
	}
	if err := checkEntries(notice, "facilities"); err != nil {
		return nil, err
	}
	if err := checkEntries(notice, "jobTitleImpacts"); err != nil {
		return nil, err
	}

	var f model.NoticeFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, eris.Wrap(err, "validate: decode notice file")
	}
	if err := Notice(f.Notice); err != nil {
		return nil, err
	}
	return &f, nil
}

// Notice checks facility-ID uniqueness, job-title referential integrity, and
// that no headcount is negative. Facility IDs compare exactly as written.
func Notice(n model.Notice) error {
	known := make(map[string]bool, len(n.Facilities))
	for i, f := range n.Facilities {
		if f.AffectedApprox < 0 {
			return &model.StructuralViolation{
				Invariant: model.InvariantNonNegativeCount,
				Value:     fmt.Sprintf("notice.facilities[%d].affectedApprox", i),
				Detail:    fmt.Sprintf("got %d", f.AffectedApprox),
			}
		}
		if known[f.FacilityID] {
			return &model.StructuralViolation{
				Invariant: model.InvariantUniqueFacilityID,
				Value:     f.FacilityID,
				Detail:    "duplicate facilityId in notice " + n.NoticeID,
			}
		}
		known[f.FacilityID] = true
	}
	for i, j := range n.JobTitleImpacts {
		if !known[j.FacilityID] {
			return &model.StructuralViolation{
				Invariant: model.InvariantFacilityReference,
				Value:     j.FacilityID,
				Detail:    fmt.Sprintf("jobTitleImpacts[%d] references unknown facilityId", i),
			}
		}
		if j.AffectedCount.Numeric && j.AffectedCount.Value < 0 {
			return &model.StructuralViolation{
				Invariant: model.InvariantNonNegativeCount,
				Value:     fmt.Sprintf("notice.jobTitleImpacts[%d].affectedCount", i),
				Detail:    fmt.Sprintf("got %d", j.AffectedCount.Value),
			}
		}
	}
	return nil
}

// Summarize returns counts for an accepted notice.
func Summarize(n model.Notice) Result {
	return Result{
		NoticeID:        n.NoticeID,
		Facilities:      len(n.Facilities),
		JobTitleImpacts: len(n.JobTitleImpacts),
	}
}

func checkRules(obj gjson.Result, prefix string, rules []keyRule) error {
	for _, r := range rules {
		v := obj.Get(r.path)
		if !v.Exists() {
			return &model.StructuralViolation{Invariant: model.InvariantRequiredKey, Value: prefix + r.path, Detail: "missing"}
		}
		if v.Type != r.kind || (r.kind == gjson.JSON && r.array != v.IsArray()) {
			return &model.StructuralViolation{Invariant: model.InvariantContainerType, Value: prefix + r.path, Detail: "must be " + describe(r)}
		}
	}
	return nil
}

// checkEntries requires every element of a list to be an object carrying a string facilityId.
func checkEntries(notice gjson.Result, list string) error {
	var err error
	i := -1
	notice.Get(list).ForEach(func(_, v gjson.Result) bool {
		i++
		path := fmt.Sprintf("notice.%s[%d]", list, i)
		if !v.IsObject() {
			err = &model.StructuralViolation{Invariant: model.InvariantContainerType, Value: path, Detail: "must be an object"}
			return false
		}
		id := v.Get("facilityId")
		if !id.Exists() {
			err = &model.StructuralViolation{Invariant: model.InvariantRequiredKey, Value: path + ".facilityId", Detail: "missing"}
			return false
		}
		if id.Type != gjson.String {
			err = &model.StructuralViolation{Invariant: model.InvariantContainerType, Value: path + ".facilityId", Detail: "must be a string"}
			return false
		}
		return true
	})
	return err
}

func describe(r keyRule) string {
	switch {
	case r.kind == gjson.String:
		return "a string"
	case r.array:
		return "a list"
	default:
		return "an object"
	}
}

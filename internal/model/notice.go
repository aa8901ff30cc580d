// Package model defines the notice, facility, and job-title records shared by every pipeline stage.
package model

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

const (
	// SchemaVersion is stamped on every notice and combined file written by the pipeline.
	SchemaVersion = "1.0.0"

	// RemoteFacilityID is the reserved pseudo-facility for remote employees in the home state.
	RemoteFacilityID = "REMOTE_WA"

	// RemoteState is the state whose remote employees roll up into RemoteFacilityID.
	RemoteState = "WA"

	// RemoteNotes is the notes text carried by the synthetic remote facility impact.
	RemoteNotes = "Remote employees residing within WA (no facility address)."

	// RemoteLabel is the fixed label given to the remote pseudo-facility in combined output.
	RemoteLabel = "REMOTE_WA - Remote, WA"

	// DateLayout is the calendar date layout used in notice files.
	DateLayout = "2006-01-02"

	// TimestampLayout is the ISO-8601 UTC layout used for generatedAt.
	TimestampLayout = "2006-01-02T15:04:05Z"
)

// Page is one page of extracted notice text.
type Page struct {
	Number int    `json:"page"`
	Text   string `json:"text"`
}

// Notice is one filed layoff notice after normalization.
type Notice struct {
	NoticeID        string           `json:"noticeId"`
	Source          string           `json:"source"`
	Jurisdiction    string           `json:"jurisdiction"`
	SeparationDates []Date           `json:"separationDates"`
	Facilities      []FacilityImpact `json:"facilities"`
	JobTitleImpacts []JobTitleImpact `json:"jobTitleImpacts"`
	RemoteClauses   []RemoteClause   `json:"remoteClauses,omitempty"`
}

// FacilityImpact is one facility mentioned within a notice.
type FacilityImpact struct {
	NoticeID         string `json:"noticeId"`
	FacilityID       string `json:"facilityId"`
	AffectedApprox   int    `json:"affectedApprox"`
	IncludesRemoteWA bool   `json:"includesRemoteWA"`
	Notes            string `json:"notes"`
}

// JobTitleImpact is one (facility, title) impact row within a notice.
type JobTitleImpact struct {
	FacilityID string `json:"facilityId"`
	TitleFields
	AffectedCount Count `json:"affectedCount,omitzero"`
}

// RemoteClause describes remote employees attributable to a state rather than a site.
type RemoteClause struct {
	Text          string `json:"text,omitempty"`
	AffectedCount int    `json:"affectedCount"`
	State         string `json:"state"`
}

// NoticeFile is the on-disk envelope for a single notice.
type NoticeFile struct {
	Version     string `json:"version"`
	GeneratedAt string `json:"generatedAt"`
	Notice      Notice `json:"notice"`
}

// Address is a best-effort parsed postal address.
type Address struct {
	Line1      string `json:"line1"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postalCode,omitempty"`
}

// Facility is the canonical, cross-notice definition of a facility.
type Facility struct {
	FacilityID string  `json:"facilityId"`
	Label      string  `json:"label"`
	Address    Address `json:"address"`
}

// CanonicalTitle is one distinct resolved job title with cross-notice totals.
type CanonicalTitle struct {
	Title         string   `json:"jobTitleCanonical"`
	AffectedCount int      `json:"affectedCount"`
	FacilityCount int      `json:"facilityCount"`
	FacilityIDs   []string `json:"facilityIds"`
}

// JobTitleIndex holds the title indices derived during aggregation.
type JobTitleIndex struct {
	CanonicalTitles []CanonicalTitle    `json:"canonicalTitles"`
	ByFacility      map[string][]string `json:"byFacility"`
}

// CombinedDataset is the aggregation output root.
type CombinedDataset struct {
	Notices    []Notice      `json:"notices"`
	Facilities []Facility    `json:"facilities"`
	JobTitles  JobTitleIndex `json:"jobTitles"`
}

// CombinedFile is the on-disk envelope for a CombinedDataset.
type CombinedFile struct {
	Version     string `json:"version"`
	GeneratedAt string `json:"generatedAt"`
	CombinedDataset
}

// FacilityIDs returns the notice's facility IDs in list order.
func (n Notice) FacilityIDs() []string {
	ids := make([]string, 0, len(n.Facilities))
	for _, f := range n.Facilities {
		ids = append(ids, f.FacilityID)
	}
	return ids
}

// NormalizeFacilityID trims and uppercases a facility code for matching.
func NormalizeFacilityID(id string) string {
	return strings.ToUpper(strings.TrimSpace(id))
}

// Timestamp formats t as an ISO-8601 UTC generatedAt value.
func Timestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// Date is a calendar date serialized as YYYY-MM-DD.
type Date struct {
	time.Time
}

// NewDate returns the calendar date for year, month, day in UTC.
func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// String implements fmt.Stringer.
func (d Date) String() string {
	return d.Format(DateLayout)
}

// MarshalJSON implements json.Marshaler.
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return eris.Wrap(err, "model: date must be a string")
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return eris.Wrapf(err, "model: parse date %q", s)
	}
	d.Time = t
	return nil
}

// Count is a headcount that tolerates absent or non-numeric JSON values.
// Absent and null decode to the zero Count; strings that do not parse keep
// their raw text and report Numeric=false.
type Count struct {
	Value   int
	Present bool
	Numeric bool
	raw     string
}

// NewCount returns a present, numeric Count.
func NewCount(n int) Count {
	return Count{Value: n, Present: true, Numeric: true}
}

// IsZero reports whether the count was absent. Used by the omitzero tag.
func (c Count) IsZero() bool {
	return !c.Present
}

// Int returns the count, or 0 when absent or non-numeric.
func (c Count) Int() int {
	if !c.Present || !c.Numeric {
		return 0
	}
	return c.Value
}

// Raw returns the original text of a non-numeric count.
func (c Count) Raw() string {
	return c.raw
}

// MarshalJSON implements json.Marshaler.
func (c Count) MarshalJSON() ([]byte, error) {
	switch {
	case !c.Present:
		return []byte("null"), nil
	case c.Numeric:
		return []byte(strconv.Itoa(c.Value)), nil
	default:
		return json.Marshal(c.raw)
	}
}

// UnmarshalJSON implements json.Unmarshaler.
func (c *Count) UnmarshalJSON(b []byte) error {
	*c = Count{}
	s := strings.TrimSpace(string(b))
	if s == "null" {
		return nil
	}
	c.Present = true
	if strings.HasPrefix(s, `"`) {
		if err := json.Unmarshal(b, &s); err != nil {
			return eris.Wrap(err, "model: decode count")
		}
		c.raw = s
	}
	if n, ok := ParseCount(s); ok {
		c.Value = n
		c.Numeric = true
		return nil
	}
	c.raw = s
	return nil
}

// ParseCount parses an integer count, accepting float text by truncation.
// Empty, non-numeric and out-of-range text report ok=false.
func ParseCount(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	if f < math.MinInt || f >= math.MaxInt {
		return 0, false
	}
	return int(f), true
}

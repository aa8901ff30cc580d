package noticeparse

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/sells-group/warn-cli/internal/model"
)

// PatternAdapter parses notices whose layout is described by a Format.
type PatternAdapter struct {
	format Format
	re     *compiledFormat
}

var _ Adapter = (*PatternAdapter)(nil)

// NewPatternAdapter compiles f into an adapter.
func NewPatternAdapter(f Format) (*PatternAdapter, error) {
	re, err := f.compile()
	if err != nil {
		return nil, err
	}
	return &PatternAdapter{format: f, re: re}, nil
}

// MustPatternAdapter is NewPatternAdapter for formats known to compile.
func MustPatternAdapter(f Format) *PatternAdapter {
	a, err := NewPatternAdapter(f)
	if err != nil {
		panic(err)
	}
	return a
}

// Name implements Adapter.
func (a *PatternAdapter) Name() string { return a.format.Name }

// Parse implements Adapter.
func (a *PatternAdapter) Parse(noticeID string, pages []model.Page) (*Extraction, error) {
	x := &Extraction{
		Facilities:      a.Facilities(noticeID, pages),
		RemoteClauses:   a.RemoteClauses(pages),
		SeparationDates: a.SeparationDates(pages),
		JobTitleImpacts: a.JobTitleImpacts(pages),
	}

	for _, rc := range x.RemoteClauses {
		if rc.State != model.RemoteState {
			continue
		}
		x.Facilities = append(x.Facilities, model.FacilityImpact{
			NoticeID:         noticeID,
			FacilityID:       model.RemoteFacilityID,
			AffectedApprox:   rc.AffectedCount,
			IncludesRemoteWA: true,
			Notes:            model.RemoteNotes,
		})
		break
	}
	return x, nil
}

// Facilities finds every bullet-style facility clause across pages.
func (a *PatternAdapter) Facilities(noticeID string, pages []model.Page) []model.FacilityImpact {
	re := a.re.facility
	idIdx, addrIdx, countIdx := re.SubexpIndex("id"), re.SubexpIndex("address"), re.SubexpIndex("count")

	var out []model.FacilityImpact
	for _, p := range pages {
		for _, m := range re.FindAllStringSubmatch(p.Text, -1) {
			n, ok := parseInt(m[countIdx])
			if !ok {
				continue
			}
			out = append(out, model.FacilityImpact{
				NoticeID:         noticeID,
				FacilityID:       m[idIdx],
				AffectedApprox:   n,
				IncludesRemoteWA: true,
				Notes:            strings.TrimSpace(m[addrIdx]),
			})
		}
	}
	return out
}

// RemoteClauses returns at most one remote-employee clause: the first found.
func (a *PatternAdapter) RemoteClauses(pages []model.Page) []model.RemoteClause {
	re := a.re.remoteClause
	countIdx := re.SubexpIndex("count")
	for _, p := range pages {
		m := re.FindStringSubmatch(p.Text)
		if m == nil {
			continue
		}
		n, ok := parseInt(m[countIdx])
		if !ok {
			continue
		}
		return []model.RemoteClause{{
			Text:          fmt.Sprintf("plus %d affected remote employees residing within the state of Washington.", n),
			AffectedCount: n,
			State:         model.RemoteState,
		}}
	}
	return nil
}

// SeparationDates returns every distinct "Month D, YYYY" date, ascending.
func (a *PatternAdapter) SeparationDates(pages []model.Page) []model.Date {
	re := a.re.date
	monthIdx, dayIdx, yearIdx := re.SubexpIndex("month"), re.SubexpIndex("day"), re.SubexpIndex("year")

	seen := map[time.Time]bool{}
	var out []model.Date
	for _, p := range pages {
		for _, m := range re.FindAllStringSubmatch(p.Text, -1) {
			d, ok := calendarDate(m[monthIdx], m[dayIdx], m[yearIdx])
			if !ok || seen[d.Time] {
				continue
			}
			seen[d.Time] = true
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j].Time) })
	return out
}

// JobTitleImpacts scans the job-title table, then appends remote rows from every page.
func (a *PatternAdapter) JobTitleImpacts(pages []model.Page) []model.JobTitleImpact {
	scanner := newTableScanner(a.format, a.re)
	for _, p := range pages {
		for _, line := range strings.Split(p.Text, "\n") {
			scanner.Feed(line)
		}
	}

	out := scanner.Rows()
	out = append(out, a.remoteRows(pages)...)
	return out
}

func (a *PatternAdapter) remoteRows(pages []model.Page) []model.JobTitleImpact {
	re := a.re.remoteLine
	titleIdx, countIdx := re.SubexpIndex("title"), re.SubexpIndex("count")

	var out []model.JobTitleImpact
	for _, p := range pages {
		for _, line := range strings.Split(p.Text, "\n") {
			line = strings.TrimSpace(line)
			if !strings.HasPrefix(line, a.format.RemoteLinePrefix) {
				continue
			}
			m := re.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			n, ok := parseInt(m[countIdx])
			if !ok {
				continue
			}
			out = append(out, model.JobTitleImpact{
				FacilityID:    model.RemoteFacilityID,
				TitleFields:   model.TitleFields{JobTitle: strings.TrimSpace(m[titleIdx])},
				AffectedCount: model.NewCount(n),
			})
		}
	}
	return out
}

var months = map[string]time.Month{
	"january": time.January, "february": time.February, "march": time.March,
	"april": time.April, "may": time.May, "june": time.June,
	"july": time.July, "august": time.August, "september": time.September,
	"october": time.October, "november": time.November, "december": time.December,
}

// calendarDate rejects impossible dates such as February 30 instead of normalizing them.
func calendarDate(month, day, year string) (model.Date, bool) {
	mo, ok := months[strings.ToLower(month)]
	if !ok {
		return model.Date{}, false
	}
	d, err := strconv.Atoi(day)
	if err != nil {
		return model.Date{}, false
	}
	y, err := strconv.Atoi(year)
	if err != nil {
		return model.Date{}, false
	}
	date := model.NewDate(y, mo, d)
	if date.Day() != d || date.Month() != mo {
		return model.Date{}, false
	}
	return date, true
}

// parseInt never defaults: a count that does not parse makes the whole match a non-match.
func parseInt(s string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// matchGroup returns the named group of m, or "".
func matchGroup(re *regexp.Regexp, m []string, name string) string {
	i := re.SubexpIndex(name)
	if i < 0 || i >= len(m) {
		return ""
	}
	return m[i]
}

package pipeline

import (
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/warn-cli/internal/export"
	"github.com/sells-group/warn-cli/internal/model"
	"github.com/sells-group/warn-cli/internal/table"
)

// PhaseStatus is the outcome of one build phase.
type PhaseStatus string

// Phase statuses.
const (
	PhaseStatusComplete PhaseStatus = "complete"
	PhaseStatusSkipped  PhaseStatus = "skipped"
	PhaseStatusFailed   PhaseStatus = "failed"
)

// PhaseResult records one build phase.
type PhaseResult struct {
	Name     string      `json:"name"`
	Status   PhaseStatus `json:"status"`
	Duration int64       `json:"duration_ms"`
	Error    string      `json:"error,omitempty"`
}

// BuildResult is the outcome of a full build.
type BuildResult struct {
	Phases  []PhaseResult        `json:"phases"`
	Quality []model.QualityIssue `json:"quality,omitempty"`
}

// Build validates and combines notices, then runs every export. It stops at
// the first failed phase; a missing geocode table only skips the GeoJSON
// phase.
func (s *Stages) Build(notices []model.Notice) (*BuildResult, error) {
	res := &BuildResult{}
	track := func(name string, fn func() (PhaseStatus, error)) error {
		start := time.Now()
		status, err := fn()
		phase := PhaseResult{Name: name, Status: status, Duration: time.Since(start).Milliseconds()}
		if err != nil {
			phase.Status = PhaseStatusFailed
			phase.Error = err.Error()
			zap.L().Error("pipeline: phase failed", zap.String("phase", name), zap.Int64("duration_ms", phase.Duration), zap.Error(err))
		} else {
			zap.L().Debug("pipeline: phase complete", zap.String("phase", name), zap.Int64("duration_ms", phase.Duration))
		}
		res.Phases = append(res.Phases, phase)
		return err
	}
	done := func(err error) (PhaseStatus, error) { return PhaseStatusComplete, err }

	var ds *model.CombinedDataset
	var rows []export.ImpactRow
	var rollup, all, titles, summary, topT, topF *table.Table

	phases := []struct {
		name string
		fn   func() (PhaseStatus, error)
	}{
		{"combine", func() (PhaseStatus, error) {
			cf, err := s.Combine(notices)
			if err == nil {
				ds = &cf.CombinedDataset
			}
			return done(err)
		}},
		{"impacts", func() (status PhaseStatus, err error) {
			rows, err = s.Impacts(ds)
			return done(err)
		}},
		{"facility_rollup", func() (status PhaseStatus, err error) {
			rollup, err = s.FacilityRollup(rows)
			return done(err)
		}},
		{"all_facilities", func() (status PhaseStatus, err error) {
			all, err = s.AllFacilities(ds, rollup)
			return done(err)
		}},
		{"title_rollup", func() (status PhaseStatus, err error) {
			titles, err = s.TitleRollup(ds, rows)
			return done(err)
		}},
		{"notice_summary", func() (status PhaseStatus, err error) {
			summary, err = s.NoticeSummary(rows)
			return done(err)
		}},
		{"top_titles", func() (status PhaseStatus, err error) {
			topT, err = s.TopTitles(titles, s.Export.TopTitles)
			return done(err)
		}},
		{"top_facilities", func() (status PhaseStatus, err error) {
			topF, err = s.TopFacilities(all, s.Export.TopFacilities)
			return done(err)
		}},
		{"geojson", func() (PhaseStatus, error) {
			ok, err := s.GeoJSON(all, rows)
			if err == nil && !ok {
				return PhaseStatusSkipped, nil
			}
			return done(err)
		}},
		{"workbook", func() (PhaseStatus, error) {
			return done(s.Workbook([]export.Sheet{
				{Name: "facility_rollup", Table: rollup},
				{Name: "all_facilities", Table: all},
				{Name: "job_title_rollup", Table: titles},
				{Name: "notice_summary", Table: summary},
				{Name: "top_job_titles", Table: topT},
				{Name: "top_facilities", Table: topF},
			}))
		}},
	}

	for _, p := range phases {
		if err := track(p.name, p.fn); err != nil {
			res.Quality = s.Quality.Issues()
			return res, err
		}
	}
	res.Quality = s.Quality.Issues()
	s.LogQuality()
	return res, nil
}

// Package pipeline wires the notice, combine, and export stages to the
// configured file layout. Each stage reads its inputs, writes one output, and
// logs a summary line.
package pipeline

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/warn-cli/internal/combine"
	"github.com/sells-group/warn-cli/internal/config"
	"github.com/sells-group/warn-cli/internal/export"
	"github.com/sells-group/warn-cli/internal/geocodes"
	"github.com/sells-group/warn-cli/internal/model"
	"github.com/sells-group/warn-cli/internal/store"
	"github.com/sells-group/warn-cli/internal/table"
	"github.com/sells-group/warn-cli/internal/validate"
)

// Stages runs individual pipeline stages against a file layout.
type Stages struct {
	Paths   config.PathsConfig
	Export  config.ExportConfig
	Quality *model.QualityLog
	Now     func() time.Time
}

// New returns Stages for cfg with a fresh QualityLog.
func New(cfg *config.Config) *Stages {
	return &Stages{Paths: cfg.Paths, Export: cfg.Export, Quality: &model.QualityLog{}, Now: time.Now}
}

// NoticePaths returns args when given, else every *.json file in dir, sorted.
func NoticePaths(dir string, args []string) ([]string, error) {
	if len(args) > 0 {
		return args, nil
	}
	paths, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, eris.Wrapf(err, "pipeline: list notices in %s", dir)
	}
	if len(paths) == 0 {
		return nil, eris.Errorf("pipeline: no notice files in %s", dir)
	}
	sort.Strings(paths)
	return paths, nil
}

// LoadNotices reads and validates every notice file, in order. The first
// invalid file stops the load.
func LoadNotices(paths []string) ([]model.Notice, error) {
	notices := make([]model.Notice, 0, len(paths))
	for _, p := range paths {
		data, err := store.ReadNoticeBytes(p)
		if err != nil {
			return nil, err
		}
		f, err := validate.Bytes(data)
		if err != nil {
			return nil, eris.Wrapf(err, "pipeline: validate %s", p)
		}
		notices = append(notices, f.Notice)
	}
	return notices, nil
}

// Combine aggregates notices and writes the combined file.
func (s *Stages) Combine(notices []model.Notice) (*model.CombinedFile, error) {
	cf, err := combine.Combine(notices, combine.Options{Now: s.Now, Quality: s.Quality})
	if err != nil {
		return nil, err
	}
	if err := store.SaveCombined(s.Paths.Combined, cf); err != nil {
		return nil, err
	}
	zap.L().Info("combine complete",
		zap.String("path", s.Paths.Combined),
		zap.Int("notices", len(cf.Notices)),
		zap.Int("facilities", len(cf.Facilities)),
		zap.Int("titles", len(cf.JobTitles.CanonicalTitles)),
	)
	return cf, nil
}

// LoadCombined reads the combined file.
func (s *Stages) LoadCombined() (*model.CombinedDataset, error) {
	cf, err := store.LoadCombined(s.Paths.Combined)
	if err != nil {
		return nil, err
	}
	return &cf.CombinedDataset, nil
}

// LoadImpacts reads the impacts table.
func (s *Stages) LoadImpacts() ([]export.ImpactRow, error) {
	return export.LoadImpacts(s.Paths.Impacts, s.Quality)
}

// Impacts writes the row-level impacts table.
func (s *Stages) Impacts(ds *model.CombinedDataset) ([]export.ImpactRow, error) {
	rows := export.Impacts(ds, s.Quality)
	if err := export.WriteImpacts(s.Paths.Impacts, rows); err != nil {
		return nil, err
	}
	zap.L().Info("impacts export complete", zap.String("path", s.Paths.Impacts), zap.Int("rows", len(rows)))
	return rows, nil
}

// FacilityRollup writes the impact-driven facility rollup.
func (s *Stages) FacilityRollup(rows []export.ImpactRow) (*table.Table, error) {
	out := export.FacilityRollup(rows)
	if err := table.WriteRecords(s.Paths.FacilityRollup, out); err != nil {
		return nil, err
	}
	zap.L().Info("facility rollup complete", zap.String("path", s.Paths.FacilityRollup), zap.Int("facilities", len(out)))
	return export.FacilityRollupTable(out), nil
}

// AllFacilities writes the facility list left-joined onto rollup.
func (s *Stages) AllFacilities(ds *model.CombinedDataset, rollup *table.Table) (*table.Table, error) {
	out, stats, err := export.AllFacilities(export.CombinedFacilityIDs(ds), rollup)
	if err != nil {
		return nil, err
	}
	if err := table.WriteTable(s.Paths.AllFacilities, out); err != nil {
		return nil, err
	}
	zap.L().Info("all-facilities export complete",
		zap.String("path", s.Paths.AllFacilities),
		zap.Int("combined_facilities", stats.CombinedFacilities),
		zap.Int("with_impacts", stats.WithImpacts),
		zap.Int("filled_with_zeros", stats.FilledWithZeros),
		zap.Strings("numeric_columns", stats.NumericColumns),
	)
	return out, nil
}

// TitleRollup writes the title rollup computed from the combined dataset and
// fails if it disagrees with the rollup computed from rows.
func (s *Stages) TitleRollup(ds *model.CombinedDataset, rows []export.ImpactRow) (*table.Table, error) {
	fromJSON, err := export.TitleRollupFromCombined(ds)
	if err != nil {
		return nil, err
	}
	if mismatches := export.CrossCheck(fromJSON, export.TitleRollupFromImpacts(rows)); len(mismatches) > 0 {
		for _, m := range mismatches {
			zap.L().Error("title rollup mismatch", zap.String("title", m.Title), zap.String("difference", m.Difference))
		}
		return nil, eris.Errorf("pipeline: title rollups disagree on %d titles", len(mismatches))
	}
	if err := s.WriteTitleRollup(fromJSON, "combined"); err != nil {
		return nil, err
	}
	return table.FromRecords(fromJSON)
}

// WriteTitleRollup writes rows computed from the named source.
func (s *Stages) WriteTitleRollup(rows []export.TitleRollupRow, source string) error {
	if err := table.WriteRecords(s.Paths.TitleRollup, rows); err != nil {
		return err
	}
	zap.L().Info("title rollup complete",
		zap.String("path", s.Paths.TitleRollup),
		zap.String("source", source),
		zap.Int("titles", len(rows)),
	)
	return nil
}

// NoticeSummary writes per-notice totals.
func (s *Stages) NoticeSummary(rows []export.ImpactRow) (*table.Table, error) {
	out := export.NoticeSummary(rows)
	if err := table.WriteRecords(s.Paths.NoticeSummary, out); err != nil {
		return nil, err
	}
	zap.L().Info("notice summary complete", zap.String("path", s.Paths.NoticeSummary), zap.Int("notices", len(out)))
	return table.FromRecords(out)
}

// TopTitles writes the top-N title view of titles.
func (s *Stages) TopTitles(titles *table.Table, n int) (*table.Table, error) {
	out, res, err := export.TopTitles(titles, n, s.Quality)
	if err != nil {
		return nil, err
	}
	return out, s.writeTop(s.Paths.TopTitles, out, res)
}

// TopFacilities writes the top-N facility view of facilities.
func (s *Stages) TopFacilities(facilities *table.Table, n int) (*table.Table, error) {
	out, res, err := export.TopFacilities(facilities, n, s.Quality)
	if err != nil {
		return nil, err
	}
	return out, s.writeTop(s.Paths.TopFacilities, out, res)
}

func (s *Stages) writeTop(path string, t *table.Table, res export.TopResult) error {
	if err := table.WriteTable(path, t); err != nil {
		return err
	}
	zap.L().Info("top-n export complete",
		zap.String("path", path),
		zap.String("key_column", res.KeyColumn),
		zap.String("total_column", res.TotalColumn),
		zap.Int("input_rows", res.InputRows),
		zap.Int("output_rows", res.OutputRows),
		zap.Int("non_numeric", res.NonNumeric),
	)
	return nil
}

// GeoJSON writes the facility map layer. ok is false, with no error, when the
// geocode table does not exist.
func (s *Stages) GeoJSON(facilities *table.Table, rows []export.ImpactRow) (ok bool, err error) {
	geoRows, err := geocodes.Load(s.Paths.Geocodes)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			zap.L().Warn("geocode table not found, skipping geojson", zap.String("path", s.Paths.Geocodes))
			return false, nil
		}
		return false, err
	}
	fc, stats, err := export.GeoJSON(facilities, rows, geocodes.Index(geoRows), export.GeoJSONOptions{
		TopTitles:     s.Export.GeoJSONTopTitles,
		IncludeRemote: !s.Export.ExcludeRemote,
	})
	if err != nil {
		return false, err
	}
	for _, id := range stats.MissingGeo {
		s.Quality.Record(export.Stage, model.IssueMissingGeo, id, "")
	}
	if err := export.WriteGeoJSON(s.Paths.GeoJSON, fc); err != nil {
		return false, err
	}
	zap.L().Info("geojson export complete",
		zap.String("path", s.Paths.GeoJSON),
		zap.Int("features", stats.Features),
		zap.Int("excluded", stats.Excluded),
		zap.Int("missing_geo", len(stats.MissingGeo)),
		zap.Int("duplicates", stats.Duplicates),
	)
	return true, nil
}

// Workbook writes every table in sheets to one workbook.
func (s *Stages) Workbook(sheets []export.Sheet) error {
	if err := export.Workbook(s.Paths.Workbook, sheets); err != nil {
		return err
	}
	zap.L().Info("workbook export complete", zap.String("path", s.Paths.Workbook), zap.Int("sheets", len(sheets)))
	return nil
}

// LogQuality emits one summary line for the soft issues recorded so far.
func (s *Stages) LogQuality() {
	if s.Quality.Len() == 0 {
		return
	}
	counts := s.Quality.CountByKind()
	kinds := make([]string, 0, len(counts))
	for kind := range counts {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	fields := []zap.Field{zap.Int("total", s.Quality.Len())}
	for _, kind := range kinds {
		fields = append(fields, zap.Int(kind, counts[kind]))
	}
	zap.L().Warn("data quality issues", fields...)
}

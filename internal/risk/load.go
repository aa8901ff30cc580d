package risk

import (
	"errors"
	"io/fs"

	"go.uber.org/zap"

	"github.com/sells-group/warn-cli/internal/export"
	"github.com/sells-group/warn-cli/internal/geocodes"
	"github.com/sells-group/warn-cli/internal/model"
	"github.com/sells-group/warn-cli/internal/table"
)

// Paths locates the query inputs.
type Paths struct {
	Impacts        string
	FacilityRollup string
	Geocodes       string
}

// Load reads the impacts and facility rollup tables and, when present, the
// geocode table. A missing geocode file only disables proximity results.
func Load(p Paths, q *model.QualityLog) (*Data, error) {
	impacts, err := export.LoadImpacts(p.Impacts, q)
	if err != nil {
		return nil, err
	}
	rollup, err := table.Read(p.FacilityRollup)
	if err != nil {
		return nil, err
	}

	d := &Data{Impacts: impacts, Rollup: rollup}
	if p.Geocodes == "" {
		return d, nil
	}
	rows, err := geocodes.Load(p.Geocodes)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		zap.L().Warn("risk: geocode file not found", zap.String("path", p.Geocodes))
	case err != nil:
		zap.L().Warn("risk: geocode file unreadable", zap.String("path", p.Geocodes), zap.Error(err))
	default:
		d.Locations = geocodes.Index(rows)
	}

	zap.L().Debug("risk: data loaded",
		zap.Int("impacts", len(d.Impacts)),
		zap.Int("facilities", len(d.Rollup.Rows)),
		zap.Int("geocodes", len(d.Locations)),
	)
	return d, nil
}

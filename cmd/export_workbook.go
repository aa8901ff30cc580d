package main

import (
	"errors"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/warn-cli/internal/export"
	"github.com/sells-group/warn-cli/internal/table"
)

var exportWorkbookCmd = &cobra.Command{
	Use:   "workbook",
	Short: "Collect the exported rollups into one .xlsx workbook",
	Long:  "Adds one sheet per rollup table that exists on disk. Missing tables are skipped with a warning.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		s, err := exportStages()
		if err != nil {
			return err
		}
		s.Paths.Workbook = override(exportOut, s.Paths.Workbook)

		sources := []struct{ name, path string }{
			{"facility_rollup", s.Paths.FacilityRollup},
			{"all_facilities", s.Paths.AllFacilities},
			{"job_title_rollup", s.Paths.TitleRollup},
			{"notice_summary", s.Paths.NoticeSummary},
			{"top_job_titles", s.Paths.TopTitles},
			{"top_facilities", s.Paths.TopFacilities},
		}
		var sheets []export.Sheet
		for _, src := range sources {
			t, err := table.Read(src.path)
			if err != nil {
				if errors.Is(err, os.ErrNotExist) {
					zap.L().Warn("rollup table not found, skipping sheet", zap.String("sheet", src.name), zap.String("path", src.path))
					continue
				}
				return err
			}
			sheets = append(sheets, export.Sheet{Name: src.name, Table: t})
		}
		if len(sheets) == 0 {
			return eris.Wrap(errNoSheets, "workbook")
		}
		return s.Workbook(sheets)
	},
}

func init() {
	exportCmd.AddCommand(exportWorkbookCmd)
}

package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/warn-cli/internal/export"
	"github.com/sells-group/warn-cli/internal/pipeline"
	"github.com/sells-group/warn-cli/internal/table"
)

var exportTitleRollupFrom string

var exportTitleRollupCmd = &cobra.Command{
	Use:   "title-rollup",
	Short: "Total impacts per job title",
	Long:  "Computes the title rollup from the combined dataset (--from combined) or from the impacts table (--from impacts). Both sources yield the same totals for the same notices.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		s, err := exportStages()
		if err != nil {
			return err
		}
		s.Paths.TitleRollup = override(exportOut, s.Paths.TitleRollup)

		var rows []export.TitleRollupRow
		switch exportTitleRollupFrom {
		case "combined":
			s.Paths.Combined = override(exportIn, s.Paths.Combined)
			ds, err := s.LoadCombined()
			if err != nil {
				return err
			}
			if rows, err = export.TitleRollupFromCombined(ds); err != nil {
				return err
			}
		case "impacts":
			s.Paths.Impacts = override(exportIn, s.Paths.Impacts)
			impacts, err := s.LoadImpacts()
			if err != nil {
				return err
			}
			rows = export.TitleRollupFromImpacts(impacts)
		default:
			return eris.Errorf("--from must be combined or impacts, got %q", exportTitleRollupFrom)
		}
		if err := s.WriteTitleRollup(rows, exportTitleRollupFrom); err != nil {
			return err
		}
		s.LogQuality()
		return nil
	},
}

var exportCrossCheckCmd = &cobra.Command{
	Use:   "crosscheck",
	Short: "Compare the title rollups computed from the combined dataset and the impacts table",
	RunE: func(cmd *cobra.Command, _ []string) error {
		s, err := exportStages()
		if err != nil {
			return err
		}
		mismatches, err := crossCheck(s)
		if err != nil {
			return err
		}
		for _, m := range mismatches {
			zap.L().Error("title rollup mismatch", zap.String("title", m.Title), zap.String("difference", m.Difference))
		}
		if len(mismatches) > 0 {
			return eris.Errorf("title rollups disagree on %d titles", len(mismatches))
		}
		zap.L().Info("crosscheck complete", zap.String("combined", s.Paths.Combined), zap.String("impacts", s.Paths.Impacts))
		return nil
	},
}

func crossCheck(s *pipeline.Stages) ([]export.Mismatch, error) {
	ds, err := s.LoadCombined()
	if err != nil {
		return nil, err
	}
	impacts, err := s.LoadImpacts()
	if err != nil {
		return nil, err
	}
	fromJSON, err := export.TitleRollupFromCombined(ds)
	if err != nil {
		return nil, err
	}
	return export.CrossCheck(fromJSON, export.TitleRollupFromImpacts(impacts)), nil
}

var exportTopTitlesN int

var exportTopTitlesCmd = &cobra.Command{
	Use:   "top-titles",
	Short: "Rank job titles by total affected",
	RunE: func(cmd *cobra.Command, _ []string) error {
		s, err := exportStages()
		if err != nil {
			return err
		}
		in := override(exportIn, s.Paths.TitleRollup)
		s.Paths.TopTitles = override(exportOut, s.Paths.TopTitles)

		t, err := table.Read(in)
		if err != nil {
			return err
		}
		n := exportTopTitlesN
		if n < 0 {
			n = s.Export.TopTitles
		}
		if _, err := s.TopTitles(t, n); err != nil {
			return err
		}
		s.LogQuality()
		return nil
	},
}

func init() {
	exportTitleRollupCmd.Flags().StringVar(&exportTitleRollupFrom, "from", "impacts", "rollup source: combined or impacts")
	exportTopTitlesCmd.Flags().IntVar(&exportTopTitlesN, "n", -1, "rows to keep, 0 for all (default from config)")
	exportCmd.AddCommand(exportTitleRollupCmd, exportCrossCheckCmd, exportTopTitlesCmd)
}

package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/warn-cli/internal/pipeline"
)

var buildCmd = &cobra.Command{
	Use:   "build [notice.json...]",
	Short: "Validate, combine, and run every export in one pass",
	Long:  "Loads and validates the notice files (default: every file in paths.notices), writes the combined dataset, then every rollup, the GeoJSON layer when geocodes exist, and the workbook. Stops at the first failed phase.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("export"); err != nil {
			return err
		}
		paths, err := pipeline.NoticePaths(cfg.Paths.Notices, args)
		if err != nil {
			return err
		}
		notices, err := pipeline.LoadNotices(paths)
		if err != nil {
			return err
		}

		res, err := pipeline.New(cfg).Build(notices)
		if err != nil {
			return err
		}

		var skipped []string
		for _, p := range res.Phases {
			if p.Status == pipeline.PhaseStatusSkipped {
				skipped = append(skipped, p.Name)
			}
		}
		zap.L().Info("build complete",
			zap.Int("notices", len(notices)),
			zap.Int("phases", len(res.Phases)),
			zap.Strings("skipped", skipped),
			zap.Int("quality_issues", len(res.Quality)),
		)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(buildCmd)
}

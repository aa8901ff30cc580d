package main

import (
	"github.com/spf13/cobra"

	"github.com/sells-group/warn-cli/internal/pipeline"
)

var combineOut string

var combineCmd = &cobra.Command{
	Use:   "combine [notice.json...]",
	Short: "Merge validated notices into the combined dataset",
	RunE: func(cmd *cobra.Command, args []string) error {
		paths, err := pipeline.NoticePaths(cfg.Paths.Notices, args)
		if err != nil {
			return err
		}
		notices, err := pipeline.LoadNotices(paths)
		if err != nil {
			return err
		}

		s := pipeline.New(cfg)
		if combineOut != "" {
			s.Paths.Combined = combineOut
		}
		if _, err := s.Combine(notices); err != nil {
			return err
		}
		s.LogQuality()
		return nil
	},
}

func init() {
	combineCmd.Flags().StringVar(&combineOut, "out", "", "combined JSON output path (default from config)")
	rootCmd.AddCommand(combineCmd)
}

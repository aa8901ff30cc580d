package main

import (
	"github.com/spf13/cobra"
)

var exportNoticeSummaryCmd = &cobra.Command{
	Use:   "notice-summary",
	Short: "Total impacts per notice",
	RunE: func(cmd *cobra.Command, _ []string) error {
		s, err := exportStages()
		if err != nil {
			return err
		}
		s.Paths.Impacts = override(exportIn, s.Paths.Impacts)
		s.Paths.NoticeSummary = override(exportOut, s.Paths.NoticeSummary)

		rows, err := s.LoadImpacts()
		if err != nil {
			return err
		}
		if _, err := s.NoticeSummary(rows); err != nil {
			return err
		}
		s.LogQuality()
		return nil
	},
}

func init() {
	exportCmd.AddCommand(exportNoticeSummaryCmd)
}

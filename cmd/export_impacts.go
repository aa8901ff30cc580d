package main

import (
	"github.com/spf13/cobra"
)

var exportImpactsCmd = &cobra.Command{
	Use:   "impacts",
	Short: "Flatten the combined dataset into one row per notice, facility, and title",
	RunE: func(cmd *cobra.Command, _ []string) error {
		s, err := exportStages()
		if err != nil {
			return err
		}
		s.Paths.Combined = override(exportIn, s.Paths.Combined)
		s.Paths.Impacts = override(exportOut, s.Paths.Impacts)

		ds, err := s.LoadCombined()
		if err != nil {
			return err
		}
		if _, err := s.Impacts(ds); err != nil {
			return err
		}
		s.LogQuality()
		return nil
	},
}

func init() {
	exportCmd.AddCommand(exportImpactsCmd)
}

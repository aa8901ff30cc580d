package main

import (
	"github.com/spf13/cobra"

	"github.com/sells-group/warn-cli/internal/table"
)

var exportFacilityRollupCmd = &cobra.Command{
	Use:   "facility-rollup",
	Short: "Total impacts per facility",
	RunE: func(cmd *cobra.Command, _ []string) error {
		s, err := exportStages()
		if err != nil {
			return err
		}
		s.Paths.Impacts = override(exportIn, s.Paths.Impacts)
		s.Paths.FacilityRollup = override(exportOut, s.Paths.FacilityRollup)

		rows, err := s.LoadImpacts()
		if err != nil {
			return err
		}
		if _, err := s.FacilityRollup(rows); err != nil {
			return err
		}
		s.LogQuality()
		return nil
	},
}

var exportAllFacilitiesCmd = &cobra.Command{
	Use:   "all-facilities",
	Short: "List every combined facility with its rollup totals, zero-filled",
	RunE: func(cmd *cobra.Command, _ []string) error {
		s, err := exportStages()
		if err != nil {
			return err
		}
		s.Paths.FacilityRollup = override(exportIn, s.Paths.FacilityRollup)
		s.Paths.AllFacilities = override(exportOut, s.Paths.AllFacilities)

		ds, err := s.LoadCombined()
		if err != nil {
			return err
		}
		rollup, err := table.Read(s.Paths.FacilityRollup)
		if err != nil {
			return err
		}
		_, err = s.AllFacilities(ds, rollup)
		return err
	},
}

var exportTopFacilitiesN int

var exportTopFacilitiesCmd = &cobra.Command{
	Use:   "top-facilities",
	Short: "Rank facilities by total affected",
	RunE: func(cmd *cobra.Command, _ []string) error {
		s, err := exportStages()
		if err != nil {
			return err
		}
		in := override(exportIn, s.Paths.FacilityRollup)
		s.Paths.TopFacilities = override(exportOut, s.Paths.TopFacilities)

		t, err := table.Read(in)
		if err != nil {
			return err
		}
		n := exportTopFacilitiesN
		if n < 0 {
			n = s.Export.TopFacilities
		}
		if _, err := s.TopFacilities(t, n); err != nil {
			return err
		}
		s.LogQuality()
		return nil
	},
}

func init() {
	exportTopFacilitiesCmd.Flags().IntVar(&exportTopFacilitiesN, "n", -1, "rows to keep, 0 for all (default from config)")
	exportCmd.AddCommand(exportFacilityRollupCmd, exportAllFacilitiesCmd, exportTopFacilitiesCmd)
}

package main

import (
	"github.com/spf13/cobra"

	"github.com/sells-group/warn-cli/internal/model"
	"github.com/sells-group/warn-cli/internal/table"
)

var exportIncludeRemote bool

var exportGeoJSONCmd = &cobra.Command{
	Use:   "geojson",
	Short: "Write a point layer of geocoded facilities",
	RunE: func(cmd *cobra.Command, _ []string) error {
		s, err := exportStages()
		if err != nil {
			return err
		}
		s.Paths.AllFacilities = override(exportIn, s.Paths.AllFacilities)
		s.Paths.GeoJSON = override(exportOut, s.Paths.GeoJSON)
		if exportIncludeRemote {
			s.Export.ExcludeRemote = false
		}

		facilities, err := table.Read(s.Paths.AllFacilities)
		if err != nil {
			return err
		}
		rows, err := s.LoadImpacts()
		if err != nil {
			return err
		}
		ok, err := s.GeoJSON(facilities, rows)
		if err != nil {
			return err
		}
		if !ok {
			return &model.DataLoadError{Path: s.Paths.Geocodes, Err: errGeocodesMissing}
		}
		s.LogQuality()
		return nil
	},
}

func init() {
	exportGeoJSONCmd.Flags().BoolVar(&exportIncludeRemote, "include-remote", false, "include the remote pseudo-facility")
	exportCmd.AddCommand(exportGeoJSONCmd)
}

package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/warn-cli/internal/geocodes"
	"github.com/sells-group/warn-cli/internal/table"
)

var (
	refreshCandidate  string
	refreshChanges    string
	refreshUnresolved string
)

var geocodeRefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Re-geocode facilities from their street addresses",
	Long:  "Looks up every row's street address and writes a candidate table for review. The source table is never modified. Rows marked as centroids or approximations are left alone.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.Validate("geocode"); err != nil {
			return err
		}
		in := geocodeTable()
		rows, err := geocodes.Load(in)
		if err != nil {
			return err
		}

		res, err := geocodes.Refresh(cmd.Context(), rows, newGeocodeClient())
		if err != nil {
			return err
		}

		candidate := override(refreshCandidate, geocodeSibling("facility_geocodes_REFRESH_CANDIDATE.csv"))
		changes := override(refreshChanges, geocodeSibling("geocode_refresh_changes.csv"))
		unresolved := override(refreshUnresolved, geocodeSibling("geocode_refresh_unresolved.csv"))
		if err := geocodes.Save(candidate, res.Rows); err != nil {
			return err
		}
		if err := table.WriteRecords(changes, res.Changes); err != nil {
			return err
		}
		if err := table.WriteRecords(unresolved, res.Unresolved); err != nil {
			return err
		}

		zap.L().Info("geocode refresh complete",
			zap.String("in", in),
			zap.String("candidate", candidate),
			zap.Int("rows", len(res.Rows)),
			zap.Int("changed", len(res.Changes)),
			zap.Int("unresolved", len(res.Unresolved)),
			zap.Int("skipped", res.Skipped),
		)
		return nil
	},
}

func init() {
	geocodeRefreshCmd.Flags().StringVar(&refreshCandidate, "candidate", "", "candidate table output path")
	geocodeRefreshCmd.Flags().StringVar(&refreshChanges, "changes", "", "changes log output path")
	geocodeRefreshCmd.Flags().StringVar(&refreshUnresolved, "unresolved", "", "unresolved log output path")
	geocodeCmd.AddCommand(geocodeRefreshCmd)
}

package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/warn-cli/internal/geocodes"
	"github.com/sells-group/warn-cli/internal/table"
)

var (
	mergeStaging string
	mergeOut     string
	mergeReport  string
)

var geocodeMergeCmd = &cobra.Command{
	Use:   "merge-addresses",
	Short: "Copy staged street addresses into the geocode table",
	Long:  "Matches staging rows by facility ID. Staged coordinates only fill blank lat/lon. The geocode table is rewritten in place unless --out is given.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		in := geocodeTable()
		rows, err := geocodes.Load(in)
		if err != nil {
			return err
		}
		staging, err := geocodes.LoadStaging(override(mergeStaging, cfg.Paths.AddressStaging))
		if err != nil {
			return err
		}

		merged, report := geocodes.Merge(rows, staging)
		out := override(mergeOut, in)
		if err := geocodes.Save(out, merged); err != nil {
			return err
		}
		reportPath := override(mergeReport, geocodeSibling("geocode_merge_report.csv"))
		if err := table.WriteRecords(reportPath, report); err != nil {
			return err
		}

		var matched, filled int
		for _, r := range report {
			if r.HadAddressRow {
				matched++
			}
			if r.LatWasBlankFilled || r.LonWasBlankFilled {
				filled++
			}
		}
		zap.L().Info("address merge complete",
			zap.String("out", out),
			zap.String("report", reportPath),
			zap.Int("rows", len(merged)),
			zap.Int("matched", matched),
			zap.Int("coordinates_filled", filled),
		)
		return nil
	},
}

func init() {
	geocodeMergeCmd.Flags().StringVar(&mergeStaging, "staging", "", "address staging CSV (default from config)")
	geocodeMergeCmd.Flags().StringVar(&mergeOut, "out", "", "merged table output path (default: overwrite input)")
	geocodeMergeCmd.Flags().StringVar(&mergeReport, "report", "", "merge report output path")
	geocodeCmd.AddCommand(geocodeMergeCmd)
}

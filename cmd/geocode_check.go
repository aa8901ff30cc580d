package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/warn-cli/internal/geocodes"
)

var geocodeCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Report unparseable, out-of-range, and shared coordinates",
	RunE: func(cmd *cobra.Command, _ []string) error {
		in := geocodeTable()
		rows, err := geocodes.Load(in)
		if err != nil {
			return err
		}
		rep := geocodes.Check(rows)
		writeCheckReport(cmd.OutOrStdout(), rep)

		zap.L().Info("geocode check complete",
			zap.String("in", in),
			zap.Int("rows", rep.Rows),
			zap.Int("problems", len(rep.Problems)),
			zap.Int("unique_points", rep.UniquePoints),
			zap.Int("duplicate_groups", len(rep.Duplicates)),
		)
		return nil
	},
}

func writeCheckReport(w io.Writer, rep geocodes.CheckReport) {
	fmt.Fprintf(w, "Rows: %d\n", rep.Rows)
	fmt.Fprintf(w, "Unique coordinates: %d\n", rep.UniquePoints)
	fmt.Fprintf(w, "Problems: %d\n", len(rep.Problems))
	for _, p := range rep.Problems {
		fmt.Fprintf(w, "  %-12s %-14s lat=%q lon=%q\n", p.FacilityID, p.Kind, p.Lat, p.Lon)
	}
	fmt.Fprintf(w, "Shared coordinates: %d\n", len(rep.Duplicates))
	for _, g := range rep.Duplicates {
		fmt.Fprintf(w, "  (%.6f, %.6f) x%d: %s\n", g.Point.Lat, g.Point.Lon, len(g.IDs), strings.Join(g.IDs, ", "))
	}
}

func init() {
	geocodeCmd.AddCommand(geocodeCheckCmd)
}

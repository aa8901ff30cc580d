package main

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/warn-cli/internal/model"
	"github.com/sells-group/warn-cli/internal/risk"
	"github.com/sells-group/warn-cli/internal/store"
)

var (
	riskFacility string
	riskTitle    string
	riskTop      int
	riskNearest  int
	riskRadiusKm float64
	riskJSON     bool
)

var riskCmd = &cobra.Command{
	Use:   "risk",
	Short: "Assess layoff exposure for a job title at a facility",
	Long:  "Reports the exact facility/title total, the top titles at the facility, the top facilities for the title, and, when geocodes are available, the nearest other facilities where the title was cut. Title matching is exact.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.Validate("risk"); err != nil {
			return err
		}
		q := risk.Query{
			Facility: strings.TrimSpace(riskFacility),
			Title:    strings.TrimSpace(riskTitle),
			Top:      cfg.Risk.Top,
			Nearest:  cfg.Risk.Nearest,
			RadiusKm: riskRadiusKm,
		}
		if riskTop >= 0 {
			q.Top = riskTop
		}
		if riskNearest >= 0 {
			q.Nearest = riskNearest
		}
		if q.RadiusKm < 0 {
			return eris.New("--radius-km must be >= 0")
		}

		quality := &model.QualityLog{}
		d, err := risk.Load(risk.Paths{
			Impacts:        cfg.Paths.Impacts,
			FacilityRollup: cfg.Paths.FacilityRollup,
			Geocodes:       cfg.Paths.Geocodes,
		}, quality)
		if err != nil {
			return err
		}
		a := risk.Assess(q, d)

		out := cmd.OutOrStdout()
		if riskJSON {
			data, err := store.MarshalIndent(a)
			if err != nil {
				return err
			}
			if _, err := out.Write(data); err != nil {
				return eris.Wrap(err, "write assessment")
			}
		} else if err := risk.WriteReport(out, a); err != nil {
			return err
		}

		zap.L().Info("risk assessment complete",
			zap.String("facility", q.Facility),
			zap.String("title", q.Title),
			zap.Bool("facility_found", a.Found),
			zap.Int("direct_total", a.DirectMatch.Total),
			zap.Int("quality_issues", quality.Len()),
		)
		return nil
	},
}

func init() {
	riskCmd.Flags().StringVar(&riskFacility, "facility", "", "facility ID (required)")
	riskCmd.Flags().StringVar(&riskTitle, "title", "", "exact job title (required)")
	riskCmd.Flags().IntVar(&riskTop, "top", -1, "entries per ranked list, 0 for all (default from config)")
	riskCmd.Flags().IntVar(&riskNearest, "nearest", -1, "nearest facilities to list, 0 for all (default from config)")
	riskCmd.Flags().Float64Var(&riskRadiusKm, "radius-km", 0, "limit nearest facilities to this distance, 0 for no limit")
	riskCmd.Flags().BoolVar(&riskJSON, "json", false, "print the assessment as JSON")
	_ = riskCmd.MarkFlagRequired("facility")
	_ = riskCmd.MarkFlagRequired("title")
	rootCmd.AddCommand(riskCmd)
}

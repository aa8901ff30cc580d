package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/sells-group/warn-cli/internal/pipeline"
)

var (
	exportIn  string
	exportOut string
)

var (
	errGeocodesMissing = errors.New("geocode table not found")
	errNoSheets        = errors.New("no rollup tables found")
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Derive rollup tables, map layers, and workbooks",
	Long:  "Each export reads the combined dataset or an earlier export from the configured paths and writes one output. --in and --out override the configured input and output paths.",
}

// exportStages validates export settings and returns stages for the
// configured layout.
func exportStages() (*pipeline.Stages, error) {
	if err := cfg.Validate("export"); err != nil {
		return nil, err
	}
	return pipeline.New(cfg), nil
}

// override returns flag when set, else def.
func override(flag, def string) string {
	if flag != "" {
		return flag
	}
	return def
}

func init() {
	exportCmd.PersistentFlags().StringVar(&exportIn, "in", "", "input path override")
	exportCmd.PersistentFlags().StringVar(&exportOut, "out", "", "output path override")
	rootCmd.AddCommand(exportCmd)
}

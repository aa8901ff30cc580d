package main

import (
	"os"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/warn-cli/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "warn-cli",
	Short: "WARN layoff notice pipeline",
	Long:  "Parses layoff notices into structured records, combines them into one dataset, exports rollups and map layers, and answers facility/title risk queries.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return eris.Wrap(err, "load config")
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return eris.Wrap(err, "init logger")
		}
		zap.ReplaceGlobals(zap.L().With(
			zap.String("run_id", uuid.NewString()),
			zap.String("command", cmd.CommandPath()),
		))

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

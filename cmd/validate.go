package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/warn-cli/internal/pipeline"
	"github.com/sells-group/warn-cli/internal/store"
	"github.com/sells-group/warn-cli/internal/validate"
)

var validateCmd = &cobra.Command{
	Use:   "validate [notice.json...]",
	Short: "Check notice files for structural violations",
	Long:  "Validates each notice file (default: every file in paths.notices). Every file is checked; the command fails if any file is invalid.",
	RunE: func(cmd *cobra.Command, args []string) error {
		paths, err := pipeline.NoticePaths(cfg.Paths.Notices, args)
		if err != nil {
			return err
		}

		var failed int
		for _, p := range paths {
			res, err := validateFile(p)
			if err != nil {
				failed++
				zap.L().Error("notice invalid", zap.String("path", p), zap.Error(err))
				continue
			}
			zap.L().Info("notice valid",
				zap.String("path", p),
				zap.String("notice_id", res.NoticeID),
				zap.Int("facilities", res.Facilities),
				zap.Int("job_title_impacts", res.JobTitleImpacts),
			)
		}
		if failed > 0 {
			return eris.Errorf("%d of %d notice files invalid", failed, len(paths))
		}
		zap.L().Info("validate complete", zap.Int("files", len(paths)))
		return nil
	},
}

func validateFile(path string) (validate.Result, error) {
	data, err := store.ReadNoticeBytes(path)
	if err != nil {
		return validate.Result{}, err
	}
	nf, err := validate.Bytes(data)
	if err != nil {
		return validate.Result{}, err
	}
	return validate.Summarize(nf.Notice), nil
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

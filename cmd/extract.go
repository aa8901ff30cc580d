package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/warn-cli/internal/ocr"
	"github.com/sells-group/warn-cli/internal/store"
)

var (
	extractPDF string
	extractOut string
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract per-page text from a notice PDF",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ext, err := ocr.NewExtractor(cfg.OCR)
		if err != nil {
			return err
		}

		pages, err := ext.ExtractPages(cmd.Context(), extractPDF)
		if err != nil {
			return eris.Wrap(err, "extract pages")
		}
		if err := store.SavePages(extractOut, pages); err != nil {
			return err
		}

		zap.L().Info("extract complete",
			zap.String("pdf", extractPDF),
			zap.String("out", extractOut),
			zap.Int("pages", len(pages)),
		)
		return nil
	},
}

func init() {
	extractCmd.Flags().StringVar(&extractPDF, "pdf", "", "notice PDF (required)")
	extractCmd.Flags().StringVar(&extractOut, "out", "", "pages JSON output path (required)")
	_ = extractCmd.MarkFlagRequired("pdf")
	_ = extractCmd.MarkFlagRequired("out")
	rootCmd.AddCommand(extractCmd)
}

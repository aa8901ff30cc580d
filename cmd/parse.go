package main

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/warn-cli/internal/model"
	"github.com/sells-group/warn-cli/internal/noticeparse"
	"github.com/sells-group/warn-cli/internal/store"
	"github.com/sells-group/warn-cli/internal/validate"
)

var (
	parsePages  string
	parseNotice string
	parseFormat string
	parseOut    string
)

var parseCmd = &cobra.Command{
	Use:   "parse",
	Short: "Fill a notice stub from extracted page text",
	Long:  "Reads the pages JSON, recognizes facilities, remote clauses, separation dates, and the job-title table, and writes them into the notice file. The notice is validated before it is written.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		adapter, err := resolveAdapter(parseFormat)
		if err != nil {
			return err
		}
		pages, err := store.LoadPages(parsePages)
		if err != nil {
			return err
		}
		nf, err := store.LoadNoticeFile(parseNotice)
		if err != nil {
			return err
		}

		x, err := adapter.Parse(nf.Notice.NoticeID, pages)
		if err != nil {
			return err
		}
		x.Apply(&nf.Notice)
		nf.Version = model.SchemaVersion
		nf.GeneratedAt = model.Timestamp(time.Now())

		if err := validate.Notice(nf.Notice); err != nil {
			return err
		}

		out := parseOut
		if out == "" {
			out = parseNotice
		}
		if err := store.SaveNoticeFile(out, nf); err != nil {
			return err
		}

		zap.L().Info("parse complete",
			zap.String("format", adapter.Name()),
			zap.String("out", out),
			zap.Int("facilities", len(nf.Notice.Facilities)),
			zap.Int("remote_clauses", len(nf.Notice.RemoteClauses)),
			zap.Int("separation_dates", len(nf.Notice.SeparationDates)),
			zap.Int("job_title_impacts", len(nf.Notice.JobTitleImpacts)),
		)
		return nil
	},
}

// resolveAdapter treats a .yaml/.yml argument as a format file and anything
// else as a built-in format name.
func resolveAdapter(format string) (noticeparse.Adapter, error) {
	switch strings.ToLower(filepath.Ext(format)) {
	case ".yaml", ".yml":
		f, err := noticeparse.LoadFormat(format)
		if err != nil {
			return nil, err
		}
		a, err := noticeparse.NewPatternAdapter(f)
		if err != nil {
			return nil, err
		}
		return a, nil
	}
	return noticeparse.DefaultRegistry().Resolve(format)
}

func init() {
	parseCmd.Flags().StringVar(&parsePages, "pages", "", "pages JSON from extract (required)")
	parseCmd.Flags().StringVar(&parseNotice, "notice", "", "notice stub to fill (required)")
	parseCmd.Flags().StringVar(&parseFormat, "format", noticeparse.WALayoffFormat.Name, "built-in format name or YAML format file")
	parseCmd.Flags().StringVar(&parseOut, "out", "", "output path (default: overwrite --notice)")
	_ = parseCmd.MarkFlagRequired("pages")
	_ = parseCmd.MarkFlagRequired("notice")
	rootCmd.AddCommand(parseCmd)
}

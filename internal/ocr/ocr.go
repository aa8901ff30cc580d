// Package ocr turns notice PDFs into per-page text.
package ocr

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/warn-cli/internal/config"
	"github.com/sells-group/warn-cli/internal/model"
)

// Extractor extracts per-page text from PDF files. Pages are numbered from 1.
type Extractor interface {
	ExtractPages(ctx context.Context, pdfPath string) ([]model.Page, error)
}

// NewExtractor creates an Extractor based on config.
func NewExtractor(cfg config.OCRConfig) (Extractor, error) {
	switch cfg.Provider {
	case "local", "":
		return NewPdfToText(cfg.PdfToTextPath), nil
	case "mistral":
		if cfg.MistralKey == "" {
			return nil, eris.New("ocr: mistral provider requires ocr.mistral_api_key")
		}
		return NewMistralOCR(cfg.MistralKey, cfg.MistralModel), nil
	default:
		return nil, eris.Errorf("ocr: unknown provider %q", cfg.Provider)
	}
}

// SplitPages splits form-feed separated text into pages. A trailing form feed
// does not start an empty final page.
func SplitPages(text string) []model.Page {
	parts := strings.Split(text, "\f")
	if len(parts) > 1 && strings.TrimSpace(parts[len(parts)-1]) == "" {
		parts = parts[:len(parts)-1]
	}
	pages := make([]model.Page, 0, len(parts))
	for i, p := range parts {
		pages = append(pages, model.Page{Number: i + 1, Text: strings.TrimRight(p, "\n")})
	}
	return pages
}

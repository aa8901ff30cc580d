package ocr

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/warn-cli/internal/config"
	"github.com/sells-group/warn-cli/internal/model"
	"github.com/sells-group/warn-cli/internal/resilience"
)

func TestNewExtractor_Local(t *testing.T) {
	ext, err := NewExtractor(config.OCRConfig{Provider: "local", PdfToTextPath: "/usr/bin/pdftotext"})
	require.NoError(t, err)
	assert.IsType(t, &PdfToText{}, ext)
}

func TestNewExtractor_LocalDefault(t *testing.T) {
	ext, err := NewExtractor(config.OCRConfig{})
	require.NoError(t, err)
	assert.IsType(t, &PdfToText{}, ext)
}

func TestNewExtractor_Mistral(t *testing.T) {
	_, err := NewExtractor(config.OCRConfig{Provider: "mistral"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires ocr.mistral_api_key")

	ext, err := NewExtractor(config.OCRConfig{Provider: "mistral", MistralKey: "k"})
	require.NoError(t, err)
	assert.IsType(t, &MistralOCR{}, ext)
}

func TestNewExtractor_UnknownProvider(t *testing.T) {
	_, err := NewExtractor(config.OCRConfig{Provider: "unknown"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown provider "unknown"`)
}

func TestSplitPages(t *testing.T) {
	pages := SplitPages("first page\n\fsecond page\n\f")
	assert.Equal(t, []model.Page{
		{Number: 1, Text: "first page"},
		{Number: 2, Text: "second page"},
	}, pages)

	assert.Equal(t, []model.Page{{Number: 1, Text: ""}}, SplitPages(""))
	assert.Len(t, SplitPages("a\f\fc"), 3)
}

func TestPdfToText_BinPath(t *testing.T) {
	p := NewPdfToText("")
	assert.Equal(t, "pdftotext", p.binPath)

	p = NewPdfToText("/custom/pdftotext")
	assert.Equal(t, "/custom/pdftotext", p.binPath)
}

func TestPdfToText_BinaryNotFound(t *testing.T) {
	p := NewPdfToText("/nonexistent/pdftotext")
	_, err := p.ExtractPages(context.Background(), "/tmp/test.pdf")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pdftotext failed")
}

func TestPdfToText_SplitsOnFormFeed(t *testing.T) {
	tmpDir := t.TempDir()
	fakeBin := filepath.Join(tmpDir, "pdftotext")
	script := "#!/bin/sh\nprintf 'Cover letter\\n\\fLIST OF AFFECTED JOB TITLES\\n\\f'\n"
	require.NoError(t, os.WriteFile(fakeBin, []byte(script), 0755))

	p := NewPdfToText(fakeBin)
	pages, err := p.ExtractPages(context.Background(), "/tmp/dummy.pdf")
	require.NoError(t, err)
	require.Len(t, pages, 2)
	assert.Equal(t, "Cover letter", pages[0].Text)
	assert.Equal(t, 2, pages[1].Number)
	assert.Equal(t, "LIST OF AFFECTED JOB TITLES", pages[1].Text)
}

func TestMistralOCR_DefaultModel(t *testing.T) {
	m := NewMistralOCR("key", "")
	assert.Equal(t, defaultMistralModel, m.model)
	assert.Equal(t, mistralOCREndpoint, m.endpoint)
}

func writePDF(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "notice.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4 test"), 0644))
	return path
}

func TestMistralOCR_ExtractPages(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req mistralOCRRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-model", req.Model)
		assert.Contains(t, req.Document.DocumentURL, "data:application/pdf;base64,")

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(mistralOCRResponse{ //nolint:errcheck
			Pages: []mistralOCRPage{{Index: 0, Markdown: "Page one"}, {Index: 1, Markdown: "Page two"}},
		})
	}))
	defer srv.Close()

	m := &MistralOCR{apiKey: "test-key", model: "test-model", endpoint: srv.URL, client: &http.Client{}}
	pages, err := m.ExtractPages(context.Background(), writePDF(t))
	require.NoError(t, err)
	assert.Equal(t, []model.Page{{Number: 1, Text: "Page one"}, {Number: 2, Text: "Page two"}}, pages)
}

func TestMistralOCR_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"invalid api key"}`)) //nolint:errcheck
	}))
	defer srv.Close()

	m := &MistralOCR{apiKey: "bad-key", model: "test-model", endpoint: srv.URL, client: &http.Client{}}
	_, err := m.ExtractPages(context.Background(), writePDF(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mistral API returned status 401")
}

func TestMistralOCR_RetriesUnavailable(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(mistralOCRResponse{Pages: []mistralOCRPage{{Index: 0, Markdown: "ok"}}}) //nolint:errcheck
	}))
	defer srv.Close()

	m := &MistralOCR{
		apiKey: "k", model: "m", endpoint: srv.URL, client: &http.Client{},
		retry: resilience.Policy{Attempts: 2, Backoff: time.Millisecond},
	}
	pages, err := m.ExtractPages(context.Background(), writePDF(t))
	require.NoError(t, err)
	assert.Len(t, pages, 1)
	assert.Equal(t, 2, calls)
}

func TestMistralOCR_FileNotFound(t *testing.T) {
	m := NewMistralOCR("key", "model")
	_, err := m.ExtractPages(context.Background(), "/nonexistent/file.pdf")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read PDF")
}

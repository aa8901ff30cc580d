package ocr

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/warn-cli/internal/model"
	"github.com/sells-group/warn-cli/internal/resilience"
)

const (
	mistralOCREndpoint  = "https://api.mistral.ai/v1/ocr"
	defaultMistralModel = "pixtral-large-latest"
)

// MistralOCR extracts text from scanned notices using the Mistral OCR API.
type MistralOCR struct {
	apiKey   string
	model    string
	endpoint string
	client   *http.Client
	retry    resilience.Policy
}

// NewMistralOCR creates a MistralOCR extractor. If model is empty, the default is used.
func NewMistralOCR(apiKey, model string) *MistralOCR {
	if model == "" {
		model = defaultMistralModel
	}
	return &MistralOCR{
		apiKey:   apiKey,
		model:    model,
		endpoint: mistralOCREndpoint,
		client:   &http.Client{},
		retry:    resilience.Policy{Attempts: 3, Backoff: 2 * time.Second, OnRetry: resilience.LogRetries("mistral-ocr")},
	}
}

type mistralOCRRequest struct {
	Model    string             `json:"model"`
	Document mistralOCRDocument `json:"document"`
}

type mistralOCRDocument struct {
	Type        string `json:"type"`
	DocumentURL string `json:"document_url"`
}

type mistralOCRResponse struct {
	Pages []mistralOCRPage `json:"pages"`
}

type mistralOCRPage struct {
	Index    int    `json:"index"`
	Markdown string `json:"markdown"`
}

// ExtractPages sends the PDF to Mistral OCR and returns one page per
// response page, numbered from the response index.
func (m *MistralOCR) ExtractPages(ctx context.Context, pdfPath string) ([]model.Page, error) {
	data, err := os.ReadFile(pdfPath)
	if err != nil {
		return nil, eris.Wrapf(err, "ocr: read PDF %s", pdfPath)
	}

	encoded := base64.StdEncoding.EncodeToString(data)
	dataURL := "data:application/pdf;base64," + encoded

	reqBody := mistralOCRRequest{
		Model: m.model,
		Document: mistralOCRDocument{
			Type:        "document_url",
			DocumentURL: dataURL,
		},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, eris.Wrap(err, "ocr: marshal mistral request")
	}

	respBody, err := resilience.Do(ctx, m.retry, func(ctx context.Context) ([]byte, error) {
		return m.post(ctx, bodyBytes)
	})
	if err != nil {
		return nil, err
	}

	var ocrResp mistralOCRResponse
	if err := json.Unmarshal(respBody, &ocrResp); err != nil {
		return nil, eris.Wrap(err, "ocr: unmarshal mistral response")
	}

	pages := make([]model.Page, 0, len(ocrResp.Pages))
	for _, page := range ocrResp.Pages {
		pages = append(pages, model.Page{Number: page.Index + 1, Text: page.Markdown})
	}
	return pages, nil
}

func (m *MistralOCR) post(ctx context.Context, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, eris.Wrap(err, "ocr: create mistral request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+m.apiKey)

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "ocr: mistral API call")
	}
	defer resp.Body.Close() //nolint:errcheck

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "ocr: read mistral response")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, eris.Wrapf(resilience.StatusError("ocr: mistral API", resp.StatusCode), "body: %s", string(respBody))
	}
	return respBody, nil
}

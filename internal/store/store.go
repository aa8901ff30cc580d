// Package store loads and saves the JSON documents exchanged between pipeline stages.
// All state lives in flat files; every run reads its inputs fresh.
package store

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"

	"github.com/sells-group/warn-cli/internal/model"
)

// LoadPages reads an extracted-pages file. Both a bare list and a
// {"pages": [...]} wrapper are accepted.
func LoadPages(path string) ([]model.Page, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var pages []model.Page
		if err := json.Unmarshal(trimmed, &pages); err != nil {
			return nil, &model.DataLoadError{Path: path, Err: eris.Wrap(err, "store: decode pages")}
		}
		return pages, nil
	}

	var wrapped struct {
		Pages *[]model.Page `json:"pages"`
	}
	if err := json.Unmarshal(trimmed, &wrapped); err != nil {
		return nil, &model.DataLoadError{Path: path, Err: eris.Wrap(err, "store: decode pages")}
	}
	if wrapped.Pages == nil {
		return nil, &model.DataLoadError{Path: path, Err: eris.New("store: unexpected pages JSON structure")}
	}
	return *wrapped.Pages, nil
}

// SavePages writes pages as a bare JSON list.
func SavePages(path string, pages []model.Page) error {
	return WriteJSON(path, pages)
}

// LoadNoticeFile reads one normalized notice envelope.
func LoadNoticeFile(path string) (*model.NoticeFile, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}
	var nf model.NoticeFile
	if err := json.Unmarshal(data, &nf); err != nil {
		return nil, &model.DataLoadError{Path: path, Err: eris.Wrap(err, "store: decode notice")}
	}
	return &nf, nil
}

// ReadNoticeBytes returns the raw bytes of a notice file for structural validation.
func ReadNoticeBytes(path string) ([]byte, error) {
	return readFile(path)
}

// SaveNoticeFile writes a notice envelope.
func SaveNoticeFile(path string, nf *model.NoticeFile) error {
	return WriteJSON(path, nf)
}

// LoadCombined reads a combined dataset file.
func LoadCombined(path string) (*model.CombinedFile, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}
	var cf model.CombinedFile
	if err := json.Unmarshal(data, &cf); err != nil {
		return nil, &model.DataLoadError{Path: path, Err: eris.Wrap(err, "store: decode combined")}
	}
	return &cf, nil
}

// SaveCombined writes a combined dataset file.
func SaveCombined(path string, cf *model.CombinedFile) error {
	return WriteJSON(path, cf)
}

// MarshalIndent renders v as two-space indented JSON without HTML escaping.
func MarshalIndent(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, eris.Wrap(err, "store: encode json")
	}
	return buf.Bytes(), nil
}

// WriteJSON renders v with MarshalIndent and writes it to path, creating parent directories.
func WriteJSON(path string, v any) error {
	data, err := MarshalIndent(v)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return eris.Wrapf(err, "store: create dir %s", dir)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return eris.Wrapf(err, "store: write %s", path)
	}
	return nil
}

func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &model.DataLoadError{Path: path, Err: err}
	}
	return data, nil
}

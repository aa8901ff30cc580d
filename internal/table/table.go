// Package table reads and writes the flat CSV tables exchanged between pipeline stages.
package table

import (
	"bytes"
	"encoding/csv"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/sells-group/warn-cli/internal/model"
)

// Row is one CSV record keyed by header name.
type Row map[string]string

// Get returns the trimmed value of col.
func (r Row) Get(col string) string {
	return strings.TrimSpace(r[col])
}

// Table is a CSV file held fully in memory with its header order preserved.
type Table struct {
	Header []string
	Rows   []Row
}

// Has reports whether the header contains col.
func (t *Table) Has(col string) bool {
	for _, h := range t.Header {
		if h == col {
			return true
		}
	}
	return false
}

// Lookup finds a header column by case-insensitive name.
func (t *Table) Lookup(name string) (string, bool) {
	for _, h := range t.Header {
		if strings.EqualFold(h, name) {
			return h, true
		}
	}
	return "", false
}

// Column returns every row's value for col, in row order.
func (t *Table) Column(col string) []string {
	out := make([]string, 0, len(t.Rows))
	for _, r := range t.Rows {
		out = append(out, r[col])
	}
	return out
}

// NewReader wraps r so a leading UTF-8 byte order mark is dropped.
func NewReader(r io.Reader) *csv.Reader {
	dec := transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
	cr := csv.NewReader(dec)
	cr.FieldsPerRecord = -1
	return cr
}

// Parse reads a headered CSV stream into a Table.
func Parse(r io.Reader) (*Table, error) {
	cr := NewReader(r)
	header, err := cr.Read()
	if err == io.EOF {
		return nil, eris.New("table: missing header row")
	}
	if err != nil {
		return nil, eris.Wrap(err, "table: read header")
	}

	t := &Table{Header: header}
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "table: read row")
		}
		row := make(Row, len(header))
		for i, col := range header {
			if i < len(record) {
				row[col] = record[i]
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

// Read loads the CSV at path. Missing or malformed files yield a *model.DataLoadError.
func Read(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &model.DataLoadError{Path: path, Err: err}
	}
	defer f.Close() //nolint:errcheck

	t, err := Parse(f)
	if err != nil {
		return nil, &model.DataLoadError{Path: path, Err: err}
	}
	return t, nil
}

// Write stores rows under header at path, creating parent directories.
func Write(path string, header []string, rows []Row) error {
	return writeFile(path, func(w io.Writer) error {
		cw := csv.NewWriter(w)
		if err := cw.Write(header); err != nil {
			return eris.Wrap(err, "table: write header")
		}
		record := make([]string, len(header))
		for _, r := range rows {
			for i, col := range header {
				record[i] = r[col]
			}
			if err := cw.Write(record); err != nil {
				return eris.Wrap(err, "table: write row")
			}
		}
		cw.Flush()
		return eris.Wrap(cw.Error(), "table: flush")
	})
}

// WriteTable stores t at path.
func WriteTable(path string, t *Table) error {
	return Write(path, t.Header, t.Rows)
}

// ReadRecords decodes every row of the CSV at path into T using csv struct tags.
func ReadRecords[T any](path string) ([]T, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &model.DataLoadError{Path: path, Err: err}
	}
	defer f.Close() //nolint:errcheck

	dec, err := csvutil.NewDecoder(NewReader(f))
	if err != nil {
		return nil, &model.DataLoadError{Path: path, Err: eris.Wrap(err, "table: read header")}
	}

	var out []T
	for {
		var rec T
		if err := dec.Decode(&rec); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, &model.DataLoadError{Path: path, Err: eris.Wrap(err, "table: decode row")}
		}
		out = append(out, rec)
	}
	return out, nil
}

// WriteRecords encodes rows to path with a header derived from T's csv tags.
func WriteRecords[T any](path string, rows []T) error {
	return writeFile(path, func(w io.Writer) error {
		cw := csv.NewWriter(w)
		enc := csvutil.NewEncoder(cw)
		var zero T
		if err := enc.EncodeHeader(zero); err != nil {
			return eris.Wrap(err, "table: encode header")
		}
		for _, r := range rows {
			if err := enc.Encode(r); err != nil {
				return eris.Wrap(err, "table: encode row")
			}
		}
		cw.Flush()
		return eris.Wrap(cw.Error(), "table: flush")
	})
}

// FromRecords converts typed rows to a Table through their csv tags.
func FromRecords[T any](rows []T) (*Table, error) {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)
	enc := csvutil.NewEncoder(cw)
	var zero T
	if err := enc.EncodeHeader(zero); err != nil {
		return nil, eris.Wrap(err, "table: encode header")
	}
	for _, r := range rows {
		if err := enc.Encode(r); err != nil {
			return nil, eris.Wrap(err, "table: encode row")
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return nil, eris.Wrap(err, "table: flush")
	}
	return Parse(&buf)
}

func writeFile(path string, fn func(io.Writer) error) error {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return eris.Wrapf(err, "table: create dir %s", dir)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "table: create %s", path)
	}
	if err := fn(f); err != nil {
		_ = f.Close()
		return err
	}
	return eris.Wrapf(f.Close(), "table: close %s", path)
}

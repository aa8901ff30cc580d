package export

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/warn-cli/internal/table"
)

// Sheet is one named table in a workbook.
type Sheet struct {
	Name  string
	Table *table.Table
}

// Workbook writes sheets, in order, to one .xlsx file. Integer-looking cells
// are stored as numbers.
func Workbook(path string, sheets []Sheet) error {
	f := xlsx.NewFile()
	for _, s := range sheets {
		sheet, err := f.AddSheet(s.Name)
		if err != nil {
			return eris.Wrapf(err, "export: add sheet %s", s.Name)
		}
		header := sheet.AddRow()
		for _, col := range s.Table.Header {
			header.AddCell().SetString(col)
		}
		for _, r := range s.Table.Rows {
			row := sheet.AddRow()
			for _, col := range s.Table.Header {
				cell := row.AddCell()
				v := r[col]
				if n, err := strconv.Atoi(v); err == nil {
					cell.SetInt(n)
				} else {
					cell.SetString(v)
				}
			}
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return eris.Wrapf(err, "export: create dir for %s", path)
	}
	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "export: save workbook %s", path)
	}
	return nil
}

// ReadWorkbook loads every sheet of the workbook at path as a table keyed by
// sheet name. The first row of each sheet is its header.
func ReadWorkbook(path string) (map[string]*table.Table, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "export: open workbook %s", path)
	}
	out := make(map[string]*table.Table, len(f.Sheets))
	for _, sheet := range f.Sheets {
		t := &table.Table{}
		for i, row := range sheet.Rows {
			cells := make([]string, len(row.Cells))
			for j, cell := range row.Cells {
				cells[j] = cell.String()
			}
			if i == 0 {
				t.Header = cells
				continue
			}
			r := table.Row{}
			for j, col := range t.Header {
				if j < len(cells) {
					r[col] = cells[j]
				}
			}
			t.Rows = append(t.Rows, r)
		}
		out[sheet.Name] = t
	}
	return out, nil
}

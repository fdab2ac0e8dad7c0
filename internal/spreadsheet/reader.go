package spreadsheet

import (
	"fmt"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"
)

// ReadSheet loads the sheet at zero-based position index of the workbook at
// path. The first row is the header. Rows hold the displayed text of each
// cell and Cells the typed value behind it.
func ReadSheet(path string, index int) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if index < 0 || index >= len(sheets) {
		return nil, fmt.Errorf("%w: index %d (workbook has %d sheets)", ErrSheetNotFound, index, len(sheets))
	}
	name := sheets[index]

	rows, err := f.GetRows(name)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", name, err)
	}
	raw, err := f.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", name, err)
	}

	t := &Table{Sheet: name}
	if len(rows) == 0 {
		return t, nil
	}

	t.Headers = append([]string(nil), rows[0]...)
	width := len(t.Headers)
	for _, r := range rows[1:] {
		if len(r) > width {
			width = len(r)
		}
	}
	for i := len(t.Headers); i < width; i++ {
		t.Headers = append(t.Headers, "")
	}

	t.Rows = make([][]string, 0, len(rows)-1)
	t.Cells = make([][]Cell, 0, len(rows)-1)
	for i, r := range rows[1:] {
		row := make([]string, width)
		copy(row, r)
		t.Rows = append(t.Rows, row)

		var rawRow []string
		if i+1 < len(raw) {
			rawRow = raw[i+1]
		}
		cells := make([]Cell, width)
		for j := range cells {
			if j >= len(rawRow) || rawRow[j] == "" {
				continue
			}
			c, err := readCell(f, name, j+1, i+2, rawRow[j])
			if err != nil {
				return nil, fmt.Errorf("read sheet %q: %w", name, err)
			}
			cells[j] = c
		}
		t.Cells = append(t.Cells, cells)
	}
	return t, nil
}

func readCell(f *excelize.File, sheet string, col, row int, raw string) (Cell, error) {
	ref, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return Cell{}, err
	}
	typ, err := f.GetCellType(sheet, ref)
	if err != nil {
		return Cell{}, err
	}

	switch typ {
	case excelize.CellTypeBool:
		return Cell{Value: raw == "1" || raw == "TRUE" || raw == "true"}, nil
	case excelize.CellTypeDate:
		if ts, err := time.Parse(time.RFC3339, raw); err == nil {
			return Cell{Value: ts}, nil
		}
		return Cell{Value: raw}, nil
	case excelize.CellTypeUnset, excelize.CellTypeNumber:
		n, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return Cell{Value: raw}, nil
		}
		c := Cell{Value: n}
		if id, err := f.GetCellStyle(sheet, ref); err == nil && id != 0 {
			if st, err := f.GetStyle(id); err == nil {
				c.NumFmt = st.NumFmt
				if st.CustomNumFmt != nil {
					c.Format = *st.CustomNumFmt
				}
			}
		}
		return c, nil
	default:
		return Cell{Value: raw}, nil
	}
}

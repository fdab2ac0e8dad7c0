package spreadsheet

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"
)

const (
	outputSheet   = "Sheet1"
	defaultColW   = 18
	maxColW       = 80
	widthSampling = 200
)

// Write saves t as a single-sheet workbook at path: header row first, no index
// column. The file is written to a temp file in the same directory and renamed
// into place so readers never observe a partial workbook.
func Write(path string, t *Table) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sw, err := f.NewStreamWriter(outputSheet)
	if err != nil {
		return fmt.Errorf("xlsx stream writer: %w", err)
	}

	for i, w := range columnWidths(t) {
		if err := sw.SetColWidth(i+1, i+1, w); err != nil {
			return fmt.Errorf("xlsx col width: %w", err)
		}
	}

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("xlsx header style: %w", err)
	}
	header := make([]any, len(t.Headers))
	for i, h := range t.Headers {
		header[i] = excelize.Cell{StyleID: headerStyle, Value: h}
	}
	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("xlsx header: %w", err)
	}

	formats := make(map[Cell]int)
	for i, row := range t.Rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		values := make([]any, len(row))
		for j, v := range row {
			values[j] = v
		}
		if i < len(t.Cells) {
			for j, c := range t.Cells[i] {
				if j >= len(values) {
					break
				}
				tv, err := typedValue(f, formats, c)
				if err != nil {
					return fmt.Errorf("xlsx row %d: %w", i+1, err)
				}
				values[j] = tv
			}
		}
		if err := sw.SetRow(cell, values); err != nil {
			return fmt.Errorf("xlsx row %d: %w", i+1, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return fmt.Errorf("xlsx flush: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("xlsx temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := f.WriteTo(tmp); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("xlsx write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("xlsx close: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("xlsx rename: %w", err)
	}
	return nil
}

// typedValue returns the stream value for an input cell, registering one
// style per distinct number format.
func typedValue(f *excelize.File, formats map[Cell]int, c Cell) (any, error) {
	if c.Value == nil {
		return nil, nil
	}
	if c.NumFmt == 0 && c.Format == "" {
		return c.Value, nil
	}
	key := Cell{NumFmt: c.NumFmt, Format: c.Format}
	id, ok := formats[key]
	if !ok {
		st := &excelize.Style{NumFmt: c.NumFmt}
		if c.Format != "" {
			format := c.Format
			st.CustomNumFmt = &format
		}
		var err error
		if id, err = f.NewStyle(st); err != nil {
			return nil, err
		}
		formats[key] = id
	}
	return excelize.Cell{StyleID: id, Value: c.Value}, nil
}

// columnWidths sizes each column from its header and the first rows.
func columnWidths(t *Table) []float64 {
	widths := make([]float64, len(t.Headers))
	for i, h := range t.Headers {
		widths[i] = max(defaultColW, float64(len([]rune(h)))+2)
	}
	for r, row := range t.Rows {
		if r >= widthSampling {
			break
		}
		for i, v := range row {
			if i < len(widths) {
				widths[i] = max(widths[i], float64(len([]rune(v)))+2)
			}
		}
	}
	for i := range widths {
		widths[i] = min(widths[i], maxColW)
	}
	return widths
}

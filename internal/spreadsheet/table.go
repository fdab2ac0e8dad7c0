// Package spreadsheet reads and writes the complaint workbooks with excelize.
package spreadsheet

import (
	"errors"
	"fmt"
)

var (
	ErrSheetNotFound  = errors.New("sheet not found")
	ErrColumnNotFound = errors.New("column not found")
)

// Table is one worksheet as text: a header row followed by data rows. Every
// row is padded to len(Headers) so cells can be addressed by column index.
//
// Cells, when set, holds the typed values of the columns that were read from
// a workbook, one entry per row. Write prefers them over the text in Rows.
type Table struct {
	Sheet   string
	Headers []string
	Rows    [][]string
	Cells   [][]Cell
}

// Cell is a typed input value with its number format.
type Cell struct {
	Value  any // nil, string, float64, bool or time.Time
	NumFmt int
	Format string // custom number format code
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// ColumnIndex returns the position of the first header equal to name, or -1.
func (t *Table) ColumnIndex(name string) int {
	for i, h := range t.Headers {
		if h == name {
			return i
		}
	}
	return -1
}

// Column returns every data cell of the named column, one entry per row.
// Empty cells come back as "".
func (t *Table) Column(name string) ([]string, error) {
	idx := t.ColumnIndex(name)
	if idx < 0 {
		return nil, fmt.Errorf("%w: %q", ErrColumnNotFound, name)
	}
	out := make([]string, len(t.Rows))
	for i, row := range t.Rows {
		if idx < len(row) {
			out[i] = row[idx]
		}
	}
	return out, nil
}

// AppendColumns returns a new table holding t's columns followed by extra.
// extraRows must have exactly one entry per row of t.
func (t *Table) AppendColumns(headers []string, extraRows [][]string) (*Table, error) {
	if len(extraRows) != len(t.Rows) {
		return nil, fmt.Errorf("append columns: %d result rows for %d input rows", len(extraRows), len(t.Rows))
	}
	width := len(t.Headers) + len(headers)
	out := &Table{
		Sheet:   t.Sheet,
		Headers: make([]string, 0, width),
		Rows:    make([][]string, len(t.Rows)),
		Cells:   t.Cells,
	}
	out.Headers = append(out.Headers, t.Headers...)
	out.Headers = append(out.Headers, headers...)

	for i, row := range t.Rows {
		merged := make([]string, width)
		copy(merged, row)
		copy(merged[len(t.Headers):], extraRows[i])
		out.Rows[i] = merged
	}
	return out, nil
}

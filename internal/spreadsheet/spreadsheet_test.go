package spreadsheet

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// writeFixture builds a workbook with a cover sheet and a data sheet at index 1.
func writeFixture(t *testing.T, rows [][]any) string {
	t.Helper()
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	require.NoError(t, f.SetCellValue("Sheet1", "A1", "capa"))
	_, err := f.NewSheet("Dados")
	require.NoError(t, err)
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, f.SetSheetRow("Dados", cell, &row))
	}

	path := filepath.Join(t.TempDir(), "entrada.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestReadSheet_SecondSheet(t *testing.T) {
	path := writeFixture(t, [][]any{
		{"PROTOCOLO", "DESCRIÇÃO", "UF"},
		{"1", "ORIGEM 11987654321 sem sinal", "SP"},
		{"2", nil, "RJ"},
		{"3", "cliente Maria sem internet"},
	})

	table, err := ReadSheet(path, 1)
	require.NoError(t, err)
	assert.Equal(t, "Dados", table.Sheet)
	assert.Equal(t, []string{"PROTOCOLO", "DESCRIÇÃO", "UF"}, table.Headers)
	require.Equal(t, 3, table.Len())

	desc, err := table.Column("DESCRIÇÃO")
	require.NoError(t, err)
	assert.Equal(t, []string{"ORIGEM 11987654321 sem sinal", "", "cliente Maria sem internet"}, desc)

	uf, err := table.Column("UF")
	require.NoError(t, err)
	assert.Equal(t, []string{"SP", "RJ", ""}, uf)
}

func TestReadSheet_Errors(t *testing.T) {
	path := writeFixture(t, [][]any{{"A"}})

	_, err := ReadSheet(path, 5)
	assert.ErrorIs(t, err, ErrSheetNotFound)

	_, err = ReadSheet(filepath.Join(t.TempDir(), "missing.xlsx"), 1)
	assert.Error(t, err)

	table, err := ReadSheet(path, 1)
	require.NoError(t, err)
	_, err = table.Column("DESCRIÇÃO")
	assert.ErrorIs(t, err, ErrColumnNotFound)
}

func TestMerge_ColumnOrderAndRendering(t *testing.T) {
	table := &Table{
		Sheet:   "Dados",
		Headers: []string{"DESCRIÇÃO"},
		Rows:    [][]string{{"a"}, {"b"}, {"c"}},
	}
	results := []map[string]any{
		{"nome": "Ana", "origem": []any{json.Number("11987654321"), "11911112222"}, "extra": true},
		{"erro": "extraction failed: context deadline exceeded"},
		{"origem": nil, "local": map[string]any{"uf": "SP", "ddd": json.Number("11")}},
	}

	merged, err := Merge(table, results, []string{"origem", "destino", "local", "nome"}, "erro")
	require.NoError(t, err)

	assert.Equal(t, []string{"DESCRIÇÃO", "origem", "local", "nome", "extra", "erro"}, merged.Headers)
	require.Equal(t, 3, merged.Len())
	assert.Equal(t, []string{"a", "11987654321, 11911112222", "", "Ana", "true", ""}, merged.Rows[0])
	assert.Equal(t, []string{"b", "", "", "", "", "extraction failed: context deadline exceeded"}, merged.Rows[1])
	assert.Equal(t, []string{"c", "", `{"ddd":11,"uf":"SP"}`, "", "", ""}, merged.Rows[2])

	// input table untouched
	assert.Equal(t, []string{"DESCRIÇÃO"}, table.Headers)
}

func TestMerge_RowCountMismatch(t *testing.T) {
	table := &Table{Headers: []string{"A"}, Rows: [][]string{{"1"}, {"2"}}}
	_, err := Merge(table, []map[string]any{{"x": "1"}}, nil)
	assert.Error(t, err)
}

func TestWrite_RoundTrip(t *testing.T) {
	table := &Table{
		Headers: []string{"DESCRIÇÃO", "origem", "erro"},
		Rows: [][]string{
			{"texto 1", "11987654321", ""},
			{"texto 2", "", "extraction failed: boom"},
		},
	}
	path := filepath.Join(t.TempDir(), "processado_entrada.xlsx")
	require.NoError(t, Write(path, table))

	got, err := ReadSheet(path, 0)
	require.NoError(t, err)
	assert.Equal(t, table.Headers, got.Headers)
	assert.Equal(t, table.Rows, got.Rows)

	matches, err := filepath.Glob(filepath.Join(filepath.Dir(path), "*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "", FormatValue(nil))
	assert.Equal(t, "x", FormatValue("x"))
	assert.Equal(t, "5511987654321", FormatValue(json.Number("5511987654321")))
	assert.Equal(t, "1.5", FormatValue(1.5))
	assert.Equal(t, "a, , b", FormatValue([]any{"a", nil, "b"}))
	assert.Equal(t, `{"k":[1,2]}`, FormatValue(map[string]any{"k": []any{json.Number("1"), json.Number("2")}}))
}

func TestWrite_KeepsInputCellTypes(t *testing.T) {
	f := excelize.NewFile()
	require.NoError(t, f.SetCellValue("Sheet1", "A1", "capa"))
	_, err := f.NewSheet("Dados")
	require.NoError(t, err)
	require.NoError(t, f.SetSheetRow("Dados", "A1", &[]any{"PROTOCOLO", "ABERTURA", "DESCRIÇÃO"}))
	require.NoError(t, f.SetCellValue("Dados", "A2", 12345))
	require.NoError(t, f.SetCellValue("Dados", "B2", 45292))
	dateStyle, err := f.NewStyle(&excelize.Style{NumFmt: 14})
	require.NoError(t, err)
	require.NoError(t, f.SetCellStyle("Dados", "B2", "B2", dateStyle))
	require.NoError(t, f.SetCellValue("Dados", "C2", "sem sinal"))
	in := filepath.Join(t.TempDir(), "entrada.xlsx")
	require.NoError(t, f.SaveAs(in))
	require.NoError(t, f.Close())

	table, err := ReadSheet(in, 1)
	require.NoError(t, err)
	require.Len(t, table.Cells, 1)
	assert.Equal(t, float64(12345), table.Cells[0][0].Value)
	assert.Equal(t, 14, table.Cells[0][1].NumFmt)

	merged, err := Merge(table, []map[string]any{{"origem": json.Number("11987654321")}}, []string{"origem"})
	require.NoError(t, err)
	out := filepath.Join(t.TempDir(), "saida.xlsx")
	require.NoError(t, Write(out, merged))

	g, err := excelize.OpenFile(out)
	require.NoError(t, err)
	defer func() { _ = g.Close() }()

	typ, err := g.GetCellType(outputSheet, "A2")
	require.NoError(t, err)
	assert.NotEqual(t, excelize.CellTypeInlineString, typ)
	raw, err := g.GetCellValue(outputSheet, "A2", excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	assert.Equal(t, "12345", raw)

	styleID, err := g.GetCellStyle(outputSheet, "B2")
	require.NoError(t, err)
	st, err := g.GetStyle(styleID)
	require.NoError(t, err)
	assert.Equal(t, 14, st.NumFmt)

	typ, err = g.GetCellType(outputSheet, "D2")
	require.NoError(t, err)
	assert.Equal(t, excelize.CellTypeInlineString, typ)
	text, err := g.GetCellValue(outputSheet, "D2")
	require.NoError(t, err)
	assert.Equal(t, "11987654321", text)
}

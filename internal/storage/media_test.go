package storage

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/complaints-extractor/internal/common"
)

func newMedia(t *testing.T) *Media {
	t.Helper()
	m, err := NewMedia(t.TempDir(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return m
}

func xlsxBytes(t *testing.T) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	require.NoError(t, f.SetCellValue("Sheet1", "A1", "DESCRIÇÃO"))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestCleanName(t *testing.T) {
	tests := map[string]string{
		"reclamações agosto.xlsx": "reclamações_agosto.xlsx",
		"../../etc/passwd":        "passwd",
		`C:\Users\ana\base.xlsx`:  "base.xlsx",
		"  .hidden.xlsx ":         "hidden.xlsx",
		"a;b|c.xlsx":              "abc.xlsx",
		"..":                      "",
		"":                        "",
	}
	for in, want := range tests {
		assert.Equal(t, want, CleanName(in), in)
	}
}

func TestSave_CollisionFreeNames(t *testing.T) {
	m := newMedia(t)

	first, err := m.Save("base.xlsx", strings.NewReader("one"))
	require.NoError(t, err)
	assert.Equal(t, "base.xlsx", first)

	second, err := m.Save("base.xlsx", strings.NewReader("two"))
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
	assert.True(t, strings.HasPrefix(second, "base_"))
	assert.Equal(t, ".xlsx", filepath.Ext(second))

	p, err := m.Path(first)
	require.NoError(t, err)
	content, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.Equal(t, "one", string(content))
}

func TestSaveSpreadsheet_SniffsContent(t *testing.T) {
	m := newMedia(t)

	name, err := m.SaveSpreadsheet("ok.xlsx", bytes.NewReader(xlsxBytes(t)))
	require.NoError(t, err)
	assert.True(t, m.Exists(name))

	_, err = m.SaveSpreadsheet("fake.xlsx", strings.NewReader("PROTOCOLO;DESCRIÇÃO\n1;sem sinal\n"))
	assert.ErrorIs(t, err, ErrUnsupportedContent)
	assert.False(t, m.Exists("fake.xlsx"))
}

func TestSaveSpreadsheet_RejectsOutputPrefix(t *testing.T) {
	m := newMedia(t)

	for _, name := range []string{"processado_x.xlsx", "Processado_X.xlsx"} {
		_, err := m.SaveSpreadsheet(name, bytes.NewReader(xlsxBytes(t)))
		assert.ErrorIs(t, err, ErrInvalidName, name)
	}
	entries, err := os.ReadDir(m.Root())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestPathAndOpen(t *testing.T) {
	m := newMedia(t)

	_, err := m.Path("../escape.xlsx")
	assert.ErrorIs(t, err, ErrInvalidName)
	_, err = m.Path("")
	assert.ErrorIs(t, err, ErrInvalidName)

	_, err = m.Open("missing.xlsx")
	assert.ErrorIs(t, err, common.ErrNotFound)
	assert.False(t, m.Exists("missing.xlsx"))

	name, err := m.Save("x.xlsx", strings.NewReader("data"))
	require.NoError(t, err)
	f, err := m.Open(name)
	require.NoError(t, err)
	_ = f.Close()

	require.NoError(t, m.Remove(name))
	require.NoError(t, m.Remove(name))
	assert.False(t, m.Exists(name))
}

package constants

import "strings"

const (
	// InputSheetIndex is the zero-based sheet consumed from uploaded workbooks.
	InputSheetIndex = 1
	// DescriptionColumn holds the free-text complaint in the input sheet.
	DescriptionColumn = "DESCRIÇÃO"
	// OutputPrefix is prepended to the input file name to form the output name.
	OutputPrefix = "processado_"
	// ErrorColumn receives the per-row failure message in the output sheet.
	ErrorColumn = "erro"

	XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// AllowedExtensions holds the spreadsheet extensions accepted for upload.
var AllowedExtensions = map[string]struct{}{
	"xlsx": {},
	"xlsm": {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// AllowedExt checks if a file extension is in the allowed set.
func AllowedExt(ext string) bool {
	_, ok := AllowedExtensions[NormalizeExt(ext)]
	return ok
}

// OutputFileName derives the processed workbook name from the stored input name.
func OutputFileName(inputName string) string {
	return OutputPrefix + inputName
}

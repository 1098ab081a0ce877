package dataprocessing

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	apperrors "holdlens/internal/errors"
)

// Kind is the declared format of a holdings file.
type Kind string

const (
	KindSpreadsheet Kind = "spreadsheet"
	KindDelimited   Kind = "delimited"
)

// KindFromFilename derives the file kind from its extension.
func KindFromFilename(name string) (Kind, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xlsm", ".xls":
		return KindSpreadsheet, nil
	case ".csv":
		return KindDelimited, nil
	default:
		return "", apperrors.NewUnsupportedFormatError(name)
	}
}

// RawTable is one sheet of cells with no header assumed. Rows may be ragged.
type RawTable struct {
	Sheet string
	Rows  [][]string
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// UnzipRatio bounds how far a workbook may expand when decompressed, relative
// to the largest input accepted.
const UnzipRatio = 32

// UnzipLimit returns the decompressed size allowed for inputs of up to
// maxInputBytes. Zero means no limit was configured.
func UnzipLimit(maxInputBytes int64) int64 {
	if maxInputBytes <= 0 {
		return 0
	}
	return maxInputBytes * UnzipRatio
}

// ReadTables parses the whole stream once. Spreadsheets yield one table per
// sheet in workbook order; delimited text yields a single table. A positive
// maxUnzipBytes caps the decompressed size of a workbook.
func ReadTables(r io.Reader, kind Kind, maxUnzipBytes int64) ([]RawTable, error) {
	switch kind {
	case KindSpreadsheet:
		return readWorkbook(r, maxUnzipBytes)
	case KindDelimited:
		t, err := readDelimited(r)
		if err != nil {
			return nil, err
		}
		return []RawTable{t}, nil
	default:
		return nil, apperrors.NewUnsupportedFormatError(string(kind))
	}
}

func readWorkbook(r io.Reader, maxUnzipBytes int64) ([]RawTable, error) {
	var opts excelize.Options
	if maxUnzipBytes > 0 {
		// excelize lowers UnzipXMLSizeLimit to match when it would exceed this.
		opts.UnzipSizeLimit = maxUnzipBytes
	}
	f, err := excelize.OpenReader(r, opts)
	if err != nil {
		return nil, apperrors.NewParseError("failed to open spreadsheet", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	tables := make([]RawTable, 0, len(sheets))
	for _, sheet := range sheets {
		rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, apperrors.NewParseError(fmt.Sprintf("failed to read sheet %q", sheet), err)
		}
		tables = append(tables, RawTable{Sheet: sheet, Rows: rows})
	}

	if !hasAnyCell(tables) {
		return nil, apperrors.NewParseError("spreadsheet contains no cells", nil)
	}
	return tables, nil
}

func readDelimited(r io.Reader) (RawTable, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return RawTable{}, apperrors.NewParseError("failed to read delimited text", err)
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	if len(bytes.TrimSpace(data)) == 0 {
		return RawTable{}, apperrors.NewParseError("delimited text is empty", nil)
	}
	if !utf8.Valid(data) || bytes.IndexByte(data, 0) >= 0 {
		return RawTable{}, apperrors.NewParseError("delimited text is not valid UTF-8", nil)
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return RawTable{}, apperrors.NewParseError("malformed delimited text", err)
	}
	return RawTable{Rows: rows}, nil
}

func hasAnyCell(tables []RawTable) bool {
	for _, t := range tables {
		for _, row := range t.Rows {
			if !isEmptyRow(row) {
				return true
			}
		}
	}
	return false
}

func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// cell returns the trimmed value at idx, or "" for short rows.
func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

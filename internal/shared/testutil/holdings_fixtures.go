package testutil

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"
)

// Sheet is one worksheet of a test workbook. Rows are written from A1 down;
// a nil row leaves a blank line.
type Sheet struct {
	Name string
	Rows [][]any
}

// WorkbookBytes builds an xlsx workbook in memory.
func WorkbookBytes(t *testing.T, sheets ...Sheet) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	for i, s := range sheets {
		name := s.Name
		if name == "" {
			name = fmt.Sprintf("Sheet%d", i+1)
		}
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), name); err != nil {
				t.Fatalf("rename sheet: %v", err)
			}
		} else if _, err := f.NewSheet(name); err != nil {
			t.Fatalf("create sheet: %v", err)
		}

		for r, row := range s.Rows {
			if row == nil {
				continue
			}
			start, err := excelize.CoordinatesToCellName(1, r+1)
			if err != nil {
				t.Fatalf("cell name: %v", err)
			}
			values := row
			if err := f.SetSheetRow(name, start, &values); err != nil {
				t.Fatalf("write row %d: %v", r+1, err)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	return buf.Bytes()
}

// WriteWorkbook saves a workbook into dir and returns its path.
func WriteWorkbook(t *testing.T, dir, name string, sheets ...Sheet) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, WorkbookBytes(t, sheets...), 0o644); err != nil {
		t.Fatalf("save workbook: %v", err)
	}
	return path
}

// CSVBytes encodes records as delimited text.
func CSVBytes(t *testing.T, records [][]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(records); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	return buf.Bytes()
}

// BrokerExportRows mimics a broker statement: three title rows, a blank
// row, the header at index 4, two holdings and a trailing total row.
func BrokerExportRows() [][]any {
	return [][]any{
		{"Holdings Statement"},
		{"Client: DEMO123"},
		{"As on 31-03-2025"},
		nil,
		{"Stock Name", "ISIN", "Quantity", "Average buy price", "Buy value", "Closing price"},
		{"RELIANCE", "INE002A01018", 10, 2400.5, 24005, 2900},
		{"TCS", "INE467B01029", 4, 3500, 14000, 3300},
		{"", "", "", "", 38005, ""},
	}
}

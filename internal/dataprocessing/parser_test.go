package dataprocessing

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "holdlens/internal/errors"
	"holdlens/internal/shared/testutil"
)

func TestKindFromFilename(t *testing.T) {
	tests := []struct {
		name    string
		want    Kind
		wantErr bool
	}{
		{"holdings.xlsx", KindSpreadsheet, false},
		{"HOLDINGS.XLSX", KindSpreadsheet, false},
		{"legacy.xls", KindSpreadsheet, false},
		{"export.csv", KindDelimited, false},
		{"notes.txt", "", true},
		{"noext", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := KindFromFilename(tt.name)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, apperrors.ErrUnsupportedFormat))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParserLocatesHeaderAfterTitleRows(t *testing.T) {
	data := testutil.WorkbookBytes(t, testutil.Sheet{Name: "Holdings", Rows: testutil.BrokerExportRows()})

	table, err := NewParser().Parse(bytes.NewReader(data), KindSpreadsheet)
	require.NoError(t, err)

	assert.Equal(t, "Holdings", table.Sheet)
	assert.Equal(t, 4, table.HeaderRow)
	assert.True(t, table.HeaderDetected)
	assert.Equal(t, "Stock Name", table.Header[0])
	assert.Equal(t, "Average buy price", table.Header[3])
	// The trailing total row is not fully empty and is left for the normalizer.
	require.Len(t, table.Rows, 3)
	assert.Equal(t, "RELIANCE", table.Rows[0][0])
}

func TestParserUsesFirstSheetWithCandidate(t *testing.T) {
	data := testutil.WorkbookBytes(t,
		testutil.Sheet{Name: "Summary", Rows: [][]any{{"Portfolio overview"}, {"Total", 38005}}},
		testutil.Sheet{Name: "Equity", Rows: testutil.BrokerExportRows()},
	)

	table, err := NewParser().Parse(bytes.NewReader(data), KindSpreadsheet)
	require.NoError(t, err)
	assert.Equal(t, "Equity", table.Sheet)
	assert.Equal(t, 4, table.HeaderRow)
}

func TestParserFallsBackToFirstRow(t *testing.T) {
	logger, handler := testutil.NewTestLogger(t)
	data := testutil.WorkbookBytes(t, testutil.Sheet{Rows: [][]any{
		{"ticker", "units", "cost"},
		nil,
		{"AAPL", 10, 150},
	}})

	table, err := NewParser(WithParserLogger(logger)).Parse(bytes.NewReader(data), KindSpreadsheet)
	require.NoError(t, err)

	assert.False(t, table.HeaderDetected)
	assert.Equal(t, 0, table.HeaderRow)
	assert.Equal(t, []string{"ticker", "units", "cost"}, table.Header)
	assert.Len(t, table.Rows, 1)
	testutil.AssertLogContains(t, handler, slog.LevelWarn, "no header candidate")
}

func TestParserDelimitedUsesFirstRow(t *testing.T) {
	data := append([]byte{0xEF, 0xBB, 0xBF}, testutil.CSVBytes(t, [][]string{
		{"symbol", "quantity", "purchase_price"},
		{"AAPL", "10", "150"},
		{"", "", ""},
		{"GOOGL", "5", "2800"},
	})...)

	table, err := NewParser().Parse(bytes.NewReader(data), KindDelimited)
	require.NoError(t, err)

	assert.Equal(t, 0, table.HeaderRow)
	assert.Equal(t, "symbol", table.Header[0])
	assert.Len(t, table.Rows, 2)
}

func TestParserRejectsUnreadableInput(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		kind Kind
	}{
		{"garbage spreadsheet", []byte("definitely not a zip archive"), KindSpreadsheet},
		{"empty spreadsheet", testutil.WorkbookBytes(t, testutil.Sheet{}), KindSpreadsheet},
		{"empty csv", nil, KindDelimited},
		{"whitespace csv", []byte(" \n\n "), KindDelimited},
		{"binary csv", []byte{0xff, 0xfe, 0x00, 0x01}, KindDelimited},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewParser().Parse(bytes.NewReader(tt.data), tt.kind)
			require.Error(t, err)
			assert.True(t, errors.Is(err, apperrors.ErrParse), "got %v", err)
			assert.Equal(t, apperrors.ErrTypeFormat, apperrors.TypeOf(err))
		})
	}
}

func TestParserUnzipLimit(t *testing.T) {
	data := testutil.WorkbookBytes(t, testutil.Sheet{Name: "Holdings", Rows: testutil.BrokerExportRows()})

	_, err := NewParser(WithUnzipLimit(1024)).Parse(bytes.NewReader(data), KindSpreadsheet)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrParse), "got %v", err)

	table, err := NewParser(WithUnzipLimit(UnzipLimit(int64(len(data))))).Parse(bytes.NewReader(data), KindSpreadsheet)
	require.NoError(t, err)
	assert.True(t, table.HeaderDetected)
}

func TestUnzipLimit(t *testing.T) {
	assert.Equal(t, int64(0), UnzipLimit(0))
	assert.Equal(t, int64(0), UnzipLimit(-1))
	assert.Equal(t, int64(10<<20)*UnzipRatio, UnzipLimit(10<<20))
}

func TestHeaderStrategies(t *testing.T) {
	rows := [][]string{
		{"Stock quantity and price report"},
		{"Stock Name", "Quantity", "Average price"},
		{"INFY", "12", "1,450.25"},
	}

	idx, ok := NewFirstMatchStrategy().Locate(rows)
	require.True(t, ok)
	assert.Equal(t, 0, idx)

	idx, ok = NewStrictStrategy().Locate(rows)
	require.True(t, ok)
	assert.Equal(t, 1, idx)
}

func TestStrictStrategyRequiresNumericRow(t *testing.T) {
	rows := [][]string{
		{"Symbol", "Quantity", "Price"},
		{"AAPL", "ten", "150"},
	}

	_, ok := NewStrictStrategy().Locate(rows)
	assert.False(t, ok)

	_, ok = NewFirstMatchStrategy().Locate(rows)
	assert.True(t, ok)
}

func TestCustomHeaderTokens(t *testing.T) {
	strategy := &FirstMatchStrategy{Tokens: HeaderTokens{
		Identity: []string{"ticker"},
		Quantity: []string{"units"},
		Price:    []string{"cost"},
	}}
	rows := [][]string{{"report"}, {"Ticker", "Units", "Cost"}}

	idx, ok := strategy.Locate(rows)
	require.True(t, ok)
	assert.Equal(t, 1, idx)
}

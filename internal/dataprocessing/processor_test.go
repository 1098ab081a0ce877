package dataprocessing

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "holdlens/internal/errors"
	"holdlens/internal/shared/testutil"
)

func TestHoldingsProcessorBrokerWorkbook(t *testing.T) {
	logger, handler := testutil.NewTestLogger(t)
	data := testutil.WorkbookBytes(t, testutil.Sheet{Name: "Holdings", Rows: testutil.BrokerExportRows()})

	res, err := NewHoldingsProcessor(DefaultOptions(), logger).Process(bytes.NewReader(data), KindSpreadsheet)
	require.NoError(t, err)

	a := res.Analysis
	assert.Equal(t, "Holdings", res.Sheet)
	assert.True(t, res.HeaderDetected)
	assert.Equal(t, 4, a.HeaderRow)
	assert.Equal(t, 1, a.Dropped.EmptySymbol)
	assert.Equal(t, 1, a.Dropped.Total())
	require.Len(t, res.Defects, 1)

	require.Len(t, a.Holdings, 2)
	assert.True(t, a.Summary.TotalInvested.Equal(dec("38005")))
	require.True(t, a.HasValuation())
	assert.True(t, a.Summary.Performance.TotalCurrentValue.Equal(dec("42200")))
	assert.True(t, a.Summary.Performance.TotalProfitLoss.Equal(dec("4195")))
	assert.Equal(t, 1, a.Summary.Performance.Winners)
	assert.Equal(t, 1, a.Summary.Performance.Losers)

	testutil.AssertLogContains(t, handler, slog.LevelInfo, "holdings analyzed")
	testutil.AssertLogAttr(t, handler, "dropped_rows", int64(1))
	testutil.AssertNoErrors(t, handler)
}

func TestHoldingsProcessorCSVJSONShape(t *testing.T) {
	data := testutil.CSVBytes(t, [][]string{
		{"symbol", "quantity", "purchase_price", "current_price"},
		{"AAPL", "10", "150", "175"},
		{"GOOGL", "5", "2800", "2950"},
	})

	res, err := NewHoldingsProcessor(DefaultOptions(), nil).Process(bytes.NewReader(data), KindDelimited)
	require.NoError(t, err)

	raw, err := json.Marshal(res.Analysis)
	require.NoError(t, err)

	var body map[string]any
	require.NoError(t, json.Unmarshal(raw, &body))

	assert.Equal(t, float64(0), body["dropped_rows"])
	assert.Equal(t, map[string]any{"empty_symbol": float64(0), "invalid_number": float64(0)}, body["dropped"])

	summary := body["summary"].(map[string]any)
	assert.Equal(t, float64(15500), summary["total_invested"])
	assert.Equal(t, float64(2), summary["total_stocks"])
	assert.Equal(t, float64(1000), summary["total_profit_loss"])
	assert.InDelta(t, 6.4516, summary["total_return_pct"].(float64), 1e-4)
	assert.Len(t, summary["pie_chart_data"], 2)

	holdings := body["holdings"].([]any)
	aapl := holdings[0].(map[string]any)
	assert.Equal(t, "AAPL", aapl["symbol"])
	assert.Equal(t, float64(1500), aapl["invested_value"])
	assert.Equal(t, float64(250), aapl["profit_loss"])
}

func TestHoldingsProcessorOmitsValuationWithoutCurrentPrice(t *testing.T) {
	data := testutil.CSVBytes(t, [][]string{
		{"Symbol", "Qty", "Avg. price"},
		{"AAPL", "10", "150"},
	})

	res, err := NewHoldingsProcessor(DefaultOptions(), nil).Process(bytes.NewReader(data), KindDelimited)
	require.NoError(t, err)

	raw, err := json.Marshal(res.Analysis)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "total_current_value")
	assert.NotContains(t, string(raw), "profit_loss")
	assert.NotContains(t, string(raw), "winners")
}

func TestHoldingsProcessorErrors(t *testing.T) {
	tests := []struct {
		name   string
		data   []byte
		kind   Kind
		target error
	}{
		{
			name:   "missing quantity column",
			data:   testutil.CSVBytes(t, [][]string{{"symbol", "purchase_price"}, {"AAPL", "150"}}),
			kind:   KindDelimited,
			target: apperrors.ErrMissingRequiredColumns,
		},
		{
			name:   "zero invested",
			data:   testutil.CSVBytes(t, [][]string{{"symbol", "quantity", "purchase_price"}, {"AAPL", "10", "0"}}),
			kind:   KindDelimited,
			target: apperrors.ErrEmptyOrZeroInvested,
		},
		{
			name:   "every row dropped",
			data:   testutil.CSVBytes(t, [][]string{{"symbol", "quantity", "purchase_price"}, {"AAPL", "n/a", "150"}}),
			kind:   KindDelimited,
			target: apperrors.ErrEmptyOrZeroInvested,
		},
		{
			name:   "corrupt workbook",
			data:   []byte("PK\x03\x04 truncated"),
			kind:   KindSpreadsheet,
			target: apperrors.ErrParse,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewHoldingsProcessor(DefaultOptions(), nil).Process(bytes.NewReader(tt.data), tt.kind)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.target), "got %v", err)
		})
	}
}

func TestHoldingsProcessorStrictHeader(t *testing.T) {
	data := testutil.WorkbookBytes(t, testutil.Sheet{Rows: [][]any{
		{"Stock quantity and average price statement"},
		{"Stock Name", "Quantity", "Average buy price"},
		{"INFY", 12, 1450.25},
	}})

	_, err := NewHoldingsProcessor(DefaultOptions(), nil).Process(bytes.NewReader(data), KindSpreadsheet)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrMissingRequiredColumns))

	res, err := NewHoldingsProcessor(ProcessingOptions{StrictHeader: true}, nil).Process(bytes.NewReader(data), KindSpreadsheet)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Analysis.HeaderRow)
	assert.Len(t, res.Analysis.Holdings, 1)
}

func TestHoldingsProcessorConcurrentUse(t *testing.T) {
	p := NewHoldingsProcessor(DefaultOptions(), nil)
	data := testutil.WorkbookBytes(t, testutil.Sheet{Rows: testutil.BrokerExportRows()})

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := p.Process(bytes.NewReader(data), KindSpreadsheet)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
}

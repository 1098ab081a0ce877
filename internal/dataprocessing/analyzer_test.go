package dataprocessing

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "holdlens/internal/errors"
	"holdlens/pkg/contracts/domain"
)

func row(symbol, qty, price string, current ...string) domain.HoldingRow {
	r := domain.HoldingRow{Symbol: symbol, Quantity: dec(qty), PurchasePrice: dec(price)}
	if len(current) > 0 {
		c := dec(current[0])
		r.CurrentPrice = &c
	}
	return r
}

func TestAnalyzeEndToEnd(t *testing.T) {
	analysis, err := Analyze([]domain.HoldingRow{
		row("AAPL", "10", "150", "175"),
		row("GOOGL", "5", "2800", "2950"),
	}, true)
	require.NoError(t, err)

	s := analysis.Summary
	assert.True(t, s.TotalInvested.Equal(dec("15500")))
	assert.Equal(t, 2, s.TotalStocks)

	aapl, googl := analysis.Holdings[0], analysis.Holdings[1]
	assert.True(t, aapl.InvestedValue.Equal(dec("1500")))
	assert.True(t, googl.InvestedValue.Equal(dec("14000")))
	assert.InDelta(t, 9.68, aapl.AllocationPct.InexactFloat64(), 0.005)
	assert.InDelta(t, 90.32, googl.AllocationPct.InexactFloat64(), 0.005)

	require.NotNil(t, aapl.Valuation)
	assert.True(t, aapl.Valuation.CurrentValue.Equal(dec("1750")))
	assert.True(t, aapl.Valuation.ProfitLoss.Equal(dec("250")))
	assert.True(t, googl.Valuation.ProfitLoss.Equal(dec("750")))
	assert.InDelta(t, 16.6667, aapl.Valuation.ProfitLossPct.InexactFloat64(), 1e-4)

	require.True(t, analysis.HasValuation())
	perf := s.Performance
	assert.True(t, perf.TotalCurrentValue.Equal(dec("16500")))
	assert.True(t, perf.TotalProfitLoss.Equal(dec("1000")))
	assert.InDelta(t, 6.45, perf.TotalReturnPct.InexactFloat64(), 0.005)
	assert.Equal(t, 2, perf.Winners)
	assert.Equal(t, 0, perf.Losers)
}

func TestAnalyzeAllocationSumsToHundred(t *testing.T) {
	rows := []domain.HoldingRow{
		row("A", "3", "33.33"),
		row("B", "7", "12.5"),
		row("C", "1", "999.99"),
		row("D", "13", "0.07"),
		row("E", "2", "1"),
		row("F", "11", "3.14159"),
	}

	analysis, err := Analyze(rows, false)
	require.NoError(t, err)

	sum := decimal.Zero
	for i, h := range analysis.Holdings {
		assert.True(t, h.InvestedValue.Equal(rows[i].Quantity.Mul(rows[i].PurchasePrice)))
		sum = sum.Add(h.AllocationPct)
	}
	assert.InDelta(t, 100, sum.InexactFloat64(), 1e-6)
}

func TestAnalyzeWithoutCurrentPrice(t *testing.T) {
	analysis, err := Analyze([]domain.HoldingRow{row("AAPL", "10", "150")}, false)
	require.NoError(t, err)

	assert.False(t, analysis.HasValuation())
	assert.Nil(t, analysis.Holdings[0].Valuation)
	assert.True(t, analysis.Holdings[0].AllocationPct.Equal(dec("100")))
}

func TestAnalyzeRejectsEmptyOrZeroPortfolio(t *testing.T) {
	tests := []struct {
		name string
		rows []domain.HoldingRow
	}{
		{"no rows", nil},
		{"all zero prices", []domain.HoldingRow{row("A", "10", "0"), row("B", "3", "0")}},
		{"negative total", []domain.HoldingRow{row("A", "-10", "5")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			analysis, err := Analyze(tt.rows, false)
			require.Error(t, err)
			assert.Nil(t, analysis)
			assert.True(t, errors.Is(err, apperrors.ErrEmptyOrZeroInvested))
			assert.Equal(t, apperrors.ErrTypeData, apperrors.TypeOf(err))
		})
	}
}

func TestAnalyzeWinnersLosersAndZeroInvestedRow(t *testing.T) {
	analysis, err := Analyze([]domain.HoldingRow{
		row("UP", "10", "100", "120"),
		row("DOWN", "10", "100", "80"),
		row("FLAT", "10", "100", "100"),
		row("GIFT", "5", "0", "40"),
	}, true)
	require.NoError(t, err)

	perf := analysis.Summary.Performance
	assert.Equal(t, 2, perf.Winners)
	assert.Equal(t, 1, perf.Losers)

	gift := analysis.Holdings[3]
	assert.True(t, gift.AllocationPct.IsZero())
	assert.True(t, gift.Valuation.ProfitLoss.Equal(dec("200")))
	assert.True(t, gift.Valuation.ProfitLossPct.IsZero())
}

func TestAnalyzePieChartKeepsInputOrder(t *testing.T) {
	analysis, err := Analyze([]domain.HoldingRow{
		row("SMALL", "1", "10"),
		row("BIG", "100", "10"),
		row("MID", "10", "10"),
	}, false)
	require.NoError(t, err)

	pie := analysis.Summary.PieChartData
	require.Len(t, pie, 3)
	assert.Equal(t, []string{"SMALL", "BIG", "MID"}, []string{pie[0].Symbol, pie[1].Symbol, pie[2].Symbol})
	assert.True(t, pie[1].Value.Equal(dec("1000")))
	assert.True(t, pie[1].Quantity.Equal(dec("100")))
	assert.True(t, pie[1].Percentage.Equal(analysis.Holdings[1].AllocationPct))
}

func TestAnalyzeRequiresCurrentPriceOnEveryRow(t *testing.T) {
	_, err := Analyze([]domain.HoldingRow{row("A", "1", "1", "2"), row("B", "1", "1")}, true)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrTypeData, apperrors.TypeOf(err))
}

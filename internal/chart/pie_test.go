package chart

import (
	"bytes"
	"fmt"
	"image/png"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"holdlens/pkg/contracts/domain"
)

func slice(symbol string, value, pct int64) domain.PieSlice {
	return domain.PieSlice{
		Symbol:     symbol,
		Value:      decimal.NewFromInt(value),
		Percentage: decimal.NewFromInt(pct),
		Quantity:   decimal.NewFromInt(1),
	}
}

func TestRenderAllocationPie(t *testing.T) {
	data, err := RenderAllocationPie([]domain.PieSlice{
		slice("AAPL", 1500, 10),
		slice("GOOGL", 14000, 90),
	}, 640, 480)
	require.NoError(t, err)

	cfg, err := png.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 640, cfg.Width)
	assert.Equal(t, 480, cfg.Height)
}

func TestRenderAllocationPieNoSlices(t *testing.T) {
	_, err := RenderAllocationPie(nil, 400, 400)
	assert.ErrorIs(t, err, ErrNoSlices)

	_, err = RenderAllocationPie([]domain.PieSlice{slice("ZERO", 0, 0)}, 400, 400)
	assert.ErrorIs(t, err, ErrNoSlices)
}

func TestPieValuesMergesTail(t *testing.T) {
	var slices []domain.PieSlice
	for i := 0; i < 15; i++ {
		slices = append(slices, slice(fmt.Sprintf("S%02d", i), 100, 5))
	}
	slices = append(slices, slice("NIL", 0, 0))

	values := pieValues(slices)
	require.Len(t, values, MaxSlices)
	assert.Equal(t, "S00 5.0%", values[0].Label)
	assert.Equal(t, "Other 20.0%", values[MaxSlices-1].Label)
	assert.InDelta(t, 400, values[MaxSlices-1].Value, 1e-9)
}

func TestPieValuesKeepsOrder(t *testing.T) {
	values := pieValues([]domain.PieSlice{slice("B", 10, 50), slice("A", 10, 50)})
	require.Len(t, values, 2)
	assert.Equal(t, "B 50.0%", values[0].Label)
	assert.Equal(t, "A 50.0%", values[1].Label)
}

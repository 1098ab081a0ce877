// Package chart renders portfolio allocation charts.
package chart

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"holdlens/pkg/contracts/domain"
)

// MaxSlices is the number of slices drawn before the remainder is merged
// into a single "Other" slice.
const MaxSlices = 12

// ErrNoSlices is returned when there is nothing with a positive value to draw.
var ErrNoSlices = errors.New("no allocation slices to render")

var palette = []string{
	"2563eb", "16a34a", "f59e0b", "dc2626", "7c3aed", "0891b2",
	"db2777", "65a30d", "ea580c", "4f46e5", "0d9488", "9333ea",
}

// RenderAllocationPie renders pie_chart_data as a PNG. Slices are drawn in
// input order; slices with a zero value are skipped.
func RenderAllocationPie(slices []domain.PieSlice, width, height int) ([]byte, error) {
	values := pieValues(slices)
	if len(values) == 0 {
		return nil, ErrNoSlices
	}

	pie := chart.PieChart{
		Title:  "Allocation by Invested Value",
		Width:  width,
		Height: height,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 10, Right: 10, Bottom: 10},
		},
		Values: values,
	}

	var buf bytes.Buffer
	if err := pie.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("chart render failed: %w", err)
	}
	return buf.Bytes(), nil
}

func pieValues(slices []domain.PieSlice) []chart.Value {
	var values []chart.Value
	other := decimal.Zero
	otherPct := decimal.Zero

	for _, s := range slices {
		if !s.Value.IsPositive() {
			continue
		}
		if len(values) == MaxSlices-1 && len(slices) > MaxSlices {
			other = other.Add(s.Value)
			otherPct = otherPct.Add(s.Percentage)
			continue
		}
		values = append(values, chart.Value{
			Label: fmt.Sprintf("%s %s%%", s.Symbol, s.Percentage.StringFixed(1)),
			Value: s.Value.InexactFloat64(),
			Style: sliceStyle(len(values)),
		})
	}

	if other.IsPositive() {
		values = append(values, chart.Value{
			Label: fmt.Sprintf("Other %s%%", otherPct.StringFixed(1)),
			Value: other.InexactFloat64(),
			Style: sliceStyle(len(values)),
		})
	}
	return values
}

func sliceStyle(i int) chart.Style {
	return chart.Style{
		FillColor:   drawing.ColorFromHex(palette[i%len(palette)]),
		StrokeColor: drawing.ColorWhite,
		StrokeWidth: 1,
	}
}

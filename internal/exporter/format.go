package exporter

import (
	"strconv"

	"github.com/shopspring/decimal"
)

// formatDecimal renders d with exactly places decimals.
func formatDecimal(d decimal.Decimal, places int32) string {
	return d.StringFixed(places)
}

// formatFloat renders sample prices without a trailing ".00" for whole numbers.
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

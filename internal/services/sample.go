package services

import (
	"holdlens/internal/dataprocessing"
	"holdlens/pkg/contracts/domain"
)

// SampleFormat describes the holdings layout the analyzer accepts.
func SampleFormat() domain.SampleFormat {
	return domain.SampleFormat{
		Description:     "Sample portfolio file structure",
		Format:          "Excel (.xlsx) or CSV (.csv)",
		RequiredColumns: []string{"symbol", "quantity", "purchase_price"},
		OptionalColumns: []string{"current_price"},
		ColumnAliases:   copyAliases(dataprocessing.DefaultColumnAliases),
		Example: []domain.SampleHolding{
			{Symbol: "AAPL", Quantity: 10, PurchasePrice: 150, CurrentPrice: 175},
			{Symbol: "GOOGL", Quantity: 5, PurchasePrice: 2800, CurrentPrice: 2950},
		},
	}
}

// SamplePortfolio returns a ten-stock portfolio for demo files.
func SamplePortfolio() []domain.SampleHolding {
	return []domain.SampleHolding{
		{Symbol: "AAPL", Quantity: 10, PurchasePrice: 150, CurrentPrice: 175.50},
		{Symbol: "GOOGL", Quantity: 5, PurchasePrice: 2800, CurrentPrice: 2950},
		{Symbol: "MSFT", Quantity: 15, PurchasePrice: 300, CurrentPrice: 380},
		{Symbol: "AMZN", Quantity: 8, PurchasePrice: 3200, CurrentPrice: 3350},
		{Symbol: "TSLA", Quantity: 12, PurchasePrice: 700, CurrentPrice: 850},
		{Symbol: "NVDA", Quantity: 20, PurchasePrice: 450, CurrentPrice: 485},
		{Symbol: "META", Quantity: 7, PurchasePrice: 320, CurrentPrice: 340},
		{Symbol: "JPM", Quantity: 25, PurchasePrice: 140, CurrentPrice: 150},
		{Symbol: "V", Quantity: 18, PurchasePrice: 220, CurrentPrice: 240},
		{Symbol: "WMT", Quantity: 30, PurchasePrice: 145, CurrentPrice: 152},
	}
}

func copyAliases(src map[string][]string) map[string][]string {
	out := make(map[string][]string, len(src))
	for k, v := range src {
		out[k] = append([]string(nil), v...)
	}
	return out
}

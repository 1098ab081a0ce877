package domain

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Canonical column names that every broker layout is mapped into.
const (
	ColumnSymbol        = "symbol"
	ColumnQuantity      = "quantity"
	ColumnPurchasePrice = "purchase_price"
	ColumnCurrentPrice  = "current_price"
)

// RequiredColumns lists the canonical columns a holdings table must provide.
var RequiredColumns = []string{ColumnSymbol, ColumnQuantity, ColumnPurchasePrice}

// OptionalColumns lists the canonical columns that enable valuation metrics.
var OptionalColumns = []string{ColumnCurrentPrice}

// HoldingRow is one normalized line of a holdings table.
// CurrentPrice is nil when the table has no current price column; presence is
// uniform across all rows of a table.
type HoldingRow struct {
	Symbol        string
	Quantity      decimal.Decimal
	PurchasePrice decimal.Decimal
	CurrentPrice  *decimal.Decimal
}

// Holding is the per-row analysis detail.
type Holding struct {
	Symbol        string
	Quantity      decimal.Decimal
	PurchasePrice decimal.Decimal
	InvestedValue decimal.Decimal
	AllocationPct decimal.Decimal

	// Valuation is set only when current prices were available.
	Valuation *Valuation
}

// Valuation holds the market-value metrics of a single holding.
type Valuation struct {
	CurrentPrice  decimal.Decimal
	CurrentValue  decimal.Decimal
	ProfitLoss    decimal.Decimal
	ProfitLossPct decimal.Decimal
}

// PieSlice is one chart-ready allocation entry.
type PieSlice struct {
	Symbol     string
	Value      decimal.Decimal
	Percentage decimal.Decimal
	Quantity   decimal.Decimal
}

// PortfolioSummary aggregates a holdings table.
type PortfolioSummary struct {
	TotalInvested decimal.Decimal
	TotalStocks   int
	PieChartData  []PieSlice

	// Performance is set only when current prices were available.
	Performance *Performance
}

// Performance holds the aggregate market-value metrics of a portfolio.
type Performance struct {
	TotalCurrentValue decimal.Decimal
	TotalProfitLoss   decimal.Decimal
	TotalReturnPct    decimal.Decimal
	Winners           int
	Losers            int
}

// DroppedRows counts input rows excluded from an analysis, by reason.
type DroppedRows struct {
	EmptySymbol   int `json:"empty_symbol"`
	InvalidNumber int `json:"invalid_number"`
}

// Total returns the number of dropped rows.
func (d DroppedRows) Total() int {
	return d.EmptySymbol + d.InvalidNumber
}

// Analysis is the complete result of analyzing one holdings file.
type Analysis struct {
	Summary  PortfolioSummary
	Holdings []Holding
	Dropped  DroppedRows

	// HeaderRow is the zero-based index of the row used as header in the source table.
	HeaderRow int
}

// HasValuation reports whether current prices were available.
func (a *Analysis) HasValuation() bool {
	return a.Summary.Performance != nil
}

// StoredPortfolio describes a holdings file held in the blob store.
type StoredPortfolio struct {
	Filename     string    `json:"filename"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"last_modified"`
	Key          string    `json:"key"`
}

// SampleFormat documents the accepted holdings file layout.
type SampleFormat struct {
	Description     string              `json:"description"`
	Format          string              `json:"format"`
	RequiredColumns []string            `json:"required_columns"`
	OptionalColumns []string            `json:"optional_columns"`
	ColumnAliases   map[string][]string `json:"column_aliases,omitempty"`
	Example         []SampleHolding     `json:"example"`
}

// SampleHolding is one example row of a holdings file.
type SampleHolding struct {
	Symbol        string  `json:"symbol"`
	Quantity      int     `json:"quantity"`
	PurchasePrice float64 `json:"purchase_price"`
	CurrentPrice  float64 `json:"current_price"`
}

// num renders a decimal as an exact JSON number.
func num(d decimal.Decimal) json.Number {
	return json.Number(d.String())
}

func optNum(d *decimal.Decimal) *json.Number {
	if d == nil {
		return nil
	}
	n := num(*d)
	return &n
}

type holdingJSON struct {
	Symbol        string       `json:"symbol"`
	Quantity      json.Number  `json:"quantity"`
	PurchasePrice json.Number  `json:"purchase_price"`
	InvestedValue json.Number  `json:"invested_value"`
	AllocationPct json.Number  `json:"allocation_pct"`
	CurrentPrice  *json.Number `json:"current_price,omitempty"`
	CurrentValue  *json.Number `json:"current_value,omitempty"`
	ProfitLoss    *json.Number `json:"profit_loss,omitempty"`
	ProfitLossPct *json.Number `json:"profit_loss_pct,omitempty"`
}

// MarshalJSON flattens the optional valuation into the holding object.
func (h Holding) MarshalJSON() ([]byte, error) {
	out := holdingJSON{
		Symbol:        h.Symbol,
		Quantity:      num(h.Quantity),
		PurchasePrice: num(h.PurchasePrice),
		InvestedValue: num(h.InvestedValue),
		AllocationPct: num(h.AllocationPct),
	}
	if v := h.Valuation; v != nil {
		out.CurrentPrice = optNum(&v.CurrentPrice)
		out.CurrentValue = optNum(&v.CurrentValue)
		out.ProfitLoss = optNum(&v.ProfitLoss)
		out.ProfitLossPct = optNum(&v.ProfitLossPct)
	}
	return json.Marshal(out)
}

type pieSliceJSON struct {
	Symbol     string      `json:"symbol"`
	Value      json.Number `json:"value"`
	Percentage json.Number `json:"percentage"`
	Quantity   json.Number `json:"quantity"`
}

// MarshalJSON writes the slice with exact numbers.
func (p PieSlice) MarshalJSON() ([]byte, error) {
	return json.Marshal(pieSliceJSON{
		Symbol:     p.Symbol,
		Value:      num(p.Value),
		Percentage: num(p.Percentage),
		Quantity:   num(p.Quantity),
	})
}

type summaryJSON struct {
	TotalInvested     json.Number  `json:"total_invested"`
	TotalStocks       int          `json:"total_stocks"`
	PieChartData      []PieSlice   `json:"pie_chart_data"`
	TotalCurrentValue *json.Number `json:"total_current_value,omitempty"`
	TotalProfitLoss   *json.Number `json:"total_profit_loss,omitempty"`
	TotalReturnPct    *json.Number `json:"total_return_pct,omitempty"`
	Winners           *int         `json:"winners,omitempty"`
	Losers            *int         `json:"losers,omitempty"`
}

// MarshalJSON flattens the optional performance block into the summary object.
func (s PortfolioSummary) MarshalJSON() ([]byte, error) {
	out := summaryJSON{
		TotalInvested: num(s.TotalInvested),
		TotalStocks:   s.TotalStocks,
		PieChartData:  s.PieChartData,
	}
	if out.PieChartData == nil {
		out.PieChartData = []PieSlice{}
	}
	if p := s.Performance; p != nil {
		out.TotalCurrentValue = optNum(&p.TotalCurrentValue)
		out.TotalProfitLoss = optNum(&p.TotalProfitLoss)
		out.TotalReturnPct = optNum(&p.TotalReturnPct)
		winners, losers := p.Winners, p.Losers
		out.Winners = &winners
		out.Losers = &losers
	}
	return json.Marshal(out)
}

type analysisJSON struct {
	Summary     PortfolioSummary `json:"summary"`
	Holdings    []Holding        `json:"holdings"`
	DroppedRows int              `json:"dropped_rows"`
	Dropped     DroppedRows      `json:"dropped"`
	HeaderRow   int              `json:"header_row"`
}

// MarshalJSON writes the analysis in its wire shape.
func (a Analysis) MarshalJSON() ([]byte, error) {
	holdings := a.Holdings
	if holdings == nil {
		holdings = []Holding{}
	}
	return json.Marshal(analysisJSON{
		Summary:     a.Summary,
		Holdings:    holdings,
		DroppedRows: a.Dropped.Total(),
		Dropped:     a.Dropped,
		HeaderRow:   a.HeaderRow,
	})
}

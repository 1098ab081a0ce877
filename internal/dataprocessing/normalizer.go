package dataprocessing

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	apperrors "holdlens/internal/errors"
	"holdlens/pkg/contracts/domain"
)

// DefaultColumnAliases maps broker column titles to canonical names.
// Canonical names map to themselves so already-normalized tables pass through.
var DefaultColumnAliases = map[string][]string{
	domain.ColumnSymbol: {
		"symbol", "Symbol", "Stock Name", "Stock", "Tradingsymbol", "Trading Symbol",
		"Instrument", "Scrip", "Ticker",
	},
	domain.ColumnQuantity: {
		"quantity", "Quantity", "Qty", "Qty.", "Shares", "Units",
	},
	domain.ColumnPurchasePrice: {
		"purchase_price", "Average buy price", "Average price", "Avg. price", "Avg. cost",
		"Average Cost", "Buy Price", "Purchase Price",
	},
	domain.ColumnCurrentPrice: {
		"current_price", "Closing price", "LTP", "Current Price", "Last Price", "Market Price",
	},
}

// Row drop reasons reported in RowDefect.
const (
	ReasonEmptySymbol   = "empty_symbol"
	ReasonInvalidNumber = "invalid_number"
)

// RowDefect describes an input row excluded from the normalized output.
type RowDefect struct {
	// Row is the zero-based index of the row in the source sheet.
	Row    int
	Reason string
	Column string
	Value  string
}

// NormalizedTable is the canonical form of a holdings table.
type NormalizedTable struct {
	Rows            []domain.HoldingRow
	HasCurrentPrice bool
	Dropped         domain.DroppedRows
	Defects         []RowDefect
}

// Normalizer maps broker columns to the canonical schema and coerces values.
type Normalizer struct {
	exact  map[string]string
	folded map[string]string
}

// NewNormalizer builds a normalizer from an alias table. A nil table uses
// DefaultColumnAliases.
func NewNormalizer(aliases map[string][]string) *Normalizer {
	if aliases == nil {
		aliases = DefaultColumnAliases
	}
	n := &Normalizer{
		exact:  make(map[string]string),
		folded: make(map[string]string),
	}
	for canonical, names := range aliases {
		n.exact[canonical] = canonical
		n.folded[canonical] = canonical
		for _, name := range names {
			n.exact[name] = canonical
			n.folded[foldColumn(name)] = canonical
		}
	}
	return n
}

// Canonical returns the canonical name for a column title, trying an exact
// match before a case-insensitive one.
func (n *Normalizer) Canonical(title string) (string, bool) {
	if c, ok := n.exact[title]; ok {
		return c, true
	}
	c, ok := n.folded[foldColumn(title)]
	return c, ok
}

// MapColumns resolves the canonical columns of a header to their indexes.
// When two columns map to the same canonical name the leftmost wins.
func (n *Normalizer) MapColumns(header []string) (map[string]int, error) {
	columns := make(map[string]int)
	for i, title := range header {
		title = strings.TrimSpace(title)
		if title == "" {
			continue
		}
		canonical, ok := n.Canonical(title)
		if !ok {
			continue
		}
		if _, seen := columns[canonical]; !seen {
			columns[canonical] = i
		}
	}

	var missing []string
	for _, req := range domain.RequiredColumns {
		if _, ok := columns[req]; !ok {
			missing = append(missing, req)
		}
	}
	if len(missing) > 0 {
		available := make([]string, 0, len(header))
		for _, h := range header {
			if h = strings.TrimSpace(h); h != "" {
				available = append(available, h)
			}
		}
		return nil, apperrors.NewSchemaError(missing, available)
	}
	return columns, nil
}

// Normalize maps the table to canonical rows. Rows with an empty symbol or a
// value that cannot be read as a number are excluded and counted.
func (n *Normalizer) Normalize(t *Table) (*NormalizedTable, error) {
	columns, err := n.MapColumns(t.Header)
	if err != nil {
		return nil, err
	}

	_, hasCurrent := columns[domain.ColumnCurrentPrice]
	out := &NormalizedTable{
		Rows:            make([]domain.HoldingRow, 0, len(t.Rows)),
		HasCurrentPrice: hasCurrent,
	}

	numeric := []string{domain.ColumnQuantity, domain.ColumnPurchasePrice}
	if hasCurrent {
		numeric = append(numeric, domain.ColumnCurrentPrice)
	}

	for i, row := range t.Rows {
		sourceRow := t.HeaderRow + 1 + i

		symbol := cell(row, columns[domain.ColumnSymbol])
		if symbol == "" || strings.EqualFold(symbol, "nan") {
			out.Dropped.EmptySymbol++
			out.Defects = append(out.Defects, RowDefect{
				Row:    sourceRow,
				Reason: ReasonEmptySymbol,
				Column: domain.ColumnSymbol,
			})
			continue
		}

		values := make(map[string]decimal.Decimal, len(numeric))
		var defect *RowDefect
		for _, col := range numeric {
			raw := cell(row, columns[col])
			v, err := parseNumber(raw)
			if err != nil {
				defect = &RowDefect{Row: sourceRow, Reason: ReasonInvalidNumber, Column: col, Value: raw}
				break
			}
			values[col] = v
		}
		if defect != nil {
			out.Dropped.InvalidNumber++
			out.Defects = append(out.Defects, *defect)
			continue
		}

		holding := domain.HoldingRow{
			Symbol:        symbol,
			Quantity:      values[domain.ColumnQuantity],
			PurchasePrice: values[domain.ColumnPurchasePrice],
		}
		if hasCurrent {
			price := values[domain.ColumnCurrentPrice]
			holding.CurrentPrice = &price
		}
		out.Rows = append(out.Rows, holding)
	}

	return out, nil
}

func foldColumn(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

var currencyPrefixes = []string{"₹", "$", "€", "£"}

// parseNumber coerces a cell to an exact decimal. Thousands separators,
// spaces and a leading currency symbol are accepted.
func parseNumber(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	negative := false
	if strings.HasPrefix(s, "-") {
		negative = true
		s = strings.TrimSpace(s[1:])
	}
	for _, sym := range currencyPrefixes {
		if strings.HasPrefix(s, sym) {
			s = s[len(sym):]
			break
		}
	}
	s = strings.NewReplacer(",", "", " ", "", "\u00a0", "").Replace(s)
	if s == "" || strings.HasPrefix(s, "-") {
		return decimal.Zero, fmt.Errorf("invalid number %q", raw)
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid number %q: %w", raw, err)
	}
	if negative {
		d = d.Neg()
	}
	return d, nil
}

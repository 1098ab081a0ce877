package dataprocessing

import (
	"strings"
)

// HeaderTokens are the lower-case substrings that identify a header row.
// A row qualifies when its joined text contains at least one token from each set.
type HeaderTokens struct {
	Identity []string
	Quantity []string
	Price    []string
}

// DefaultHeaderTokens matches the column titles used by common broker exports.
var DefaultHeaderTokens = HeaderTokens{
	Identity: []string{"stock", "symbol"},
	Quantity: []string{"quantity"},
	Price:    []string{"average", "price"},
}

// HeaderStrategy picks the header row of a raw table.
// Locate returns the zero-based row index and whether a candidate was found.
type HeaderStrategy interface {
	Locate(rows [][]string) (int, bool)
}

// FirstMatchStrategy selects the first row, top to bottom, whose text
// contains an identity, a quantity and a price token.
type FirstMatchStrategy struct {
	Tokens HeaderTokens
}

// NewFirstMatchStrategy returns the default header strategy.
func NewFirstMatchStrategy() *FirstMatchStrategy {
	return &FirstMatchStrategy{Tokens: DefaultHeaderTokens}
}

// Locate implements HeaderStrategy.
func (s *FirstMatchStrategy) Locate(rows [][]string) (int, bool) {
	for i, row := range rows {
		if s.Tokens.matches(rowText(row)) {
			return i, true
		}
	}
	return 0, false
}

// StrictStrategy selects the first candidate row that is followed by at least
// one data row whose quantity and price cells parse as numbers. Candidates
// without such a row, such as a repeated title banner, are skipped.
type StrictStrategy struct {
	Tokens HeaderTokens
}

// NewStrictStrategy returns a StrictStrategy using the default tokens.
func NewStrictStrategy() *StrictStrategy {
	return &StrictStrategy{Tokens: DefaultHeaderTokens}
}

// Locate implements HeaderStrategy.
func (s *StrictStrategy) Locate(rows [][]string) (int, bool) {
	for i, row := range rows {
		if !s.Tokens.matches(rowText(row)) {
			continue
		}
		qtyCol := columnWithToken(row, s.Tokens.Quantity, -1)
		priceCol := columnWithToken(row, s.Tokens.Price, qtyCol)
		if qtyCol < 0 || priceCol < 0 {
			continue
		}
		if next := nextNonEmptyRow(rows, i+1); next >= 0 {
			_, qtyErr := parseNumber(cell(rows[next], qtyCol))
			_, priceErr := parseNumber(cell(rows[next], priceCol))
			if qtyErr == nil && priceErr == nil {
				return i, true
			}
		}
	}
	return 0, false
}

func (t HeaderTokens) matches(text string) bool {
	return containsAny(text, t.Identity) && containsAny(text, t.Quantity) && containsAny(text, t.Price)
}

// rowText lower-cases and joins the non-empty cells of a row.
func rowText(row []string) string {
	parts := make([]string, 0, len(row))
	for _, c := range row {
		if c = strings.TrimSpace(c); c != "" {
			parts = append(parts, strings.ToLower(c))
		}
	}
	return strings.Join(parts, " ")
}

func containsAny(text string, tokens []string) bool {
	for _, tok := range tokens {
		if strings.Contains(text, tok) {
			return true
		}
	}
	return false
}

// columnWithToken returns the first column whose title contains one of the
// tokens, ignoring column skip.
func columnWithToken(row []string, tokens []string, skip int) int {
	for j, c := range row {
		if j == skip {
			continue
		}
		if containsAny(strings.ToLower(c), tokens) {
			return j
		}
	}
	return -1
}

func nextNonEmptyRow(rows [][]string, from int) int {
	for i := from; i < len(rows); i++ {
		if !isEmptyRow(rows[i]) {
			return i
		}
	}
	return -1
}

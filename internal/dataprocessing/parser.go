package dataprocessing

import (
	"io"
	"log/slog"
	"strings"

	apperrors "holdlens/internal/errors"
)

// Table is a raw table sliced at its header row.
type Table struct {
	Sheet string

	// HeaderRow is the zero-based index of the header within the source sheet.
	HeaderRow int

	// HeaderDetected is false when no candidate was found and row 0 was used.
	HeaderDetected bool

	Header []string
	Rows   [][]string
}

// Parser locates the header row of a holdings file and slices the table from it.
type Parser struct {
	strategy      HeaderStrategy
	maxUnzipBytes int64
	logger        *slog.Logger
}

// ParserOption configures a Parser.
type ParserOption func(*Parser)

// WithHeaderStrategy replaces the default first-match header strategy.
func WithHeaderStrategy(s HeaderStrategy) ParserOption {
	return func(p *Parser) {
		if s != nil {
			p.strategy = s
		}
	}
}

// WithParserLogger sets the logger used for header detection diagnostics.
func WithParserLogger(logger *slog.Logger) ParserOption {
	return func(p *Parser) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithUnzipLimit caps the decompressed size of workbooks.
func WithUnzipLimit(maxBytes int64) ParserOption {
	return func(p *Parser) {
		p.maxUnzipBytes = maxBytes
	}
}

// NewParser creates a parser with the first-match header strategy.
func NewParser(opts ...ParserOption) *Parser {
	p := &Parser{
		strategy: NewFirstMatchStrategy(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse reads the stream and returns the table starting at the detected header.
// Delimited text is assumed well formed and always uses its first row as header.
func (p *Parser) Parse(r io.Reader, kind Kind) (*Table, error) {
	tables, err := ReadTables(r, kind, p.maxUnzipBytes)
	if err != nil {
		return nil, err
	}

	if kind == KindDelimited {
		return sliceAt(tables[0], 0, true)
	}

	for _, t := range tables {
		if idx, ok := p.strategy.Locate(t.Rows); ok {
			p.logger.Debug("header row located",
				slog.String("sheet", t.Sheet),
				slog.Int("row", idx))
			return sliceAt(t, idx, true)
		}
	}

	for _, t := range tables {
		if hasAnyCell([]RawTable{t}) {
			p.logger.Warn("no header candidate found, using first row",
				slog.String("sheet", t.Sheet),
				slog.Int("rows", len(t.Rows)))
			return sliceAt(t, 0, false)
		}
	}

	return nil, apperrors.NewParseError("spreadsheet contains no cells", nil)
}

// sliceAt uses row idx as header and keeps the non-empty rows below it.
func sliceAt(t RawTable, idx int, detected bool) (*Table, error) {
	if idx >= len(t.Rows) {
		return nil, apperrors.NewParseError("table has no header row", nil)
	}

	header := make([]string, len(t.Rows[idx]))
	for i, h := range t.Rows[idx] {
		header[i] = strings.TrimSpace(h)
	}

	rows := make([][]string, 0, len(t.Rows)-idx-1)
	for _, row := range t.Rows[idx+1:] {
		if isEmptyRow(row) {
			continue
		}
		rows = append(rows, row)
	}

	return &Table{
		Sheet:          t.Sheet,
		HeaderRow:      idx,
		HeaderDetected: detected,
		Header:         header,
		Rows:           rows,
	}, nil
}

package dataprocessing

import (
	"io"
	"log/slog"
)

// HoldingsProcessor runs the full pipeline: header location, normalization
// and analysis. It holds no mutable state and is safe for concurrent use.
type HoldingsProcessor struct {
	parser     *Parser
	normalizer *Normalizer
	logger     *slog.Logger
}

// NewHoldingsProcessor creates a processor with the given options.
func NewHoldingsProcessor(opts ProcessingOptions, logger *slog.Logger) *HoldingsProcessor {
	if logger == nil {
		logger = slog.Default()
	}

	var strategy HeaderStrategy = NewFirstMatchStrategy()
	if opts.StrictHeader {
		strategy = NewStrictStrategy()
	}

	return &HoldingsProcessor{
		parser:     NewParser(WithHeaderStrategy(strategy), WithParserLogger(logger), WithUnzipLimit(opts.MaxUnzipBytes)),
		normalizer: NewNormalizer(opts.Aliases),
		logger:     logger,
	}
}

// Process implements Processor.
func (p *HoldingsProcessor) Process(r io.Reader, kind Kind) (*Result, error) {
	table, err := p.parser.Parse(r, kind)
	if err != nil {
		return nil, err
	}

	normalized, err := p.normalizer.Normalize(table)
	if err != nil {
		return nil, err
	}

	for _, d := range normalized.Defects {
		p.logger.Debug("row excluded",
			slog.Int("row", d.Row),
			slog.String("reason", d.Reason),
			slog.String("column", d.Column),
			slog.String("value", d.Value))
	}

	analysis, err := Analyze(normalized.Rows, normalized.HasCurrentPrice)
	if err != nil {
		return nil, err
	}
	analysis.Dropped = normalized.Dropped
	analysis.HeaderRow = table.HeaderRow

	p.logger.Info("holdings analyzed",
		slog.String("kind", string(kind)),
		slog.String("sheet", table.Sheet),
		slog.Int("header_row", table.HeaderRow),
		slog.Int("holdings", len(analysis.Holdings)),
		slog.Int("dropped_rows", analysis.Dropped.Total()))

	return &Result{
		Analysis:       analysis,
		Sheet:          table.Sheet,
		HeaderDetected: table.HeaderDetected,
		Defects:        normalized.Defects,
	}, nil
}

package dataprocessing

import (
	"io"

	"holdlens/pkg/contracts/domain"
)

// Processor turns a holdings byte stream into an analysis.
type Processor interface {
	Process(r io.Reader, kind Kind) (*Result, error)
}

// ProcessingOptions configures processing behavior
type ProcessingOptions struct {
	// StrictHeader requires a header candidate to be followed by a numeric data row.
	StrictHeader bool

	// Aliases overrides DefaultColumnAliases when non-nil.
	Aliases map[string][]string

	// MaxUnzipBytes caps the decompressed size of a workbook. Zero keeps the
	// excelize default.
	MaxUnzipBytes int64
}

// DefaultOptions returns default processing options
func DefaultOptions() ProcessingOptions {
	return ProcessingOptions{}
}

// Result is the output of one processing run.
type Result struct {
	Analysis *domain.Analysis

	// Sheet is empty for delimited input.
	Sheet          string
	HeaderDetected bool
	Defects        []RowDefect
}

package exporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"holdlens/pkg/contracts/domain"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// WriteOptions configures CSV writing behavior
type WriteOptions struct {
	BOMPrefix bool // Add UTF-8 BOM for Excel compatibility
}

// HoldingsHeader returns the column titles of a holdings export. Valuation
// columns are present only when the analysis has current prices.
func HoldingsHeader(withValuation bool) []string {
	header := []string{"symbol", "quantity", "purchase_price", "invested_value", "allocation_pct"}
	if withValuation {
		header = append(header, "current_price", "current_value", "profit_loss", "profit_loss_pct")
	}
	return header
}

// HoldingsRecords renders the per-holding rows of an analysis.
func HoldingsRecords(a *domain.Analysis) [][]string {
	records := make([][]string, 0, len(a.Holdings))
	for _, h := range a.Holdings {
		record := []string{
			h.Symbol,
			h.Quantity.String(),
			formatDecimal(h.PurchasePrice, 2),
			formatDecimal(h.InvestedValue, 2),
			formatDecimal(h.AllocationPct, 2),
		}
		if v := h.Valuation; v != nil {
			record = append(record,
				formatDecimal(v.CurrentPrice, 2),
				formatDecimal(v.CurrentValue, 2),
				formatDecimal(v.ProfitLoss, 2),
				formatDecimal(v.ProfitLossPct, 2),
			)
		}
		records = append(records, record)
	}
	return records
}

// WriteHoldingsCSV writes the holdings of an analysis as CSV.
func WriteHoldingsCSV(w io.Writer, a *domain.Analysis, options WriteOptions) error {
	return writeCSV(w, HoldingsHeader(a.HasValuation()), HoldingsRecords(a), options)
}

// SampleHeader is the header row of generated sample files.
var SampleHeader = []string{
	domain.ColumnSymbol,
	domain.ColumnQuantity,
	domain.ColumnPurchasePrice,
	domain.ColumnCurrentPrice,
}

// WriteSampleCSV writes sample holdings in the canonical column layout.
func WriteSampleCSV(w io.Writer, holdings []domain.SampleHolding, options WriteOptions) error {
	records := make([][]string, len(holdings))
	for i, h := range holdings {
		records[i] = []string{
			h.Symbol,
			strconv.Itoa(h.Quantity),
			formatFloat(h.PurchasePrice),
			formatFloat(h.CurrentPrice),
		}
	}
	return writeCSV(w, SampleHeader, records, options)
}

// WriteFile creates filePath, including missing parent directories, and
// fills it with write.
func WriteFile(filePath string, write func(io.Writer) error) error {
	slog.Debug("Writing export file", slog.String("file_path", filePath))

	if err := os.MkdirAll(filepath.Dir(filePath), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	if err := write(file); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

func writeCSV(w io.Writer, headers []string, records [][]string, options WriteOptions) error {
	if options.BOMPrefix {
		if _, err := w.Write(utf8BOM); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(w)
	if err := writer.Write(headers); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}
	for i, record := range records {
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

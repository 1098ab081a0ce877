package exporter

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"holdlens/pkg/contracts/domain"
)

const (
	sheetHoldings = "Holdings"
	sheetSummary  = "Summary"
)

// WriteSampleWorkbook writes sample holdings as an xlsx workbook with a
// single Holdings sheet.
func WriteSampleWorkbook(w io.Writer, holdings []domain.SampleHolding) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheetHoldings); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	if err := setRow(f, sheetHoldings, 1, toAny(SampleHeader)); err != nil {
		return err
	}
	for i, h := range holdings {
		row := []any{h.Symbol, h.Quantity, h.PurchasePrice, h.CurrentPrice}
		if err := setRow(f, sheetHoldings, i+2, row); err != nil {
			return err
		}
	}
	if err := styleHeader(f, sheetHoldings, len(SampleHeader)); err != nil {
		return err
	}

	_, err := f.WriteTo(w)
	return err
}

// WriteAnalysisWorkbook writes an analysis as a two-sheet workbook: the
// per-holding table and a summary.
func WriteAnalysisWorkbook(w io.Writer, a *domain.Analysis) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheetHoldings); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	header := HoldingsHeader(a.HasValuation())
	if err := setRow(f, sheetHoldings, 1, toAny(header)); err != nil {
		return err
	}
	for i, h := range a.Holdings {
		row := []any{
			h.Symbol,
			h.Quantity.InexactFloat64(),
			h.PurchasePrice.InexactFloat64(),
			h.InvestedValue.InexactFloat64(),
			h.AllocationPct.Round(2).InexactFloat64(),
		}
		if v := h.Valuation; v != nil {
			row = append(row,
				v.CurrentPrice.InexactFloat64(),
				v.CurrentValue.InexactFloat64(),
				v.ProfitLoss.InexactFloat64(),
				v.ProfitLossPct.Round(2).InexactFloat64(),
			)
		}
		if err := setRow(f, sheetHoldings, i+2, row); err != nil {
			return err
		}
	}
	if err := styleHeader(f, sheetHoldings, len(header)); err != nil {
		return err
	}

	if _, err := f.NewSheet(sheetSummary); err != nil {
		return fmt.Errorf("failed to create summary sheet: %w", err)
	}
	s := a.Summary
	rows := [][]any{
		{"Total invested", s.TotalInvested.InexactFloat64()},
		{"Total stocks", s.TotalStocks},
		{"Dropped rows", a.Dropped.Total()},
	}
	if p := s.Performance; p != nil {
		rows = append(rows,
			[]any{"Total current value", p.TotalCurrentValue.InexactFloat64()},
			[]any{"Total profit/loss", p.TotalProfitLoss.InexactFloat64()},
			[]any{"Total return %", p.TotalReturnPct.Round(2).InexactFloat64()},
			[]any{"Winners", p.Winners},
			[]any{"Losers", p.Losers},
		)
	}
	for i, row := range rows {
		if err := setRow(f, sheetSummary, i+1, row); err != nil {
			return err
		}
	}

	_, err := f.WriteTo(w)
	return err
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("failed to write row %d: %w", row, err)
	}
	return nil
}

func styleHeader(f *excelize.File, sheet string, columns int) error {
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	last, err := excelize.CoordinatesToCellName(columns, 1)
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, "A1", last, style)
}

func toAny(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

package dataprocessing

import (
	"github.com/shopspring/decimal"

	apperrors "holdlens/internal/errors"
	"holdlens/pkg/contracts/domain"
)

var hundred = decimal.NewFromInt(100)

// Analyze computes per-holding and aggregate metrics. It is a pure function of
// its input. hasCurrentPrice selects whether valuation metrics are produced;
// every row must then carry a current price.
func Analyze(rows []domain.HoldingRow, hasCurrentPrice bool) (*domain.Analysis, error) {
	if len(rows) == 0 {
		return nil, apperrors.NewDataError(apperrors.CodeEmptyOrZeroInvested, "portfolio has no holdings")
	}

	invested := make([]decimal.Decimal, len(rows))
	total := decimal.Zero
	for i, r := range rows {
		invested[i] = r.Quantity.Mul(r.PurchasePrice)
		total = total.Add(invested[i])
	}
	if !total.IsPositive() {
		return nil, apperrors.NewDataError(apperrors.CodeEmptyOrZeroInvested,
			"total invested value must be greater than zero").
			WithContext("total_invested", total.String())
	}

	analysis := &domain.Analysis{
		Holdings: make([]domain.Holding, len(rows)),
		Summary: domain.PortfolioSummary{
			TotalInvested: total,
			TotalStocks:   len(rows),
			PieChartData:  make([]domain.PieSlice, len(rows)),
		},
	}

	var perf *domain.Performance
	if hasCurrentPrice {
		perf = &domain.Performance{}
	}

	for i, r := range rows {
		allocation := invested[i].Mul(hundred).Div(total)

		h := domain.Holding{
			Symbol:        r.Symbol,
			Quantity:      r.Quantity,
			PurchasePrice: r.PurchasePrice,
			InvestedValue: invested[i],
			AllocationPct: allocation,
		}

		if perf != nil {
			if r.CurrentPrice == nil {
				return nil, apperrors.NewDataError(apperrors.CodeInvalidNumber,
					"current price missing for "+r.Symbol)
			}
			current := r.Quantity.Mul(*r.CurrentPrice)
			pl := current.Sub(invested[i])
			plPct := decimal.Zero
			if !invested[i].IsZero() {
				plPct = pl.Mul(hundred).Div(invested[i])
			}
			h.Valuation = &domain.Valuation{
				CurrentPrice:  *r.CurrentPrice,
				CurrentValue:  current,
				ProfitLoss:    pl,
				ProfitLossPct: plPct,
			}

			perf.TotalCurrentValue = perf.TotalCurrentValue.Add(current)
			perf.TotalProfitLoss = perf.TotalProfitLoss.Add(pl)
			switch pl.Sign() {
			case 1:
				perf.Winners++
			case -1:
				perf.Losers++
			}
		}

		analysis.Holdings[i] = h
		analysis.Summary.PieChartData[i] = domain.PieSlice{
			Symbol:     r.Symbol,
			Value:      invested[i],
			Percentage: allocation,
			Quantity:   r.Quantity,
		}
	}

	if perf != nil {
		perf.TotalReturnPct = perf.TotalProfitLoss.Mul(hundred).Div(total)
		analysis.Summary.Performance = perf
	}

	return analysis, nil
}

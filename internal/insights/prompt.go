package insights

import (
	"fmt"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"

	"holdlens/pkg/contracts/domain"
)

// TopHoldings is the number of holdings listed in the prompt.
const TopHoldings = 5

const promptHeader = `Analyze this investment portfolio and provide insights:

**Portfolio Summary:**
- Total Invested: %s
- Number of Stocks: %d

**Top Holdings:**
%s

Please provide:
1. **Diversification Analysis**: Comment on the portfolio concentration and diversification
2. **Risk Assessment**: Identify potential risks based on allocation
3. **Recommendations**: Suggest 2-3 actionable improvements
4. **Market Outlook**: Brief perspective on the holdings

Keep the response concise (max 300 words) and actionable.`

const performanceBlock = `

**Performance Metrics:**
- Current Value: %s
- Total P&L: %s (%s%%)
- Winners: %d | Losers: %d
`

// BuildPrompt renders the insight prompt for an analysis. Holdings are
// listed in input order. When maxChars > 0 and the prompt is longer,
// holdings lines are removed from the end until it fits or one remains.
func BuildPrompt(a *domain.Analysis, currency string, maxChars int) string {
	holdings := a.Holdings
	if len(holdings) > TopHoldings {
		holdings = holdings[:TopHoldings]
	}

	lines := make([]string, len(holdings))
	for i, h := range holdings {
		lines[i] = holdingLine(h, currency)
	}

	render := func(n int) string {
		s := a.Summary
		prompt := fmt.Sprintf(promptHeader,
			FormatMoney(s.TotalInvested, currency, 2),
			s.TotalStocks,
			strings.Join(lines[:n], "\n"))

		if p := s.Performance; p != nil {
			prompt += fmt.Sprintf(performanceBlock,
				FormatMoney(p.TotalCurrentValue, currency, 2),
				FormatMoney(p.TotalProfitLoss, currency, 2),
				p.TotalReturnPct.StringFixed(2),
				p.Winners, p.Losers)
		}
		return prompt
	}

	n := len(lines)
	prompt := render(n)
	for maxChars > 0 && len(prompt) > maxChars && n > 1 {
		n--
		prompt = render(n)
	}
	return prompt
}

func holdingLine(h domain.Holding, currency string) string {
	line := fmt.Sprintf("- %s: %s%% (%s)",
		h.Symbol,
		h.AllocationPct.StringFixed(1),
		FormatMoney(h.InvestedValue, currency, 0))
	if h.Valuation != nil {
		line += " | P&L: " + SignedPercent(h.Valuation.ProfitLossPct)
	}
	return line
}

// FormatMoney formats an amount in the given ISO currency with the given
// number of decimal places, e.g. ₹1,500.00. Unknown codes fall back to INR.
func FormatMoney(amount decimal.Decimal, code string, places int32) string {
	cur := money.GetCurrency(strings.ToUpper(code))
	if cur == nil {
		cur = money.GetCurrency(money.INR)
	}
	c := *cur
	c.Fraction = int(places)
	return c.Formatter().Format(amount.Shift(places).Round(0).IntPart())
}

// SignedPercent renders a percentage with an explicit sign and two decimals.
func SignedPercent(pct decimal.Decimal) string {
	s := pct.StringFixed(2)
	if !pct.IsNegative() {
		s = "+" + s
	}
	return s + "%"
}

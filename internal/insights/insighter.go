package insights

import (
	"context"
	"log/slog"
	"time"

	"holdlens/internal/infrastructure"
	"holdlens/pkg/contracts/domain"
)

// FallbackText is returned when the generator fails or times out.
const FallbackText = "Unable to generate AI insights at this time. Please try again later."

// Insighter turns an analysis into narrative insights. A failing generator
// never fails the analysis.
type Insighter struct {
	generator      Generator
	currency       string
	timeout        time.Duration
	maxPromptChars int
	metrics        *infrastructure.PortfolioMetrics
	logger         *slog.Logger
}

// Options configures an Insighter.
type Options struct {
	Currency       string
	Timeout        time.Duration
	MaxPromptChars int
	Metrics        *infrastructure.PortfolioMetrics
	Logger         *slog.Logger
}

// NewInsighter creates an Insighter. A nil generator disables insights.
func NewInsighter(generator Generator, opts Options) *Insighter {
	if opts.Currency == "" {
		opts.Currency = "INR"
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Insighter{
		generator:      generator,
		currency:       opts.Currency,
		timeout:        opts.Timeout,
		maxPromptChars: opts.MaxPromptChars,
		metrics:        opts.Metrics,
		logger:         opts.Logger.With(slog.String("component", "insights")),
	}
}

// Enabled reports whether a generator is configured.
func (i *Insighter) Enabled() bool {
	return i != nil && i.generator != nil
}

// Insights returns generated text for the analysis. It returns "" when
// insights are disabled and FallbackText when generation fails.
func (i *Insighter) Insights(ctx context.Context, a *domain.Analysis) string {
	if !i.Enabled() {
		if i != nil {
			i.metrics.RecordInsights(ctx, infrastructure.OutcomeSkipped)
		}
		return ""
	}

	if i.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, i.timeout)
		defer cancel()
	}

	prompt := BuildPrompt(a, i.currency, i.maxPromptChars)
	start := time.Now()
	text, err := i.generator.Generate(ctx, prompt)
	if err != nil {
		i.logger.WarnContext(ctx, "insight generation failed",
			slog.String("error", err.Error()),
			slog.Duration("elapsed", time.Since(start)))
		i.metrics.RecordInsights(ctx, infrastructure.OutcomeFallback)
		return FallbackText
	}

	i.logger.InfoContext(ctx, "insights generated",
		slog.Int("chars", len(text)),
		slog.Duration("elapsed", time.Since(start)))
	i.metrics.RecordInsights(ctx, infrastructure.OutcomeSuccess)
	return text
}

package services

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"holdlens/internal/chart"
	"holdlens/internal/dataprocessing"
	"holdlens/internal/infrastructure"
	"holdlens/internal/insights"
	"holdlens/internal/storage"
	"holdlens/pkg/contracts/domain"
)

// AnalysisReport is an analysis together with optional insights and the
// file it was computed from.
type AnalysisReport struct {
	Analysis   *domain.Analysis
	AIInsights string
	Filename   string
}

// MarshalJSON writes the analysis fields with ai_insights and filename added
// at the top level.
func (r AnalysisReport) MarshalJSON() ([]byte, error) {
	base := []byte("{}")
	if r.Analysis != nil {
		var err error
		if base, err = json.Marshal(r.Analysis); err != nil {
			return nil, err
		}
	}
	extra, err := json.Marshal(struct {
		AIInsights string `json:"ai_insights,omitempty"`
		Filename   string `json:"filename,omitempty"`
	}{r.AIInsights, r.Filename})
	if err != nil {
		return nil, err
	}
	if len(extra) <= 2 {
		return base, nil
	}
	if len(base) <= 2 {
		return extra, nil
	}

	out := make([]byte, 0, len(base)+len(extra))
	out = append(out, base[:len(base)-1]...)
	out = append(out, ',')
	out = append(out, extra[1:]...)
	return out, nil
}

// PortfolioService coordinates storage, analysis and insights.
type PortfolioService struct {
	store     storage.Store
	keys      storage.Keys
	processor dataprocessing.Processor
	insighter *insights.Insighter
	metrics   *infrastructure.PortfolioMetrics
	tracer    trace.Tracer
	logger    *slog.Logger
}

// PortfolioServiceOptions holds the collaborators of a PortfolioService.
// Insighter and Metrics may be nil.
type PortfolioServiceOptions struct {
	Store     storage.Store
	KeyPrefix string
	Processor dataprocessing.Processor
	Insighter *insights.Insighter
	Metrics   *infrastructure.PortfolioMetrics
	Logger    *slog.Logger

	// MaxUnzipBytes applies to the default processor only.
	MaxUnzipBytes int64
}

// NewPortfolioService creates a portfolio service.
func NewPortfolioService(opts PortfolioServiceOptions) *PortfolioService {
	logger := infrastructure.WithComponent(opts.Logger, "portfolio_service")
	processor := opts.Processor
	if processor == nil {
		procOpts := dataprocessing.DefaultOptions()
		procOpts.MaxUnzipBytes = opts.MaxUnzipBytes
		processor = dataprocessing.NewHoldingsProcessor(procOpts, logger)
	}
	return &PortfolioService{
		store:     opts.Store,
		keys:      storage.Keys{Prefix: opts.KeyPrefix},
		processor: processor,
		insighter: opts.Insighter,
		metrics:   opts.Metrics,
		tracer:    otel.Tracer(infrastructure.InstrumentationName),
		logger:    logger,
	}
}

// Analyze runs the holdings pipeline over file bytes. The file kind is taken
// from the filename extension.
func (s *PortfolioService) Analyze(ctx context.Context, data []byte, filename string) (*dataprocessing.Result, error) {
	ctx, span := s.tracer.Start(ctx, "PortfolioService.Analyze",
		trace.WithAttributes(
			attribute.String("portfolio.filename", filename),
			attribute.Int("portfolio.size_bytes", len(data)),
		))
	defer span.End()

	start := time.Now()
	kind, err := dataprocessing.KindFromFilename(filename)
	if err != nil {
		s.metrics.RecordAnalysis(ctx, "unknown", infrastructure.OutcomeFailure, time.Since(start), 0, 0)
		infrastructure.RecordError(ctx, err)
		return nil, err
	}

	res, err := s.processor.Process(bytes.NewReader(data), kind)
	if err != nil {
		s.metrics.RecordAnalysis(ctx, string(kind), infrastructure.OutcomeFailure, time.Since(start), 0, 0)
		infrastructure.RecordError(ctx, err)
		s.logger.WarnContext(ctx, "analysis failed",
			slog.String("filename", filename),
			slog.String("error", err.Error()))
		return nil, err
	}

	dropped := res.Analysis.Dropped
	s.metrics.RecordAnalysis(ctx, string(kind), infrastructure.OutcomeSuccess, time.Since(start),
		dropped.EmptySymbol, dropped.InvalidNumber)
	span.SetAttributes(
		attribute.Int("portfolio.holdings", len(res.Analysis.Holdings)),
		attribute.Int("portfolio.dropped_rows", dropped.Total()),
	)
	return res, nil
}

// AnalyzeUpload analyzes uploaded bytes and optionally adds insights.
func (s *PortfolioService) AnalyzeUpload(ctx context.Context, data []byte, filename string, withInsights bool) (*AnalysisReport, error) {
	res, err := s.Analyze(ctx, data, filename)
	if err != nil {
		return nil, err
	}
	return s.report(ctx, res.Analysis, filename, withInsights), nil
}

// AnalyzeStored fetches a user's file from the store, analyzes it and
// optionally adds insights.
func (s *PortfolioService) AnalyzeStored(ctx context.Context, userID, filename string, withInsights bool) (*AnalysisReport, error) {
	data, err := s.fetch(ctx, userID, filename)
	if err != nil {
		return nil, err
	}

	res, err := s.Analyze(ctx, data, filename)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "stored portfolio analyzed",
		slog.String("user_id", userID),
		slog.String("filename", filename),
		slog.Int("holdings", len(res.Analysis.Holdings)))
	return s.report(ctx, res.Analysis, filename, withInsights), nil
}

// ListPortfolios lists the files stored for a user.
func (s *PortfolioService) ListPortfolios(ctx context.Context, userID string) ([]domain.StoredPortfolio, error) {
	ctx, span := s.tracer.Start(ctx, "PortfolioService.ListPortfolios")
	defer span.End()

	prefix, err := s.keys.UserPrefix(userID)
	if err != nil {
		return nil, err
	}

	objects, err := s.store.List(ctx, prefix)
	if err != nil {
		infrastructure.RecordError(ctx, err)
		return nil, err
	}

	portfolios := make([]domain.StoredPortfolio, len(objects))
	for i, obj := range objects {
		portfolios[i] = obj.Portfolio()
	}
	return portfolios, nil
}

// PortfolioOutcome is the result of analyzing one stored file in a batch.
type PortfolioOutcome struct {
	Portfolio domain.StoredPortfolio `json:"portfolio"`
	Report    *AnalysisReport        `json:"analysis,omitempty"`
	Error     string                 `json:"error,omitempty"`
}

// AnalyzeAllStored analyzes every file stored for a user, at most
// concurrency at a time. A file that fails to analyze is reported in its
// outcome; only listing failures and cancellation fail the call.
func (s *PortfolioService) AnalyzeAllStored(ctx context.Context, userID string, concurrency int) ([]PortfolioOutcome, error) {
	portfolios, err := s.ListPortfolios(ctx, userID)
	if err != nil {
		return nil, err
	}
	if concurrency <= 0 {
		concurrency = 4
	}

	outcomes := make([]PortfolioOutcome, len(portfolios))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, p := range portfolios {
		outcomes[i].Portfolio = p
		g.Go(func() error {
			report, err := s.AnalyzeStored(gctx, userID, p.Filename, false)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				outcomes[i].Error = err.Error()
				return nil
			}
			outcomes[i].Report = report
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return outcomes, nil
}

// AllocationChart renders the allocation pie of a stored file as PNG.
func (s *PortfolioService) AllocationChart(ctx context.Context, userID, filename string, width, height int) ([]byte, error) {
	data, err := s.fetch(ctx, userID, filename)
	if err != nil {
		return nil, err
	}
	res, err := s.Analyze(ctx, data, filename)
	if err != nil {
		return nil, err
	}
	return chart.RenderAllocationPie(res.Analysis.Summary.PieChartData, width, height)
}

// Sample describes the accepted holdings file layout.
func (s *PortfolioService) Sample() domain.SampleFormat {
	return SampleFormat()
}

// InsightsEnabled reports whether AI insights are configured.
func (s *PortfolioService) InsightsEnabled() bool {
	return s.insighter.Enabled()
}

func (s *PortfolioService) fetch(ctx context.Context, userID, filename string) ([]byte, error) {
	ctx, span := s.tracer.Start(ctx, "PortfolioService.Fetch")
	defer span.End()

	key, err := s.keys.ObjectKey(userID, filename)
	if err != nil {
		return nil, err
	}
	data, err := s.store.Fetch(ctx, key)
	if err != nil {
		infrastructure.RecordError(ctx, err)
		s.logger.WarnContext(ctx, "portfolio fetch failed",
			slog.String("key", key),
			slog.String("error", err.Error()))
		return nil, err
	}
	return data, nil
}

func (s *PortfolioService) report(ctx context.Context, a *domain.Analysis, filename string, withInsights bool) *AnalysisReport {
	r := &AnalysisReport{Analysis: a, Filename: filename}
	if withInsights {
		r.AIInsights = s.insighter.Insights(ctx, a)
	}
	return r
}

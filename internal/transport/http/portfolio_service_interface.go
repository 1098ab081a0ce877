package http

import (
	"context"

	"holdlens/internal/services"
	"holdlens/pkg/contracts/domain"
)

// PortfolioService is the service surface used by PortfolioHandler.
type PortfolioService interface {
	AnalyzeStored(ctx context.Context, userID, filename string, withInsights bool) (*services.AnalysisReport, error)
	AnalyzeUpload(ctx context.Context, data []byte, filename string, withInsights bool) (*services.AnalysisReport, error)
	AnalyzeAllStored(ctx context.Context, userID string, concurrency int) ([]services.PortfolioOutcome, error)
	ListPortfolios(ctx context.Context, userID string) ([]domain.StoredPortfolio, error)
	AllocationChart(ctx context.Context, userID, filename string, width, height int) ([]byte, error)
	Sample() domain.SampleFormat
}

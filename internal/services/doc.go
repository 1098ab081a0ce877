// Package services implements the application layer between the HTTP and
// CLI front ends and the holdings pipeline.
//
// PortfolioService fetches stored files through a storage.Store, runs them
// through a dataprocessing.Processor and optionally asks an
// insights.Insighter for commentary. Each call is traced and counted in
// infrastructure.PortfolioMetrics.
//
//	svc := services.NewPortfolioService(services.PortfolioServiceOptions{
//	    Store:     store,
//	    KeyPrefix: cfg.Storage.Prefix,
//	    Insighter: insighter,
//	    Metrics:   metrics,
//	    Logger:    logger,
//	})
//	report, err := svc.AnalyzeStored(ctx, "user-1", "holdings.xlsx", true)
//
// HealthService backs the liveness and readiness endpoints; readiness
// depends on the storage backend only.
package services

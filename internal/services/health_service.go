package services

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"holdlens/internal/storage"
)

// HealthService provides health check functionality
type HealthService struct {
	version   string
	buildTime string
	store     storage.Store
	insights  bool
	startTime time.Time
	logger    *slog.Logger
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string                   `json:"status"`
	Timestamp time.Time                `json:"timestamp"`
	Version   string                   `json:"version"`
	Runtime   map[string]interface{}   `json:"runtime,omitempty"`
	Services  map[string]ServiceHealth `json:"services,omitempty"`
}

// ServiceHealth represents individual service health
type ServiceHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Uptime  string `json:"uptime,omitempty"`
}

// NewHealthService creates a health service. store may be nil when no
// storage backend is configured.
func NewHealthService(version, buildTime string, store storage.Store, insightsEnabled bool, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("HealthService initialized",
		slog.String("version", version),
		slog.Bool("insights_enabled", insightsEnabled))

	return &HealthService{
		version:   version,
		buildTime: buildTime,
		store:     store,
		insights:  insightsEnabled,
		startTime: time.Now(),
		logger:    logger,
	}
}

// HealthCheck returns overall health status
func (hs *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   hs.version,
	}
}

// ReadinessCheck reports whether the storage backend answers. Insights are
// reported but never block readiness.
func (hs *HealthService) ReadinessCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    "ready",
		Timestamp: time.Now(),
		Version:   hs.version,
		Services: map[string]ServiceHealth{
			"storage":  hs.checkStorage(ctx),
			"insights": hs.checkInsights(),
		},
	}

	if status.Services["storage"].Status != "ready" {
		status.Status = "not_ready"
		hs.logger.WarnContext(ctx, "readiness check failed",
			slog.String("storage", status.Services["storage"].Message))
	}
	return status
}

// LivenessCheck returns liveness status
func (hs *HealthService) LivenessCheck(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:    "alive",
		Timestamp: time.Now(),
		Version:   hs.version,
		Runtime: map[string]interface{}{
			"uptime":     time.Since(hs.startTime).Seconds(),
			"go_version": runtime.Version(),
			"goroutines": runtime.NumGoroutine(),
		},
	}
}

// Version returns version information
func (hs *HealthService) Version() map[string]interface{} {
	result := map[string]interface{}{
		"version":      hs.version,
		"go_version":   runtime.Version(),
		"os":           runtime.GOOS,
		"arch":         runtime.GOARCH,
		"uptime":       time.Since(hs.startTime).Seconds(),
		"start_time":   hs.startTime.Format(time.RFC3339),
		"current_time": time.Now().Format(time.RFC3339),
	}
	if hs.buildTime != "" {
		result["build_time"] = hs.buildTime
	}
	return result
}

func (hs *HealthService) checkStorage(ctx context.Context) ServiceHealth {
	if hs.store == nil {
		return ServiceHealth{Status: "not_ready", Message: "storage not configured"}
	}

	pinger, ok := hs.store.(storage.Pinger)
	if !ok {
		return ServiceHealth{Status: "ready", Message: "storage configured"}
	}

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := pinger.Ping(ctx); err != nil {
		return ServiceHealth{
			Status:  "not_ready",
			Message: fmt.Sprintf("storage error: %v", err),
		}
	}
	return ServiceHealth{
		Status:  "ready",
		Message: "storage is reachable",
		Uptime:  time.Since(hs.startTime).String(),
	}
}

func (hs *HealthService) checkInsights() ServiceHealth {
	if !hs.insights {
		return ServiceHealth{Status: "disabled", Message: "no AI API key configured"}
	}
	return ServiceHealth{Status: "ready"}
}

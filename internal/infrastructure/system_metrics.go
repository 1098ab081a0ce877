package infrastructure

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"go.opentelemetry.io/otel/metric"
)

// SystemStats is a point-in-time snapshot of Go runtime statistics.
type SystemStats struct {
	GoRoutines    int64
	HeapAlloc     int64
	MemorySystem  int64
	GCCount       int64
	CPUCount      int64
	ProcessUptime time.Duration
}

// ReadSystemStats samples the runtime.
func ReadSystemStats(startTime time.Time) SystemStats {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	return SystemStats{
		GoRoutines:    int64(runtime.NumGoroutine()),
		HeapAlloc:     int64(mem.HeapAlloc),
		MemorySystem:  int64(mem.Sys),
		GCCount:       int64(mem.NumGC),
		CPUCount:      int64(runtime.NumCPU()),
		ProcessUptime: time.Since(startTime),
	}
}

// RegisterSystemMetrics registers observable runtime gauges on meter. Values
// are sampled once per collection, so scrapes never see stale numbers. The
// returned registration must be unregistered on shutdown.
func RegisterSystemMetrics(meter metric.Meter, startTime time.Time) (metric.Registration, error) {
	goroutines, err := meter.Int64ObservableGauge(
		"system_goroutines",
		metric.WithDescription("Number of active goroutines"),
	)
	if err != nil {
		return nil, fmt.Errorf("goroutines gauge: %w", err)
	}

	heap, err := meter.Int64ObservableGauge(
		"system_memory_heap_bytes",
		metric.WithDescription("Bytes of allocated heap objects"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, fmt.Errorf("heap gauge: %w", err)
	}

	sys, err := meter.Int64ObservableGauge(
		"system_memory_system_bytes",
		metric.WithDescription("Memory obtained from the OS in bytes"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, fmt.Errorf("system memory gauge: %w", err)
	}

	gcCount, err := meter.Int64ObservableCounter(
		"system_gc_count",
		metric.WithDescription("Completed garbage collection cycles"),
	)
	if err != nil {
		return nil, fmt.Errorf("gc counter: %w", err)
	}

	cpus, err := meter.Int64ObservableGauge(
		"system_cpu_count",
		metric.WithDescription("Number of logical CPUs"),
	)
	if err != nil {
		return nil, fmt.Errorf("cpu gauge: %w", err)
	}

	uptime, err := meter.Float64ObservableGauge(
		"system_process_uptime_seconds",
		metric.WithDescription("Process uptime in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("uptime gauge: %w", err)
	}

	return meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		stats := ReadSystemStats(startTime)
		o.ObserveInt64(goroutines, stats.GoRoutines)
		o.ObserveInt64(heap, stats.HeapAlloc)
		o.ObserveInt64(sys, stats.MemorySystem)
		o.ObserveInt64(gcCount, stats.GCCount)
		o.ObserveInt64(cpus, stats.CPUCount)
		o.ObserveFloat64(uptime, stats.ProcessUptime.Seconds())
		return nil
	}, goroutines, heap, sys, gcCount, cpus, uptime)
}

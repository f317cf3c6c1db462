package services

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"time"

	"ventaperdida/pkg/contracts"
	"ventaperdida/pkg/contracts/domain"
)

// LoadReporter exposes the outcome of the most recent pipeline load.
type LoadReporter interface {
	LastLoad() (*domain.Dataset, error)
}

// HealthService provides health check functionality
type HealthService struct {
	version    string
	buildTime  string
	backend    string
	exportsDir string
	loads      LoadReporter
	startTime  time.Time
	logger     *slog.Logger
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
	Version string `json:"version,omitempty"`
	// LoadedAt is when the sources were last reconciled.
	LoadedAt *time.Time `json:"loaded_at,omitempty"`
}

// Health states.
const (
	StatusOK       = "ok"
	StatusReady    = "ready"
	StatusNotReady = "not_ready"
	StatusPending  = "pending"
	StatusDegraded = "degraded"
)

// NewHealthService creates a new health service with injected dependencies
func NewHealthService(version, buildTime, backend, exportsDir string, loads LoadReporter, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "health_service"))

	logger.Info("HealthService initialized",
		slog.String("version", version),
		slog.String("build_time", buildTime),
		slog.String("backend", backend))

	return &HealthService{
		version:    version,
		buildTime:  buildTime,
		backend:    backend,
		exportsDir: exportsDir,
		loads:      loads,
		startTime:  time.Now(),
		logger:     logger,
	}
}

// HealthCheck reports liveness plus the state of the source pipeline.
func (hs *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    StatusOK,
		Timestamp: time.Now(),
		Version:   hs.version,
		Runtime: map[string]interface{}{
			"uptime_seconds": time.Since(hs.startTime).Seconds(),
			"go_version":     runtime.Version(),
			"goroutines":     runtime.NumGoroutine(),
		},
		Services: map[string]ServiceHealth{
			"sources": hs.checkSources(),
			"exports": hs.checkExports(),
		},
	}

	for _, s := range status.Services {
		if s.Status == StatusNotReady || s.Status == StatusDegraded {
			status.Status = StatusDegraded
			break
		}
	}

	hs.logger.DebugContext(ctx, "Health check completed",
		slog.String("status", status.Status),
		slog.Duration("uptime", time.Since(hs.startTime)))
	return status
}

// ReadinessCheck is ready once the sources were loaded at least once and the
// latest attempt did not fail.
func (hs *HealthService) ReadinessCheck(ctx context.Context) HealthStatus {
	sources := hs.checkSources()
	status := HealthStatus{
		Status:    StatusReady,
		Timestamp: time.Now(),
		Version:   hs.version,
		Services:  map[string]ServiceHealth{"sources": sources},
	}
	if sources.Status != StatusReady {
		status.Status = StatusNotReady
	}
	return status
}

// Version returns version information
func (hs *HealthService) Version() map[string]interface{} {
	result := map[string]interface{}{
		"version":      hs.version,
		"go_version":   runtime.Version(),
		"os":           runtime.GOOS,
		"arch":         runtime.GOARCH,
		"backend":      hs.backend,
		"uptime":       time.Since(hs.startTime).Seconds(),
		"start_time":   hs.startTime.Format(time.RFC3339),
		"current_time": time.Now().Format(time.RFC3339),
		"api_version":  contracts.APIVersion,
		"data_format":  contracts.DataFormatVersion,
		"git_commit":   contracts.GitCommit,
	}
	if hs.buildTime != "" {
		result["build_time"] = hs.buildTime
	}
	return result
}

func (hs *HealthService) checkSources() ServiceHealth {
	if hs.loads == nil {
		return ServiceHealth{Status: StatusNotReady, Message: "report service not initialized"}
	}

	ds, err := hs.loads.LastLoad()
	switch {
	case ds == nil && err == nil:
		return ServiceHealth{Status: StatusPending, Message: fmt.Sprintf("%s sources not loaded yet", hs.backend)}
	case ds == nil:
		return ServiceHealth{Status: StatusNotReady, Message: err.Error()}
	}

	loadedAt := ds.LoadedAt
	h := ServiceHealth{
		Status:   StatusReady,
		Message:  fmt.Sprintf("%d of %d loss files loaded from %s", ds.FilesLoaded, ds.Files, hs.backend),
		Version:  ds.Version,
		LoadedAt: &loadedAt,
	}
	if err != nil {
		// a stale dataset is still served from cache
		h.Status = StatusDegraded
		h.Message = err.Error()
	}
	return h
}

func (hs *HealthService) checkExports() ServiceHealth {
	if hs.exportsDir == "" {
		return ServiceHealth{Status: StatusReady, Message: "exports are streamed only"}
	}
	info, err := os.Stat(hs.exportsDir)
	if err != nil || !info.IsDir() {
		return ServiceHealth{Status: StatusNotReady, Message: fmt.Sprintf("exports directory not found: %s", hs.exportsDir)}
	}
	return ServiceHealth{Status: StatusReady}
}

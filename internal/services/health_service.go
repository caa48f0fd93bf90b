package services

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"licport/internal/store"
)

// HealthService provides health check functionality
type HealthService struct {
	version   string
	store     store.Store
	startTime time.Time
	logger    *slog.Logger
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Runtime   map[string]interface{} `json:"runtime,omitempty"`
	Services  map[string]interface{} `json:"services,omitempty"`
}

// ServiceHealth represents individual service health
type ServiceHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// NewHealthService creates a new health service with injected dependencies
func NewHealthService(version string, st store.Store, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}

	return &HealthService{
		version:   version,
		store:     st,
		startTime: time.Now(),
		logger:    logger,
	}
}

// Check reports overall service health. The store probe decides between
// healthy and degraded; the process itself answering is the liveness part.
func (s *HealthService) Check(ctx context.Context) *HealthStatus {
	status := &HealthStatus{
		Status:    "healthy",
		Timestamp: time.Now(),
		Version:   s.version,
		Runtime: map[string]interface{}{
			"go_version":     runtime.Version(),
			"goroutines":     runtime.NumGoroutine(),
			"uptime_seconds": time.Since(s.startTime).Seconds(),
		},
		Services: map[string]interface{}{},
	}

	storeHealth := ServiceHealth{Status: "healthy"}
	if err := s.store.Ping(ctx); err != nil {
		s.logger.WarnContext(ctx, "store health check failed", slog.String("error", err.Error()))
		storeHealth = ServiceHealth{Status: "unhealthy", Message: err.Error()}
		status.Status = "degraded"
	}
	status.Services["store"] = storeHealth

	return status
}

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
)

func (s *Server) registerHealthRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID:   "healthCheck",
		Method:        http.MethodGet,
		Path:          "/health",
		Summary:       "Health check",
		Description:   "Returns server health status with component checks",
		Tags:          []string{"Health"},
		DefaultStatus: http.StatusOK,
	}, s.handleHealthCheck)
}

// ComponentHealth describes the health of a single component.
type ComponentHealth struct {
	Status  string `json:"status" doc:"Component status: healthy, degraded, or unhealthy"`
	Latency string `json:"latency,omitempty" doc:"Response time for this component"`
	Message string `json:"message,omitempty" doc:"Additional status information"`
}

// HealthResponse contains health check data in API responses.
type HealthResponse struct {
	Status     string                     `json:"status" doc:"Overall status: healthy, degraded, or unhealthy"`
	Components map[string]ComponentHealth `json:"components" doc:"Individual component statuses"`
}

// HealthOutput wraps the health response for Huma.
type HealthOutput struct {
	Status int
	Body   HealthResponse
}

func (s *Server) handleHealthCheck(ctx context.Context, _ *struct{}) (*HealthOutput, error) {
	components := make(map[string]ComponentHealth)
	overall := "healthy"
	status := http.StatusOK

	backend := s.checkBackend(ctx)
	components["backend"] = backend
	if backend.Status != "healthy" {
		overall = "unhealthy"
		status = http.StatusServiceUnavailable
	}

	// The cache only speeds up metadata lookups; losing it degrades.
	cache := s.checkCache()
	components["cache"] = cache
	if cache.Status == "unhealthy" && overall == "healthy" {
		overall = "degraded"
	}

	return &HealthOutput{
		Status: status,
		Body: HealthResponse{
			Status:     overall,
			Components: components,
		},
	}, nil
}

// checkBackend verifies the record store answers.
func (s *Server) checkBackend(ctx context.Context) ComponentHealth {
	if s.store == nil {
		return ComponentHealth{Status: "unhealthy", Message: "backend not configured"}
	}

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	start := time.Now()
	err := s.store.Ping(ctx)
	latency := time.Since(start)

	if err != nil {
		s.logger.Warn("backend health check failed", "error", err)
		return ComponentHealth{
			Status:  "unhealthy",
			Latency: latency.String(),
			Message: "backend unreachable",
		}
	}

	return ComponentHealth{
		Status:  "healthy",
		Latency: latency.String(),
	}
}

// checkCache verifies the metadata cache is open.
func (s *Server) checkCache() ComponentHealth {
	if s.cache == nil {
		return ComponentHealth{Status: "degraded", Message: "cache disabled"}
	}

	start := time.Now()
	if err := s.cache.Ping(); err != nil {
		return ComponentHealth{
			Status:  "unhealthy",
			Latency: time.Since(start).String(),
			Message: err.Error(),
		}
	}

	return ComponentHealth{
		Status:  "healthy",
		Latency: time.Since(start).String(),
	}
}

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/listenupapp/bookstore-server/internal/http/response"
)

// ComponentHealth describes the health of a single component.
type ComponentHealth struct {
	Status  string `json:"status"`
	Latency string `json:"latency,omitempty"`
	Message string `json:"message,omitempty"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status     string                     `json:"status"`
	Components map[string]ComponentHealth `json:"components"`
}

func (s *Server) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	db := s.checkDatabase(r.Context())
	resp := HealthResponse{
		Status:     db.Status,
		Components: map[string]ComponentHealth{"database": db},
	}

	status := http.StatusOK
	if db.Status != "healthy" {
		status = http.StatusServiceUnavailable
	}
	response.JSON(w, status, resp, s.logger)
}

func (s *Server) checkDatabase(ctx context.Context) ComponentHealth {
	if s.db == nil {
		return ComponentHealth{Status: "unhealthy", Message: "database not configured"}
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	start := time.Now()
	if err := s.db.Ping(ctx); err != nil {
		s.logger.WarnContext(ctx, "database health check failed", "error", err)
		return ComponentHealth{Status: "unhealthy", Message: "database unreachable"}
	}
	return ComponentHealth{Status: "healthy", Latency: time.Since(start).String()}
}

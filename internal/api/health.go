package api

import (
	"context"
	"net/http"
	"time"
)

const healthCheckTimeout = 2 * time.Second

type healthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	Database string `json:"database,omitempty"`
}

// handleHealth reports liveness and, when configured, database reachability.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok", Version: s.version}

	if s.database != nil {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		defer cancel()

		if err := s.database.HealthCheck(ctx); err != nil {
			s.logger.Warn("health check failed", "error", err)
			resp.Status = "degraded"
			resp.Database = "unavailable"
			writeJSON(w, http.StatusServiceUnavailable, resp)
			return
		}
		resp.Database = "ok"
	}

	writeJSON(w, http.StatusOK, resp)
}

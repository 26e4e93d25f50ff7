// internal/api/health_handler.go
package api

import (
	"net/http"
)

// handleHealth is degrade-aware: disabled auditing or mock mode are reflected
// in the details but never fail the check.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	dbState := "disabled"
	if s.db != nil {
		dbState = "enabled"
	}
	respondJSON(w, r, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"version": s.cfg.App.Version,
		"details": map[string]interface{}{
			"db":        dbState,
			"mock_mode": s.cfg.GenAI.MockMode,
		},
	})
}

// handleReady reports readiness. The database is probed only when auditing is
// configured; a missing database never blocks readiness.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	dbReady := true
	if s.db != nil {
		if err := s.db.Ping(r.Context()); err != nil {
			dbReady = false
		}
	}
	modelReady := true

	status := http.StatusOK
	if !dbReady {
		status = http.StatusServiceUnavailable
	}
	respondJSON(w, r, status, map[string]interface{}{
		"ready":       dbReady && modelReady,
		"db_ready":    dbReady,
		"model_ready": modelReady,
	})
}

// internal/api/analyze_handler.go
package api

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"credisynth-qaa/internal/common/errors"
	"credisynth-qaa/internal/common/metrics"
	"credisynth-qaa/internal/common/validation"
	"credisynth-qaa/internal/models"
)

const maxBodyBytes = 4 << 20

// handleAnalyze accepts either input format on the same route: raw QSE
// reports run the full narrative pipeline, pre-scored gateway assessments run
// the consolidation pipeline. The shape is sniffed before validation.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	correlationID := correlationIDFrom(r)

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		s.finishAnalyze(w, r, "qse", start, errors.NewValidationError("unable to read request body"))
		return
	}

	var raw map[string]interface{}
	if err := json.Unmarshal(body, &raw); err != nil {
		s.rejectAnalyze(w, r, correlationID, body, "qse", start,
			errors.NewValidationError("request body is not a JSON object: "+err.Error()))
		return
	}

	if models.IsGatewayPayload(raw) {
		s.analyzeGateway(w, r, correlationID, body, start)
		return
	}
	s.analyzeQSE(w, r, correlationID, body, start)
}

func (s *Server) analyzeQSE(w http.ResponseWriter, r *http.Request, correlationID string, body []byte, start time.Time) {
	if err := validation.ValidateQSEInput(body); err != nil {
		s.rejectAnalyze(w, r, correlationID, body, "qse", start, errors.NewValidationError(err.Error()))
		return
	}

	var qse models.QSEReport
	if err := json.Unmarshal(body, &qse); err != nil {
		s.rejectAnalyze(w, r, correlationID, body, "qse", start,
			errors.NewValidationError("decode QSE report: "+err.Error()))
		return
	}

	resp, analysisID, err := s.svc.AnalyzeQSE(r.Context(), &qse, correlationID)
	if err != nil {
		s.logger.Error("analyze failed", map[string]interface{}{
			"analysis_id":    analysisID,
			"correlation_id": correlationID,
			"error":          err.Error(),
		})
		s.finishAnalyze(w, r, "qse", start, err)
		return
	}

	w.Header().Set("X-Analysis-ID", analysisID)
	s.recordAnalyze(r, "qse", "success", start)
	respondJSON(w, r, http.StatusOK, resp)
}

func (s *Server) analyzeGateway(w http.ResponseWriter, r *http.Request, correlationID string, body []byte, start time.Time) {
	if err := validation.ValidateGatewayInput(body); err != nil {
		s.rejectAnalyze(w, r, correlationID, body, "gateway", start, errors.NewValidationError(err.Error()))
		return
	}

	var input models.GatewayAssessmentInput
	if err := json.Unmarshal(body, &input); err != nil {
		s.rejectAnalyze(w, r, correlationID, body, "gateway", start,
			errors.NewValidationError("decode gateway assessment: "+err.Error()))
		return
	}

	resp, analysisID, err := s.svc.AnalyzeGateway(r.Context(), &input, correlationID)
	if err != nil {
		s.finishAnalyze(w, r, "gateway", start, err)
		return
	}

	w.Header().Set("X-Analysis-ID", analysisID)
	s.recordAnalyze(r, "gateway", "success", start)
	respondJSON(w, r, http.StatusOK, resp)
}

// handleGetAnalysis serves a stored audit record by analysis id.
func (s *Server) handleGetAnalysis(w http.ResponseWriter, r *http.Request) {
	analysisID := chi.URLParam(r, "analysis_id")

	rec, err := s.svc.GetAnalysis(r.Context(), analysisID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if rec == nil {
		respondError(w, r, errors.NewAnalysisNotFoundError(analysisID))
		return
	}
	respondJSON(w, r, http.StatusOK, rec)
}

// handleAnalyzeAsync accepts a QSE report for deferred processing and returns
// a tracking payload. The body is validated up front; accepted jobs are
// recorded in the audit trail, execution is left to a future queue worker.
func (s *Server) handleAnalyzeAsync(w http.ResponseWriter, r *http.Request) {
	correlationID := correlationIDFrom(r)

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		respondError(w, r, errors.NewValidationError("unable to read request body"))
		return
	}
	if err := validation.ValidateQSEInput(body); err != nil {
		stdErr := errors.NewValidationError(err.Error())
		s.svc.RecordRejected(r.Context(), correlationID, body, stdErr)
		respondError(w, r, stdErr)
		return
	}

	jobID := s.svc.RecordQueued(r.Context(), correlationID, body)
	respondJSON(w, r, http.StatusAccepted, map[string]interface{}{
		"job_id": jobID,
		"status": "queued",
	})
}

// handleJobStatus reports async job state. Until a queue worker lands, every
// known job is pending.
func (s *Server) handleJobStatus(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, r, http.StatusOK, map[string]interface{}{
		"job_id": chi.URLParam(r, "job_id"),
		"status": "pending",
	})
}

// handleModels lists the configured generative model candidates.
func (s *Server) handleModels(w http.ResponseWriter, r *http.Request) {
	candidates := s.svc.Models()
	active := ""
	if len(candidates) > 0 {
		active = candidates[0]
	}
	respondJSON(w, r, http.StatusOK, map[string]interface{}{
		"active_model": active,
		"candidates":   candidates,
		"last_refresh": nil,
		"health":       "ok",
	})
}

// rejectAnalyze audits a validation rejection and answers 422.
func (s *Server) rejectAnalyze(w http.ResponseWriter, r *http.Request, correlationID string, body []byte, format string, start time.Time, err *errors.StandardError) {
	s.svc.RecordRejected(r.Context(), correlationID, body, err)
	s.finishAnalyze(w, r, format, start, err)
}

func (s *Server) finishAnalyze(w http.ResponseWriter, r *http.Request, format string, start time.Time, err error) {
	s.recordAnalyze(r, format, statusLabel(err), start)
	respondError(w, r, err)
}

func (s *Server) recordAnalyze(r *http.Request, format, status string, start time.Time) {
	elapsed := time.Since(start)
	metrics.AnalyzeRequests.WithLabelValues(status).Inc()
	metrics.ProcessingTime.Observe(elapsed.Seconds())
	if s.obs != nil {
		s.obs.RecordAnalysisProcessed(r.Context(), format, status)
		s.obs.RecordAnalysisDuration(r.Context(), format, elapsed)
	}
}

func statusLabel(err error) string {
	stdErr := errors.AsStandardError(err)
	switch {
	case stdErr.Code == errors.ErrCodeValidationFailed:
		return "validation_error"
	case errors.IsDownstream(err):
		return "downstream_error"
	default:
		return "internal_error"
	}
}

// correlationIDFrom reads the caller-supplied correlation id; empty means the
// service falls back to the payload's correlation_id, then the analysis id.
func correlationIDFrom(r *http.Request) string {
	return r.Header.Get("X-Correlation-ID")
}

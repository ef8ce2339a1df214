package server

import (
	"context"
	"net/http"

	"go.uber.org/zap"
)

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleSummary returns the stored dashboard summary.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.readTimeout)
	defer cancel()

	summary, err := s.summaries.GetSummary(ctx)
	if err != nil {
		s.logger.Error("failed to read summary", zap.Error(err))
		s.errorResponse(w, HTTPStatus(err), "failed to read summary")
		return
	}
	if summary == nil {
		s.errorResponse(w, http.StatusNotFound, "summary has not been computed yet")
		return
	}
	s.jsonResponse(w, http.StatusOK, summary)
}

// handleStatus returns the scheduler state and the outcome of the last run.
func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	if s.status == nil {
		s.errorResponse(w, http.StatusServiceUnavailable, "scheduler is not running")
		return
	}
	s.jsonResponse(w, http.StatusOK, s.status.Status())
}

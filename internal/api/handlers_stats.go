package api

import (
	"net/http"
)

func (s *Server) handleExtractStats(w http.ResponseWriter, r *http.Request) {
	es := s.orchestrator.Stats()
	if es == nil {
		jsonError(w, "extraction stats unavailable", http.StatusServiceUnavailable)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"method":      s.orchestrator.Method(),
		"queue_depth": s.orchestrator.QueueDepth(),
		"stats":       es.Snapshot(),
	})
}

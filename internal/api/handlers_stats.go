package api

import (
	"encoding/json"
	"net/http"
)

func (s *Server) handleModelStats(w http.ResponseWriter, r *http.Request) {
	if s.ranker == nil {
		jsonError(w, "model stats unavailable", http.StatusServiceUnavailable)
		return
	}

	enc, ce := s.ranker.Names()
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"encoder":       enc,
		"cross_encoder": ce,
		"queue_depth":   s.orchestrator.QueueDepth(),
		"stats":         s.ranker.Stats().Snapshot(),
	})
}

package web

import (
	"context"
	"net/http"
	"time"
)

// bannerResponse is the body of GET /api.
type bannerResponse struct {
	Message string `json:"message"`
	Version string `json:"version"`
}

func (s *Server) handleBanner(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, bannerResponse{Message: apiName, Version: apiVersion})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.service.Stats(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, stats)
}

// handleHealth reports whether the store answers a ping within five seconds.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := s.service.Ping(ctx); err != nil {
		writeJSONStatus(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}

	resp := map[string]any{"status": "ok"}
	if l := s.service.Limiter(); l != nil {
		resp["imports_active"] = l.ActiveCount()
		resp["imports_available"] = l.Available()
	}
	writeJSON(w, resp)
}

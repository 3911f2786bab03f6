package httpapi

import (
	"context"
	"net/http"
	"time"
)

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) }

// readyz reports 503 until the backing store answers. Stores without a
// readiness probe (the in-memory one) are always ready.
func (s *Server) readyz(w http.ResponseWriter, r *http.Request) {
	rc, ok := s.repo.(ReadyChecker)
	if !ok {
		w.WriteHeader(http.StatusOK)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 800*time.Millisecond)
	defer cancel()
	if err := rc.Ready(ctx); err != nil {
		writeErr(w, http.StatusServiceUnavailable, "store not ready", "not_ready")
		return
	}
	w.WriteHeader(http.StatusOK)
}

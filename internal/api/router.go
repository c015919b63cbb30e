package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Health check (no auth required)
		r.Get("/health", s.handleHealth)

		// WebSocket. Outside the bearer group: browsers cannot set an
		// Authorization header on the upgrade request, so the handler
		// validates a token query parameter itself.
		r.Get("/ws", s.handleWebSocket)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)

			// Device endpoints
			r.Route("/devices", func(r chi.Router) {
				r.Get("/", s.handleListDevices)
				r.Get("/{id}", s.handleGetDevice)
				r.Get("/{id}/history", s.handleDeviceHistory)
			})

			// Event injection
			r.Post("/events", s.handleInjectEvent)
		})
	})

	return r
}

// handleHealth returns the server health status along with basic
// simulation counters.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":         "ok",
		"version":        s.version,
		"devices":        s.registry.Count(),
		"pending_events": s.engine.Pending(),
		"sim_time":       s.engine.Now().UTC().Format("2006-01-02T15:04:05Z"),
	})
}

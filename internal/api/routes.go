package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter creates a new router with all routes configured
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware (all routes)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(LoggingMiddleware)
	r.Use(middleware.Recoverer)

	// Every route requires the shared ingestion key, including the
	// handshake endpoint.
	r.Route("/contentpulse/v1", func(r chi.Router) {
		r.Use(AuthMiddleware(h.apiKey))
		r.Get("/plugin-info", h.PluginInfo)
		r.Post("/posts", h.UpsertPost)
		r.Get("/posts/{id}", h.ShowPost)
		r.Delete("/posts/{id}", h.DeletePost)
		r.Get("/ingestion/status", h.IngestionStatus)
	})

	return r
}

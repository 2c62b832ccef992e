package server

import "github.com/go-chi/chi/v5"

// SetupRoutes registers the API routes.
func SetupRoutes(router chi.Router, h *Handlers) {
	router.Get("/healthz", h.Health)

	router.Route("/api", func(r chi.Router) {
		r.Get("/dialects", h.Dialects)
		r.Get("/rules", h.Rules)
		r.Get("/events", h.Events)

		r.Post("/parse", h.Parse)
		r.Post("/format", h.Format)
		r.Post("/check", h.Check)
		r.Post("/tokens", h.Tokens)
	})
}

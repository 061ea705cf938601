package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers stress test and buyer routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/stress-tests", func(r chi.Router) {
		r.Get("/templates", h.HandleGetTemplates)
		r.Post("/run", h.HandleRun)
		r.Get("/{id}", h.HandleGetStressTest)
	})

	r.Route("/buyers/{id}", func(r chi.Router) {
		r.Post("/transactions", h.HandleCreateTransaction)
		r.Post("/stress-tests", h.HandleRunForBuyer)
		r.Get("/stress-tests", h.HandleListForBuyer)
	})
}

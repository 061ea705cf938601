package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers rating, supplier and feedstock routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/ratings", func(r chi.Router) {
		r.Post("/calculate", h.HandleCalculate)
		r.Get("/tiers", h.HandleGetTiers)
	})

	r.Route("/suppliers", func(r chi.Router) {
		r.Get("/", h.HandleListSuppliers)
		r.Post("/", h.HandleCreateSupplier)
		r.Get("/{id}", h.HandleGetSupplier)
		r.Put("/{id}/reliability", h.HandlePutReliability)
	})

	r.Route("/feedstocks", func(r chi.Router) {
		r.Get("/", h.HandleListFeedstocks)
		r.Post("/", h.HandleCreateFeedstock)
		r.Post("/rescore", h.HandleRescoreAll)
		r.Get("/{id}", h.HandleGetFeedstock)
		r.Post("/{id}/score", h.HandleScoreFeedstock)
		r.Get("/{id}/certificate", h.HandleGetCertificate)
	})
}

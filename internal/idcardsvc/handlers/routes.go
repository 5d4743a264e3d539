package handlers

import (
	"github.com/go-chi/chi"
	"github.com/go-chi/jwtauth"
)

func (h *Handler) SetRoutes(r *chi.Mux) {
	r.Route("/v1", func(r chi.Router) {

		r.Get("/health", h.HealthHandler)

		r.Route("/virtual-id-cards", func(r chi.Router) {

			// public routes: biometric login flow and existence check
			r.Post("/auth/biometric", h.AuthenticateBiometric)
			r.Post("/auth/verify-token", h.VerifyAuthToken)
			r.Post("/check-user-card", h.CheckUserCard)

			// Secure routes
			r.Group(func(r chi.Router) {
				r.Use(jwtauth.Verifier(h.tokenAuth))
				r.Use(jwtauth.Authenticator)

				r.Post("/", h.CreateCard)
				r.Get("/", h.GetCard)
				r.Put("/", h.UpdateCard)
				r.Delete("/", h.DeleteCard)
				r.Post("/renew", h.RenewCard)
				r.Post("/auth/revoke-token", h.RevokeAuthToken)
				r.Get("/stats", h.CardStats)

				r.Get("/admin/all", h.AdminListCards)
				r.Delete("/admin/{cardID}", h.AdminDeleteCard)
			})
		})
	})
}

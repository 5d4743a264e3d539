package handlers

import (
	"net/http"

	"github.com/go-chi/chi"

	"github.com/veridium/idcard-services/internal/idcardsvc/service"
)

// AdminListCards handles GET /virtual-id-cards/admin/all.
func (h *Handler) AdminListCards(w http.ResponseWriter, r *http.Request) {
	user, err := h.currentUser(r)
	if err != nil {
		h.fail(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	if !h.isAdmin(user) {
		h.fail(w, http.StatusForbidden, "Insufficient access level")
		return
	}

	cards, err := h.cards.AdminList(r.Context())
	if err != nil {
		h.failFromErr(w, err, "Error while listing virtual ID cards")
		return
	}

	h.respond(w, http.StatusOK, struct {
		Success bool                    `json:"success"`
		Cards   []service.AdminCardView `json:"cards"`
		Total   int                     `json:"total"`
	}{Success: true, Cards: cards, Total: len(cards)})
}

// AdminDeleteCard handles DELETE /virtual-id-cards/admin/{cardID}.
func (h *Handler) AdminDeleteCard(w http.ResponseWriter, r *http.Request) {
	user, err := h.currentUser(r)
	if err != nil {
		h.fail(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	if !h.isAdmin(user) {
		h.fail(w, http.StatusForbidden, "Insufficient access level")
		return
	}

	cardID := chi.URLParam(r, "cardID")
	if err := h.cards.AdminDelete(r.Context(), cardID); err != nil {
		h.failFromErr(w, err, "Error while deleting the virtual ID card")
		return
	}

	h.respond(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Virtual ID card deleted successfully",
	})
}

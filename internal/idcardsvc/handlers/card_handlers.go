package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/veridium/idcard-services/internal/idcardsvc/models"
	"github.com/veridium/idcard-services/internal/idcardsvc/service"
)

type createCardRequest struct {
	CardData      models.CardData      `json:"cardData"`
	BiometricData models.BiometricData `json:"biometricData"`
	CardImage     models.CardImage     `json:"cardImage"`
	ForceRecreate bool                 `json:"forceRecreate"`
}

type cardResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message,omitempty"`
	Card    *models.Card `json:"card"`
}

// CreateCard handles POST /virtual-id-cards.
func (h *Handler) CreateCard(w http.ResponseWriter, r *http.Request) {
	user, err := h.currentUser(r)
	if err != nil {
		h.fail(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req createCardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.fail(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}

	card, err := h.cards.Create(r.Context(), user.ID, service.CreateCardInput{
		CardData:      req.CardData,
		BiometricData: req.BiometricData,
		CardImage:     req.CardImage,
		ForceRecreate: req.ForceRecreate,
	})
	if err != nil {
		h.failFromErr(w, err, "Error while creating the virtual ID card")
		return
	}

	h.respond(w, http.StatusCreated, cardResponse{
		Success: true,
		Message: "Virtual ID card created successfully",
		Card:    card,
	})
}

// GetCard handles GET /virtual-id-cards.
func (h *Handler) GetCard(w http.ResponseWriter, r *http.Request) {
	user, err := h.currentUser(r)
	if err != nil {
		h.fail(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	card, err := h.cards.Get(r.Context(), user.ID)
	if err != nil {
		h.failFromErr(w, err, "Error while fetching the virtual ID card")
		return
	}

	h.respond(w, http.StatusOK, cardResponse{Success: true, Card: card})
}

type updateCardRequest struct {
	CardData      *models.CardDataPatch  `json:"cardData"`
	BiometricData *models.BiometricPatch `json:"biometricData"`
}

// UpdateCard handles PUT /virtual-id-cards.
func (h *Handler) UpdateCard(w http.ResponseWriter, r *http.Request) {
	user, err := h.currentUser(r)
	if err != nil {
		h.fail(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req updateCardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.fail(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}

	card, err := h.cards.Update(r.Context(), user.ID, req.CardData, req.BiometricData)
	if err != nil {
		h.failFromErr(w, err, "Error while updating the virtual ID card")
		return
	}

	h.respond(w, http.StatusOK, cardResponse{
		Success: true,
		Message: "Virtual ID card updated successfully",
		Card:    card,
	})
}

// DeleteCard handles DELETE /virtual-id-cards.
func (h *Handler) DeleteCard(w http.ResponseWriter, r *http.Request) {
	user, err := h.currentUser(r)
	if err != nil {
		h.fail(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	if err := h.cards.Delete(r.Context(), user.ID); err != nil {
		h.failFromErr(w, err, "Error while deleting the virtual ID card")
		return
	}

	h.respond(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Virtual ID card deleted successfully",
	})
}

// RenewCard handles POST /virtual-id-cards/renew.
func (h *Handler) RenewCard(w http.ResponseWriter, r *http.Request) {
	user, err := h.currentUser(r)
	if err != nil {
		h.fail(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	card, summary, err := h.renewals.Renew(r.Context(), user.ID)
	if err != nil {
		h.failFromErr(w, err, "Error while renewing the virtual ID card")
		return
	}

	h.respond(w, http.StatusOK, struct {
		Success bool                    `json:"success"`
		Message string                  `json:"message"`
		Card    *models.Card            `json:"card"`
		Renewal *service.RenewalSummary `json:"renewal"`
	}{
		Success: true,
		Message: "Virtual ID card renewed successfully",
		Card:    card,
		Renewal: summary,
	})
}

// CardStats handles GET /virtual-id-cards/stats.
func (h *Handler) CardStats(w http.ResponseWriter, r *http.Request) {
	user, err := h.currentUser(r)
	if err != nil {
		h.fail(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	stats, err := h.cards.Stats(r.Context(), user.ID)
	if err != nil {
		h.failFromErr(w, err, "Error while fetching card statistics")
		return
	}

	h.respond(w, http.StatusOK, struct {
		Success bool               `json:"success"`
		Stats   *service.CardStats `json:"stats"`
	}{Success: true, Stats: stats})
}

type checkUserCardRequest struct {
	Email string `json:"email"`
}

// CheckUserCard handles POST /virtual-id-cards/check-user-card. Public
// route: it only ever reveals existence, identifier and display name of a
// verified, active card.
func (h *Handler) CheckUserCard(w http.ResponseWriter, r *http.Request) {
	var req checkUserCardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
		h.fail(w, http.StatusBadRequest, "Email required")
		return
	}

	check, err := h.cards.PublicLookup(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			h.fail(w, http.StatusNotFound, "User not found")
			return
		}
		h.failFromErr(w, err, "Error while checking the user card")
		return
	}

	message := "Virtual ID card found"
	if !check.HasCard {
		message = "No virtual ID card found for this user"
	}

	h.respond(w, http.StatusOK, struct {
		Success  bool   `json:"success"`
		HasCard  bool   `json:"hasCard"`
		CardID   string `json:"cardId,omitempty"`
		UserName string `json:"userName,omitempty"`
		Message  string `json:"message"`
	}{
		Success:  true,
		HasCard:  check.HasCard,
		CardID:   check.CardID,
		UserName: check.UserName,
		Message:  message,
	})
}

package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/veridium/idcard-services/internal/idcardsvc/models"
	"github.com/veridium/idcard-services/internal/idcardsvc/service"
)

type biometricAuthRequest struct {
	BiometricType models.Modality `json:"biometricType"`
	BiometricData string          `json:"biometricData"`
	DeviceID      string          `json:"deviceId"`
}

// AuthenticateBiometric handles POST /virtual-id-cards/auth/biometric.
// Public route: match failures collapse into one undifferentiated 401.
func (h *Handler) AuthenticateBiometric(w http.ResponseWriter, r *http.Request) {
	var req biometricAuthRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.fail(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}
	if req.BiometricType == "" || req.BiometricData == "" {
		h.fail(w, http.StatusBadRequest, "Biometric type and data required")
		return
	}

	result, err := h.credentials.Authenticate(r.Context(), req.BiometricType, req.BiometricData, req.DeviceID)
	if err != nil {
		h.failFromErr(w, err, "Error during biometric authentication")
		return
	}

	h.respond(w, http.StatusOK, struct {
		Success   bool                `json:"success"`
		Message   string              `json:"message"`
		AuthToken string              `json:"authToken"`
		ExpiresAt time.Time           `json:"expiresAt"`
		User      service.UserProfile `json:"user"`
		CardData  service.CardSummary `json:"cardData"`
	}{
		Success:   true,
		Message:   "Biometric authentication successful",
		AuthToken: result.Token,
		ExpiresAt: result.ExpiresAt,
		User:      result.User,
		CardData:  result.Card,
	})
}

type tokenRequest struct {
	Token string `json:"token"`
}

// VerifyAuthToken handles POST /virtual-id-cards/auth/verify-token. It
// promotes a short-lived credential into session credentials without
// consuming it.
func (h *Handler) VerifyAuthToken(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Token == "" {
		h.fail(w, http.StatusBadRequest, "Token required")
		return
	}

	tokens, err := h.sessions.Promote(r.Context(), req.Token)
	if err != nil {
		h.failFromErr(w, err, "Error while verifying the token")
		return
	}

	h.respond(w, http.StatusOK, struct {
		Success       bool            `json:"success"`
		Message       string          `json:"message"`
		AccessToken   string          `json:"accessToken"`
		RefreshToken  string          `json:"refreshToken"`
		BiometricType models.Modality `json:"biometricType"`
	}{
		Success:       true,
		Message:       "Token verified successfully",
		AccessToken:   tokens.AccessToken,
		RefreshToken:  tokens.RefreshToken,
		BiometricType: tokens.BiometricType,
	})
}

// RevokeAuthToken handles POST /virtual-id-cards/auth/revoke-token.
func (h *Handler) RevokeAuthToken(w http.ResponseWriter, r *http.Request) {
	user, err := h.currentUser(r)
	if err != nil {
		h.fail(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req tokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Token == "" {
		h.fail(w, http.StatusBadRequest, "Token required")
		return
	}

	if err := h.sessions.Revoke(r.Context(), user.ID, req.Token); err != nil {
		h.failFromErr(w, err, "Error while revoking the token")
		return
	}

	h.respond(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Token revoked successfully",
	})
}

package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"

	"github.com/go-chi/jwtauth"
	log "github.com/sirupsen/logrus"

	"github.com/veridium/idcard-services/internal/idcardsvc/service"
)

type Handler struct {
	tokenAuth   *jwtauth.JWTAuth
	cards       *service.CardService
	credentials *service.CredentialService
	sessions    *service.SessionService
	renewals    *service.RenewalService
	adminEmail  string
}

func NewHandler(tokenAuth *jwtauth.JWTAuth, cards *service.CardService,
	credentials *service.CredentialService, sessions *service.SessionService,
	renewals *service.RenewalService, adminEmail string) *Handler {
	return &Handler{
		tokenAuth:   tokenAuth,
		cards:       cards,
		credentials: credentials,
		sessions:    sessions,
		renewals:    renewals,
		adminEmail:  adminEmail,
	}
}

func (h *Handler) respond(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(payload)
}

type errorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

func (h *Handler) fail(w http.ResponseWriter, code int, message string) {
	h.respond(w, code, errorResponse{Success: false, Message: message})
}

// failFromErr maps a service error onto the HTTP contract. Unrecognized
// errors are logged and surfaced as a generic message plus the error text.
func (h *Handler) failFromErr(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		h.fail(w, http.StatusBadRequest, "Incomplete or invalid card data")
	case errors.Is(err, service.ErrAlreadyExists):
		h.fail(w, http.StatusBadRequest, "You already have a virtual ID card")
	case errors.Is(err, service.ErrDuplicateIdentifier):
		h.fail(w, http.StatusBadRequest, "This identity number is already used by another user")
	case errors.Is(err, service.ErrAuthenticationFailed):
		h.fail(w, http.StatusUnauthorized, "Biometric authentication failed")
	case errors.Is(err, service.ErrInvalidToken):
		h.fail(w, http.StatusUnauthorized, "Invalid or expired token")
	case errors.Is(err, service.ErrNotFound):
		h.fail(w, http.StatusNotFound, "Virtual ID card not found")
	default:
		log.Errorf("%s: %s", fallback, err)
		h.respond(w, http.StatusInternalServerError, errorResponse{
			Success: false,
			Message: fallback,
			Error:   err.Error(),
		})
	}
}

// authUser is the bearer-gate projection of the caller.
type authUser struct {
	ID          int64
	AccessLevel int
	Email       string
}

// currentUser reads the verified JWT claims set by the jwtauth middleware.
func (h *Handler) currentUser(r *http.Request) (*authUser, error) {
	_, claims, err := jwtauth.FromContext(r.Context())
	if err != nil {
		return nil, err
	}

	id, ok := claimInt64(claims["user_id"])
	if !ok {
		return nil, errors.New("token has no user_id claim")
	}

	u := &authUser{ID: id}
	if lvl, ok := claimInt64(claims["access_level"]); ok {
		u.AccessLevel = int(lvl)
	}
	if email, ok := claims["email"].(string); ok {
		u.Email = email
	}
	return u, nil
}

// claimInt64 normalizes the numeric representations a decoded JWT claim can
// take.
func claimInt64(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case float64:
		return int64(n), true
	case int64:
		return n, true
	case int:
		return int64(n), true
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	}
	return 0, false
}

// isAdmin reports whether the caller may use the admin surface.
func (h *Handler) isAdmin(u *authUser) bool {
	if u.AccessLevel >= 2 {
		return true
	}
	return h.adminEmail != "" && u.Email == h.adminEmail
}

func (h *Handler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	h.respond(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "idcard service is running at port " + os.Getenv("IDCARD_SERVICE_PORT"),
	})
}

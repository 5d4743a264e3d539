package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-chi/jwtauth"
	log "github.com/sirupsen/logrus"

	"github.com/veridium/idcard-services/internal/idcardsvc/models"
)

// Session credential lifetimes.
const (
	accessTokenTTL  = 7 * 24 * time.Hour
	refreshTokenTTL = 30 * 24 * time.Hour
)

// SessionService exchanges a valid short-lived credential for long-lived
// signed session credentials, and revokes credentials on request.
type SessionService struct {
	cards       CardRepository
	accessAuth  *jwtauth.JWTAuth
	refreshAuth *jwtauth.JWTAuth
	now         func() time.Time
}

func NewSessionService(cards CardRepository, accessAuth, refreshAuth *jwtauth.JWTAuth) *SessionService {
	return &SessionService{
		cards:       cards,
		accessAuth:  accessAuth,
		refreshAuth: refreshAuth,
		now:         time.Now,
	}
}

// SessionTokens are the signed credentials handed out on promotion.
type SessionTokens struct {
	AccessToken   string          `json:"accessToken"`
	RefreshToken  string          `json:"refreshToken"`
	BiometricType models.Modality `json:"biometricType"`
}

// Promote exchanges an active, unexpired credential for an access/refresh
// JWT pair bound to the card's owner. The credential itself stays usable
// until its own expiry or explicit revocation.
func (s *SessionService) Promote(ctx context.Context, token string) (*SessionTokens, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}

	now := s.now()
	card, err := s.cards.FindByActiveToken(ctx, token, now)
	if err != nil {
		return nil, err
	}
	if card == nil {
		return nil, ErrInvalidToken
	}

	var credential *models.Credential
	for i := range card.AuthenticationTokens {
		t := &card.AuthenticationTokens[i]
		if t.Token == token && t.Usable(now) {
			credential = t
			break
		}
	}
	if credential == nil {
		return nil, ErrInvalidToken
	}

	_, accessToken, err := s.accessAuth.Encode(map[string]interface{}{
		"user_id":        card.UserID,
		"biometric_auth": true,
		"exp":            now.Add(accessTokenTTL).Unix(),
	})
	if err != nil {
		return nil, fmt.Errorf("unable to sign access token: %w", err)
	}

	_, refreshToken, err := s.refreshAuth.Encode(map[string]interface{}{
		"user_id": card.UserID,
		"exp":     now.Add(refreshTokenTTL).Unix(),
	})
	if err != nil {
		return nil, fmt.Errorf("unable to sign refresh token: %w", err)
	}

	log.Infof("session credentials issued for user %d via %s", card.UserID, credential.BiometricType)

	return &SessionTokens{
		AccessToken:   accessToken,
		RefreshToken:  refreshToken,
		BiometricType: credential.BiometricType,
	}, nil
}

// Revoke deactivates a credential located by exact token match within the
// caller's own card only. Expired or already inactive credentials can still
// be revoked, so repeated revokes behave identically.
func (s *SessionService) Revoke(ctx context.Context, ownerID int64, token string) error {
	card, err := s.cards.FindByOwner(ctx, ownerID)
	if err != nil {
		return err
	}
	if card == nil {
		return ErrNotFound
	}

	found := false
	for i := range card.AuthenticationTokens {
		if card.AuthenticationTokens[i].Token == token {
			card.AuthenticationTokens[i].IsActive = false
			found = true
			break
		}
	}
	if !found {
		return ErrNotFound
	}

	card.UpdatedAt = s.now()
	return s.cards.Replace(ctx, card)
}

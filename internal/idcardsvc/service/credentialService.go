package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/veridium/idcard-services/internal/idcardsvc/models"
	"github.com/veridium/idcard-services/internal/idcardsvc/notify"
)

// credentialTTL is the fixed lifetime of a short-lived credential.
const credentialTTL = 15 * time.Minute

// CredentialService matches biometric samples against stored cards and
// mints the short-lived credentials used for session promotion.
type CredentialService struct {
	cards    CardRepository
	users    UserRepository
	notifier *notify.Notifier
	now      func() time.Time
}

func NewCredentialService(cards CardRepository, users UserRepository, notifier *notify.Notifier) *CredentialService {
	return &CredentialService{
		cards:    cards,
		users:    users,
		notifier: notifier,
		now:      time.Now,
	}
}

// UserProfile is the owner projection returned with a fresh credential.
type UserProfile struct {
	ID     int64  `json:"_id"`
	Name   string `json:"name"`
	Email  string `json:"email,omitempty"`
	Avatar string `json:"avatar,omitempty"`
}

// CardSummary is the minimal card projection returned with a fresh credential.
type CardSummary struct {
	IDNumber  string `json:"idNumber"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// AuthResult is the outcome of a successful biometric match.
type AuthResult struct {
	Token     string      `json:"authToken"`
	ExpiresAt time.Time   `json:"expiresAt"`
	User      UserProfile `json:"user"`
	Card      CardSummary `json:"cardData"`
}

// Authenticate matches the sample against the unique active, verified card
// holding it for the modality, then mints a fresh credential. Every failure
// collapses to ErrAuthenticationFailed so callers cannot probe which
// modality, sample or card exists.
func (s *CredentialService) Authenticate(ctx context.Context, modality models.Modality, sample, deviceID string) (*AuthResult, error) {
	if !modality.Valid() || sample == "" {
		return nil, ErrAuthenticationFailed
	}

	card, err := s.cards.FindByBiometric(ctx, modality, sample)
	if err != nil {
		return nil, err
	}
	if card == nil {
		return nil, ErrAuthenticationFailed
	}

	token, err := newAuthToken()
	if err != nil {
		return nil, err
	}

	now := s.now()
	credential := models.Credential{
		Token:         token,
		DeviceID:      deviceID,
		BiometricType: modality,
		IssuedAt:      now,
		ExpiresAt:     now.Add(credentialTTL),
		IsActive:      true,
	}

	// Prune first so dead credentials leave with this write, then append.
	card.PruneCredentials(now)
	card.AuthenticationTokens = append(card.AuthenticationTokens, credential)
	card.UsageCount++
	card.LastUsed = &now
	card.UpdatedAt = now

	if err := s.cards.Replace(ctx, card); err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, card.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("card %s references missing user %d", card.ID.Hex(), card.UserID)
	}

	log.Infof("biometric authentication succeeded for user %d via %s", card.UserID, modality)
	s.notifier.BiometricLogin(card.UserID, modality, deviceID)

	return &AuthResult{
		Token:     credential.Token,
		ExpiresAt: credential.ExpiresAt,
		User: UserProfile{
			ID:     user.UserId,
			Name:   user.Name,
			Email:  user.Email,
			Avatar: user.Avatar,
		},
		Card: CardSummary{
			IDNumber:  card.CardData.IDNumber,
			FirstName: card.CardData.FirstName,
			LastName:  card.CardData.LastName,
		},
	}, nil
}

// newAuthToken returns a hex-encoded 256-bit random token.
func newAuthToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("unable to generate auth token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

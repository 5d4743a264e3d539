package service

import (
	"context"
	"errors"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/veridium/idcard-services/internal/idcardsvc/media"
	"github.com/veridium/idcard-services/internal/idcardsvc/models"
	"github.com/veridium/idcard-services/internal/idcardsvc/store"
)

// Defaults applied when optional card fields are missing on creation.
// Defaulting is a documented convenience, not inference.
const (
	defaultGender       = "M"
	defaultPlaceOfBirth = "Not specified"
	defaultNationality  = "Not specified"
	defaultAddress      = "Address not provided"
	defaultCardValidity = 10 * 365 * 24 * time.Hour
)

var defaultDateOfBirth = time.Date(1990, time.January, 1, 0, 0, 0, 0, time.UTC)

// CardService is the card store layer: creation, reads with usage
// accounting, partial updates, deletion and the public/admin projections.
type CardService struct {
	cards CardRepository
	users UserRepository
	media media.Store
	now   func() time.Time
}

func NewCardService(cards CardRepository, users UserRepository, mediaStore media.Store) *CardService {
	return &CardService{
		cards: cards,
		users: users,
		media: mediaStore,
		now:   time.Now,
	}
}

// CreateCardInput carries the creation payload. Zero-valued optional fields
// are filled with defaults.
type CreateCardInput struct {
	CardData      models.CardData
	BiometricData models.BiometricData
	CardImage     models.CardImage
	ForceRecreate bool
}

// Create persists a new card for the owner. An existing card fails the call
// unless ForceRecreate is set, in which case the old card and its media go
// first. The returned card is auto-verified and active.
func (s *CardService) Create(ctx context.Context, ownerID int64, in CreateCardInput) (*models.Card, error) {
	existing, err := s.cards.FindByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if !in.ForceRecreate {
			return nil, ErrAlreadyExists
		}
		s.deleteCardMedia(ctx, existing)
		if err := s.cards.DeleteByOwner(ctx, ownerID); err != nil {
			return nil, err
		}
	}

	if in.CardData.FirstName == "" || in.CardData.IDNumber == "" {
		return nil, ErrInvalidInput
	}

	// Advisory uniqueness check; the unique index on the collection is the
	// backstop when two creations race on the same identifier.
	clash, err := s.cards.FindByIdentifier(ctx, in.CardData.IDNumber, ownerID)
	if err != nil {
		return nil, err
	}
	if clash != nil {
		return nil, ErrDuplicateIdentifier
	}

	now := s.now()
	data := in.CardData
	if data.DateOfBirth.IsZero() {
		data.DateOfBirth = defaultDateOfBirth
	}
	if data.PlaceOfBirth == "" {
		data.PlaceOfBirth = defaultPlaceOfBirth
	}
	if data.Nationality == "" {
		data.Nationality = defaultNationality
	}
	if data.Address == "" {
		data.Address = defaultAddress
	}
	if data.Gender == "" {
		data.Gender = defaultGender
	}
	if data.IssueDate.IsZero() {
		data.IssueDate = now
	}
	if data.ExpiryDate.IsZero() {
		data.ExpiryDate = data.IssueDate.Add(defaultCardValidity)
	}

	card := &models.Card{
		UserID:               ownerID,
		CardData:             data,
		BiometricData:        in.BiometricData,
		CardImage:            in.CardImage,
		AuthenticationTokens: []models.Credential{},
		VerificationStatus:   models.StatusVerified,
		IsActive:             true,
		CreatedAt:            now,
		UpdatedAt:            now,
	}

	if err := s.cards.Insert(ctx, card); err != nil {
		if errors.Is(err, store.ErrDuplicateKey) {
			return nil, ErrDuplicateIdentifier
		}
		return nil, err
	}

	log.Infof("virtual id card created for user %d", ownerID)
	return card, nil
}

// Get returns the owner's card and bumps the usage counters.
func (s *CardService) Get(ctx context.Context, ownerID int64) (*models.Card, error) {
	card, err := s.cards.FindByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if card == nil {
		return nil, ErrNotFound
	}

	now := s.now()
	card.UsageCount++
	card.LastUsed = &now
	card.UpdatedAt = now
	if err := s.cards.Replace(ctx, card); err != nil {
		return nil, err
	}
	return card, nil
}

// Update merges the provided patches over the stored card. Nil patch fields
// never null out existing values. A biometric patch stamps
// LastBiometricUpdate.
func (s *CardService) Update(ctx context.Context, ownerID int64, data *models.CardDataPatch, biometrics *models.BiometricPatch) (*models.Card, error) {
	card, err := s.cards.FindByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if card == nil {
		return nil, ErrNotFound
	}

	now := s.now()
	data.Apply(&card.CardData)
	biometrics.Apply(&card.BiometricData, now)
	card.UpdatedAt = now

	if err := s.cards.Replace(ctx, card); err != nil {
		return nil, err
	}
	return card, nil
}

// Delete removes the owner's card after best-effort deletion of its media.
func (s *CardService) Delete(ctx context.Context, ownerID int64) error {
	card, err := s.cards.FindByOwner(ctx, ownerID)
	if err != nil {
		return err
	}
	if card == nil {
		return ErrNotFound
	}

	s.deleteCardMedia(ctx, card)
	return s.cards.DeleteByOwner(ctx, ownerID)
}

// deleteCardMedia removes externally stored card images. Each slot fails
// independently; a failed delete is logged and never blocks record removal.
func (s *CardService) deleteCardMedia(ctx context.Context, card *models.Card) {
	if s.media == nil {
		return
	}
	for _, publicID := range []string{card.CardImage.FrontImagePublicID, card.CardImage.BackImagePublicID} {
		if publicID == "" {
			continue
		}
		if err := s.media.Delete(ctx, publicID); err != nil {
			log.Warnf("unable to delete card media %s for user %d: %s", publicID, card.UserID, err)
		}
	}
}

// PublicCardCheck is the existence projection returned by the public lookup.
// It never carries personal fields beyond the identifier and display name.
type PublicCardCheck struct {
	HasCard  bool   `json:"hasCard"`
	CardID   string `json:"cardId,omitempty"`
	UserName string `json:"userName,omitempty"`
}

// PublicLookup resolves an account by email and reports whether a verified,
// active card exists for it.
func (s *CardService) PublicLookup(ctx context.Context, email string) (*PublicCardCheck, error) {
	if email == "" {
		return nil, ErrInvalidInput
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotFound
	}

	card, err := s.cards.FindByOwner(ctx, user.UserId)
	if err != nil {
		return nil, err
	}
	if card == nil || !card.IsActive || card.VerificationStatus != models.StatusVerified {
		return &PublicCardCheck{HasCard: false}, nil
	}

	return &PublicCardCheck{
		HasCard:  true,
		CardID:   card.CardData.IDNumber,
		UserName: user.Name,
	}, nil
}

// CardStats is the usage-accounting projection for the owner.
type CardStats struct {
	UsageCount         int64                   `json:"usageCount"`
	LastUsed           *time.Time              `json:"lastUsed,omitempty"`
	ActiveTokens       int                     `json:"activeTokens"`
	TotalTokens        int                     `json:"totalTokens"`
	BiometricStats     map[models.Modality]int `json:"biometricStats"`
	VerificationStatus string                  `json:"verificationStatus"`
	CreatedAt          time.Time               `json:"createdAt"`
}

// Stats reports usage counters and per-modality credential counts.
func (s *CardService) Stats(ctx context.Context, ownerID int64) (*CardStats, error) {
	card, err := s.cards.FindByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if card == nil {
		return nil, ErrNotFound
	}

	now := s.now()
	perModality := map[models.Modality]int{}
	for _, t := range card.AuthenticationTokens {
		perModality[t.BiometricType]++
	}

	return &CardStats{
		UsageCount:         card.UsageCount,
		LastUsed:           card.LastUsed,
		ActiveTokens:       card.ActiveCredentialCount(now),
		TotalTokens:        len(card.AuthenticationTokens),
		BiometricStats:     perModality,
		VerificationStatus: card.VerificationStatus,
		CreatedAt:          card.CreatedAt,
	}, nil
}

// AdminCardView is the admin list projection: owner info plus biometric
// presence flags, never the raw samples.
type AdminCardView struct {
	ID                  string          `json:"_id"`
	UserID              int64           `json:"userId"`
	UserName            string          `json:"userName,omitempty"`
	UserEmail           string          `json:"userEmail,omitempty"`
	UserAvatar          string          `json:"userAvatar,omitempty"`
	UserAccessLevel     int             `json:"userAccessLevel"`
	CardData            models.CardData `json:"cardData"`
	HasFingerprint      bool            `json:"hasFingerprint"`
	HasFaceData         bool            `json:"hasFaceData"`
	HasIrisData         bool            `json:"hasIrisData"`
	HasVoiceData        bool            `json:"hasVoiceData"`
	LastBiometricUpdate *time.Time      `json:"lastBiometricUpdate,omitempty"`
	VerificationStatus  string          `json:"verificationStatus"`
	IsActive            bool            `json:"isActive"`
	UsageCount          int64           `json:"usageCount"`
	LastUsed            *time.Time      `json:"lastUsed,omitempty"`
	CreatedAt           time.Time       `json:"createdAt"`
	UpdatedAt           time.Time       `json:"updatedAt"`
	ActiveTokensCount   int             `json:"activeTokensCount"`
}

// AdminList returns every card joined with its owner projection.
func (s *CardService) AdminList(ctx context.Context) ([]AdminCardView, error) {
	cards, err := s.cards.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	views := make([]AdminCardView, 0, len(cards))
	for _, card := range cards {
		view := AdminCardView{
			ID:                  card.ID.Hex(),
			UserID:              card.UserID,
			CardData:            card.CardData,
			HasFingerprint:      card.BiometricData.FingerprintHash != "",
			HasFaceData:         card.BiometricData.FaceData != "",
			HasIrisData:         card.BiometricData.IrisData != "",
			HasVoiceData:        card.BiometricData.VoiceData != "",
			LastBiometricUpdate: card.BiometricData.LastBiometricUpdate,
			VerificationStatus:  card.VerificationStatus,
			IsActive:            card.IsActive,
			UsageCount:          card.UsageCount,
			LastUsed:            card.LastUsed,
			CreatedAt:           card.CreatedAt,
			UpdatedAt:           card.UpdatedAt,
			ActiveTokensCount:   card.ActiveCredentialCount(now),
		}

		user, err := s.users.GetByID(ctx, card.UserID)
		if err != nil {
			log.Warnf("unable to load owner %d for admin card list: %s", card.UserID, err)
		} else if user != nil {
			view.UserName = user.Name
			view.UserEmail = user.Email
			view.UserAvatar = user.Avatar
			view.UserAccessLevel = user.AccessLevel
		}

		views = append(views, view)
	}
	return views, nil
}

// AdminDelete force-deletes any card by record id, cascading its media.
func (s *CardService) AdminDelete(ctx context.Context, cardID string) error {
	card, err := s.cards.FindByID(ctx, cardID)
	if err != nil {
		return err
	}
	if card == nil {
		return ErrNotFound
	}

	s.deleteCardMedia(ctx, card)
	return s.cards.DeleteByID(ctx, cardID)
}

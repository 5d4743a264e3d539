package service

import (
	"context"
	"time"

	"github.com/veridium/idcard-services/internal/idcardsvc/models"
)

// CardRepository is the persistence surface the card services run against.
// The Mongo store implements it; tests use an in-memory fake.
type CardRepository interface {
	Insert(ctx context.Context, card *models.Card) error
	Replace(ctx context.Context, card *models.Card) error
	FindByOwner(ctx context.Context, ownerID int64) (*models.Card, error)
	FindByID(ctx context.Context, id string) (*models.Card, error)
	FindByIdentifier(ctx context.Context, idNumber string, excludeOwnerID int64) (*models.Card, error)
	FindByBiometric(ctx context.Context, modality models.Modality, sample string) (*models.Card, error)
	FindByActiveToken(ctx context.Context, token string, now time.Time) (*models.Card, error)
	DeleteByOwner(ctx context.Context, ownerID int64) error
	DeleteByID(ctx context.Context, id string) error
	ListAll(ctx context.Context) ([]*models.Card, error)
}

// UserRepository reads account records owned by the account service.
type UserRepository interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

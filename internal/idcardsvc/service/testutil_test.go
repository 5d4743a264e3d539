package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/veridium/idcard-services/internal/idcardsvc/models"
	"github.com/veridium/idcard-services/internal/idcardsvc/store"
)

// fakeCardRepo is an in-memory CardRepository that mirrors the Mongo store's
// behavior: nil on miss, ErrDuplicateKey on unique-index violations, and
// value semantics for reads so callers mutate copies until Replace.
type fakeCardRepo struct {
	mu    sync.Mutex
	cards map[string]*models.Card
}

func newFakeCardRepo() *fakeCardRepo {
	return &fakeCardRepo{cards: make(map[string]*models.Card)}
}

func cloneCard(c *models.Card) *models.Card {
	cp := *c
	cp.AuthenticationTokens = append([]models.Credential(nil), c.AuthenticationTokens...)
	if c.LastUsed != nil {
		t := *c.LastUsed
		cp.LastUsed = &t
	}
	if c.BiometricData.LastBiometricUpdate != nil {
		t := *c.BiometricData.LastBiometricUpdate
		cp.BiometricData.LastBiometricUpdate = &t
	}
	return &cp
}

func (f *fakeCardRepo) Insert(_ context.Context, card *models.Card) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, existing := range f.cards {
		if existing.UserID == card.UserID || existing.CardData.IDNumber == card.CardData.IDNumber {
			return store.ErrDuplicateKey
		}
	}
	if card.ID.IsZero() {
		card.ID = primitive.NewObjectID()
	}
	f.cards[card.ID.Hex()] = cloneCard(card)
	return nil
}

func (f *fakeCardRepo) Replace(_ context.Context, card *models.Card) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for id, existing := range f.cards {
		if id != card.ID.Hex() && existing.CardData.IDNumber == card.CardData.IDNumber {
			return store.ErrDuplicateKey
		}
	}
	f.cards[card.ID.Hex()] = cloneCard(card)
	return nil
}

func (f *fakeCardRepo) find(match func(*models.Card) bool) *models.Card {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.cards {
		if match(c) {
			return cloneCard(c)
		}
	}
	return nil
}

func (f *fakeCardRepo) FindByOwner(_ context.Context, ownerID int64) (*models.Card, error) {
	return f.find(func(c *models.Card) bool { return c.UserID == ownerID }), nil
}

func (f *fakeCardRepo) FindByID(_ context.Context, id string) (*models.Card, error) {
	return f.find(func(c *models.Card) bool { return c.ID.Hex() == id }), nil
}

func (f *fakeCardRepo) FindByIdentifier(_ context.Context, idNumber string, excludeOwnerID int64) (*models.Card, error) {
	return f.find(func(c *models.Card) bool {
		return c.CardData.IDNumber == idNumber && c.UserID != excludeOwnerID
	}), nil
}

func (f *fakeCardRepo) FindByBiometric(_ context.Context, modality models.Modality, sample string) (*models.Card, error) {
	if !modality.Valid() {
		return nil, nil
	}
	return f.find(func(c *models.Card) bool {
		return c.IsActive &&
			c.VerificationStatus == models.StatusVerified &&
			c.BiometricData.Value(modality) != "" &&
			c.BiometricData.Value(modality) == sample
	}), nil
}

func (f *fakeCardRepo) FindByActiveToken(_ context.Context, token string, now time.Time) (*models.Card, error) {
	return f.find(func(c *models.Card) bool {
		for _, t := range c.AuthenticationTokens {
			if t.Token == token && t.Usable(now) {
				return true
			}
		}
		return false
	}), nil
}

func (f *fakeCardRepo) DeleteByOwner(_ context.Context, ownerID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, c := range f.cards {
		if c.UserID == ownerID {
			delete(f.cards, id)
		}
	}
	return nil
}

func (f *fakeCardRepo) DeleteByID(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.cards, id)
	return nil
}

func (f *fakeCardRepo) ListAll(_ context.Context) ([]*models.Card, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Card
	for _, c := range f.cards {
		out = append(out, cloneCard(c))
	}
	return out, nil
}

// fakeUserRepo is an in-memory UserRepository.
type fakeUserRepo struct {
	users map[int64]*models.User
}

func newFakeUserRepo(users ...*models.User) *fakeUserRepo {
	f := &fakeUserRepo{users: make(map[int64]*models.User)}
	for _, u := range users {
		f.users[u.UserId] = u
	}
	return f
}

func (f *fakeUserRepo) GetByID(_ context.Context, id int64) (*models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	for _, u := range f.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

// fakeMedia records deletions and can fail selected public ids.
type fakeMedia struct {
	mu      sync.Mutex
	deleted []string
	failing map[string]error
}

func (f *fakeMedia) Delete(_ context.Context, publicID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.failing[publicID]; ok {
		return err
	}
	f.deleted = append(f.deleted, publicID)
	return nil
}

// fixedNow pins a service clock for deterministic expiry checks.
func fixedNow(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

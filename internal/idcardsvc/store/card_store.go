package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/veridium/idcard-services/internal/idcardsvc/models"
)

// ErrDuplicateKey is returned when a write violates one of the unique
// indexes on the cards collection. The index is the real backstop for
// concurrent creations, the in-request uniqueness check is only advisory.
var ErrDuplicateKey = errors.New("duplicate key")

const cardCollection = "virtual_id_cards"

// biometricFields maps a modality to the document path queried on
// authentication.
var biometricFields = map[models.Modality]string{
	models.ModalityFingerprint: "biometric_data.fingerprint_hash",
	models.ModalityFace:        "biometric_data.face_data",
	models.ModalityIris:        "biometric_data.iris_data",
	models.ModalityVoice:       "biometric_data.voice_data",
}

type CardStore struct {
	coll *mongo.Collection
}

func NewCardStore(db *mongo.Database) *CardStore {
	return &CardStore{coll: db.Collection(cardCollection)}
}

// EnsureIndexes creates the unique indexes the card invariants rely on:
// one card per owner and a globally unique public identifier. The token
// index keeps promotion lookups from scanning the collection.
func (s *CardStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "card_data.id_number", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "authentication_tokens.token", Value: 1}},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create card indexes: %w", err)
	}
	return nil
}

func (s *CardStore) Insert(ctx context.Context, card *models.Card) error {
	if card.ID.IsZero() {
		card.ID = primitive.NewObjectID()
	}
	_, err := s.coll.InsertOne(ctx, card)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("failed to insert card: %w", err)
	}
	return nil
}

// Replace writes the whole card document back. The credential list is part
// of the document, so credential mutations ride on the same write.
func (s *CardStore) Replace(ctx context.Context, card *models.Card) error {
	res, err := s.coll.ReplaceOne(ctx, bson.M{"_id": card.ID}, card)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("failed to replace card: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("failed to replace card: no document for id %s", card.ID.Hex())
	}
	return nil
}

func (s *CardStore) findOne(ctx context.Context, filter bson.M) (*models.Card, error) {
	var card models.Card
	err := s.coll.FindOne(ctx, filter).Decode(&card)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find card: %w", err)
	}
	return &card, nil
}

func (s *CardStore) FindByOwner(ctx context.Context, ownerID int64) (*models.Card, error) {
	return s.findOne(ctx, bson.M{"user_id": ownerID})
}

func (s *CardStore) FindByID(ctx context.Context, id string) (*models.Card, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}
	return s.findOne(ctx, bson.M{"_id": oid})
}

// FindByIdentifier looks up a card holding idNumber, excluding the owner's
// own card so an owner can re-submit their current identifier.
func (s *CardStore) FindByIdentifier(ctx context.Context, idNumber string, excludeOwnerID int64) (*models.Card, error) {
	return s.findOne(ctx, bson.M{
		"card_data.id_number": idNumber,
		"user_id":             bson.M{"$ne": excludeOwnerID},
	})
}

// FindByBiometric resolves the active, verified card whose stored reference
// for the modality equals the sample byte for byte.
func (s *CardStore) FindByBiometric(ctx context.Context, modality models.Modality, sample string) (*models.Card, error) {
	field, ok := biometricFields[modality]
	if !ok {
		return nil, nil
	}
	return s.findOne(ctx, bson.M{
		field:                 sample,
		"is_active":           true,
		"verification_status": models.StatusVerified,
	})
}

// FindByActiveToken resolves the card holding an active, unexpired
// credential with this token.
func (s *CardStore) FindByActiveToken(ctx context.Context, token string, now time.Time) (*models.Card, error) {
	return s.findOne(ctx, bson.M{
		"authentication_tokens": bson.M{
			"$elemMatch": bson.M{
				"token":      token,
				"is_active":  true,
				"expires_at": bson.M{"$gt": now},
			},
		},
	})
}

func (s *CardStore) DeleteByOwner(ctx context.Context, ownerID int64) error {
	_, err := s.coll.DeleteOne(ctx, bson.M{"user_id": ownerID})
	if err != nil {
		return fmt.Errorf("failed to delete card: %w", err)
	}
	return nil
}

func (s *CardStore) DeleteByID(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("invalid card id %q: %w", id, err)
	}
	_, err = s.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("failed to delete card: %w", err)
	}
	return nil
}

// ListAll returns every card, newest first. Admin surface only.
func (s *CardStore) ListAll(ctx context.Context) ([]*models.Card, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := s.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list cards: %w", err)
	}
	defer cur.Close(ctx)

	var cards []*models.Card
	if err := cur.All(ctx, &cards); err != nil {
		return nil, fmt.Errorf("failed to decode cards: %w", err)
	}
	return cards, nil
}

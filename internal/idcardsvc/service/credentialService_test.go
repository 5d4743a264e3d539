package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/veridium/idcard-services/internal/idcardsvc/models"
)

func seedCardWithFace(t *testing.T, repo *fakeCardRepo, ownerID int64, face string) *models.Card {
	t.Helper()
	card := &models.Card{
		UserID: ownerID,
		CardData: models.CardData{
			FirstName: "Awa",
			LastName:  "Diallo",
			IDNumber:  "X1",
		},
		BiometricData:      models.BiometricData{FaceData: face},
		VerificationStatus: models.StatusVerified,
		IsActive:           true,
	}
	if err := repo.Insert(context.Background(), card); err != nil {
		t.Fatalf("seed insert error: %v", err)
	}
	return card
}

func testUsers() *fakeUserRepo {
	return newFakeUserRepo(&models.User{UserId: 1, Name: "Awa Diallo", Email: "awa@example.com", Avatar: "a.png"})
}

func TestAuthenticate_NoMatchCreatesNoCredential(t *testing.T) {
	t.Parallel()

	repo := newFakeCardRepo()
	seedCardWithFace(t, repo, 1, "face-template-1")
	svc := NewCredentialService(repo, testUsers(), nil)
	ctx := context.Background()

	_, err := svc.Authenticate(ctx, models.ModalityFace, "wrong-sample", "dev-1")
	if !errors.Is(err, ErrAuthenticationFailed) {
		t.Fatalf("err = %v, want ErrAuthenticationFailed", err)
	}

	card, _ := repo.FindByOwner(ctx, 1)
	if len(card.AuthenticationTokens) != 0 {
		t.Fatal("failed authentication must not mint a credential")
	}
}

func TestAuthenticate_UnsupportedModalityIsGenericFailure(t *testing.T) {
	t.Parallel()

	repo := newFakeCardRepo()
	seedCardWithFace(t, repo, 1, "face-template-1")
	svc := NewCredentialService(repo, testUsers(), nil)

	_, err := svc.Authenticate(context.Background(), "gait", "face-template-1", "dev-1")
	if !errors.Is(err, ErrAuthenticationFailed) {
		t.Fatalf("err = %v, want ErrAuthenticationFailed", err)
	}
}

func TestAuthenticate_InactiveOrUnverifiedCardFails(t *testing.T) {
	t.Parallel()

	for _, tc := range []struct {
		name string
		mod  func(*models.Card)
	}{
		{"inactive", func(c *models.Card) { c.IsActive = false }},
		{"pending", func(c *models.Card) { c.VerificationStatus = models.StatusPending }},
	} {
		t.Run(tc.name, func(t *testing.T) {
			repo := newFakeCardRepo()
			card := seedCardWithFace(t, repo, 1, "face-template-1")
			tc.mod(card)
			if err := repo.Replace(context.Background(), card); err != nil {
				t.Fatalf("Replace error: %v", err)
			}

			svc := NewCredentialService(repo, testUsers(), nil)
			_, err := svc.Authenticate(context.Background(), models.ModalityFace, "face-template-1", "dev-1")
			if !errors.Is(err, ErrAuthenticationFailed) {
				t.Fatalf("err = %v, want ErrAuthenticationFailed", err)
			}
		})
	}
}

func TestAuthenticate_MintsFreshCredential(t *testing.T) {
	t.Parallel()

	repo := newFakeCardRepo()
	seedCardWithFace(t, repo, 1, "face-template-1")
	svc := NewCredentialService(repo, testUsers(), nil)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = fixedNow(now)
	ctx := context.Background()

	res, err := svc.Authenticate(ctx, models.ModalityFace, "face-template-1", "dev-1")
	if err != nil {
		t.Fatalf("Authenticate error: %v", err)
	}

	if len(res.Token) != 64 {
		t.Errorf("token length = %d, want 64 hex chars (256 bits)", len(res.Token))
	}
	if !res.ExpiresAt.Equal(now.Add(15 * time.Minute)) {
		t.Errorf("expiresAt = %v, want now+15m", res.ExpiresAt)
	}
	if res.User.Name != "Awa Diallo" || res.User.Email != "awa@example.com" {
		t.Errorf("user projection = %+v", res.User)
	}
	if res.Card.IDNumber != "X1" || res.Card.FirstName != "Awa" {
		t.Errorf("card projection = %+v", res.Card)
	}

	card, _ := repo.FindByOwner(ctx, 1)
	if len(card.AuthenticationTokens) != 1 {
		t.Fatalf("credential count = %d, want 1", len(card.AuthenticationTokens))
	}
	if card.UsageCount != 1 || card.LastUsed == nil {
		t.Error("authentication must bump the usage counters")
	}

	// repeated calls mint independent tokens, never reuse
	res2, err := svc.Authenticate(ctx, models.ModalityFace, "face-template-1", "dev-1")
	if err != nil {
		t.Fatalf("Authenticate error: %v", err)
	}
	if res2.Token == res.Token {
		t.Fatal("each authentication must mint a fresh token")
	}
}

func TestAuthenticate_PrunesDeadCredentials(t *testing.T) {
	t.Parallel()

	repo := newFakeCardRepo()
	card := seedCardWithFace(t, repo, 1, "face-template-1")
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	card.AuthenticationTokens = []models.Credential{
		{Token: "expired", ExpiresAt: now.Add(-time.Minute), IsActive: true},
		{Token: "revoked", ExpiresAt: now.Add(time.Minute), IsActive: false},
		{Token: "alive", ExpiresAt: now.Add(time.Minute), IsActive: true},
	}
	if err := repo.Replace(context.Background(), card); err != nil {
		t.Fatalf("Replace error: %v", err)
	}

	svc := NewCredentialService(repo, testUsers(), nil)
	svc.now = fixedNow(now)

	if _, err := svc.Authenticate(context.Background(), models.ModalityFace, "face-template-1", ""); err != nil {
		t.Fatalf("Authenticate error: %v", err)
	}

	card, _ = repo.FindByOwner(context.Background(), 1)
	if len(card.AuthenticationTokens) != 2 {
		t.Fatalf("credential count = %d, want alive + fresh", len(card.AuthenticationTokens))
	}
	for _, c := range card.AuthenticationTokens {
		if c.Token == "expired" || c.Token == "revoked" {
			t.Fatalf("credential %q should have been pruned", c.Token)
		}
	}
}

package models

import (
	"testing"
	"time"
)

func TestCredentialUsable(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	cases := []struct {
		name string
		cred Credential
		want bool
	}{
		{"active unexpired", Credential{IsActive: true, ExpiresAt: now.Add(time.Minute)}, true},
		{"active expired", Credential{IsActive: true, ExpiresAt: now.Add(-time.Minute)}, false},
		{"revoked unexpired", Credential{IsActive: false, ExpiresAt: now.Add(time.Minute)}, false},
		{"expiring this instant", Credential{IsActive: true, ExpiresAt: now}, false},
	}
	for _, tc := range cases {
		if got := tc.cred.Usable(now); got != tc.want {
			t.Errorf("%s: Usable = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestPruneCredentials(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	card := &Card{AuthenticationTokens: []Credential{
		{Token: "a", IsActive: true, ExpiresAt: now.Add(time.Minute)},
		{Token: "b", IsActive: false, ExpiresAt: now.Add(time.Minute)},
		{Token: "c", IsActive: true, ExpiresAt: now.Add(-time.Minute)},
	}}

	card.PruneCredentials(now)

	if len(card.AuthenticationTokens) != 1 || card.AuthenticationTokens[0].Token != "a" {
		t.Fatalf("tokens after prune = %+v, want only a", card.AuthenticationTokens)
	}
}

func TestModalityValid(t *testing.T) {
	t.Parallel()

	for _, m := range []Modality{ModalityFingerprint, ModalityFace, ModalityIris, ModalityVoice} {
		if !m.Valid() {
			t.Errorf("%s should be valid", m)
		}
	}
	if Modality("gait").Valid() {
		t.Error("unknown modality should be invalid")
	}
}

func TestBiometricValue(t *testing.T) {
	t.Parallel()

	b := BiometricData{FingerprintHash: "f", FaceData: "fa", IrisData: "i", VoiceData: "v"}
	if b.Value(ModalityFingerprint) != "f" || b.Value(ModalityFace) != "fa" ||
		b.Value(ModalityIris) != "i" || b.Value(ModalityVoice) != "v" {
		t.Error("Value returned wrong field")
	}
	if b.Value(Modality("gait")) != "" {
		t.Error("unknown modality should yield empty value")
	}
}

func TestPatchApply_NilSafety(t *testing.T) {
	t.Parallel()

	data := CardData{FirstName: "Awa", Gender: "F"}
	var dp *CardDataPatch
	dp.Apply(&data)
	if data.FirstName != "Awa" || data.Gender != "F" {
		t.Fatal("nil patch must not mutate")
	}

	bio := BiometricData{FaceData: "face"}
	var bp *BiometricPatch
	bp.Apply(&bio, time.Now())
	if bio.LastBiometricUpdate != nil {
		t.Fatal("nil biometric patch must not stamp the update time")
	}
}

func TestPatchApply_MergesOnlyProvidedKeys(t *testing.T) {
	t.Parallel()

	data := CardData{FirstName: "Awa", LastName: "Diallo", Gender: "F"}
	last := "Sy"
	(&CardDataPatch{LastName: &last}).Apply(&data)

	if data.LastName != "Sy" {
		t.Errorf("lastName = %q, want Sy", data.LastName)
	}
	if data.FirstName != "Awa" || data.Gender != "F" {
		t.Error("absent patch keys must never null out existing values")
	}

	empty := ""
	(&CardDataPatch{Gender: &empty}).Apply(&data)
	if data.Gender != "" {
		t.Error("an explicitly provided empty value is applied as-is")
	}
}

package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// VerificationStatus of a card. New cards are verified automatically,
// no external verifier is wired in.
const (
	StatusPending  = "pending"
	StatusVerified = "verified"
	StatusRejected = "rejected"
)

// Card is the per-owner virtual identity document stored in MongoDB.
// Credentials live inside the document and are never addressable on their own.
type Card struct {
	ID                   primitive.ObjectID `bson:"_id,omitempty" json:"_id,omitempty"`
	UserID               int64              `bson:"user_id" json:"userId"`
	CardData             CardData           `bson:"card_data" json:"cardData"`
	BiometricData        BiometricData      `bson:"biometric_data" json:"biometricData"`
	CardImage            CardImage          `bson:"card_image,omitempty" json:"cardImage,omitempty"`
	AuthenticationTokens []Credential       `bson:"authentication_tokens" json:"authenticationTokens"`
	VerificationStatus   string             `bson:"verification_status" json:"verificationStatus"`
	IsActive             bool               `bson:"is_active" json:"isActive"`
	UsageCount           int64              `bson:"usage_count" json:"usageCount"`
	LastUsed             *time.Time         `bson:"last_used,omitempty" json:"lastUsed,omitempty"`
	CreatedAt            time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt            time.Time          `bson:"updated_at" json:"updatedAt"`
}

// CardData holds the personal fields printed on the card. None of these
// carry a uniqueness constraint except IDNumber.
type CardData struct {
	FirstName        string           `bson:"first_name" json:"firstName"`
	LastName         string           `bson:"last_name" json:"lastName"`
	DateOfBirth      time.Time        `bson:"date_of_birth" json:"dateOfBirth"`
	PlaceOfBirth     string           `bson:"place_of_birth" json:"placeOfBirth"`
	Nationality      string           `bson:"nationality" json:"nationality"`
	Address          string           `bson:"address" json:"address"`
	IDNumber         string           `bson:"id_number" json:"idNumber"`
	IssueDate        time.Time        `bson:"issue_date" json:"issueDate"`
	ExpiryDate       time.Time        `bson:"expiry_date" json:"expiryDate"`
	Gender           string           `bson:"gender" json:"gender"`
	BloodType        string           `bson:"blood_type,omitempty" json:"bloodType,omitempty"`
	Height           string           `bson:"height,omitempty" json:"height,omitempty"`
	Profession       string           `bson:"profession,omitempty" json:"profession,omitempty"`
	MaritalStatus    string           `bson:"marital_status,omitempty" json:"maritalStatus,omitempty"`
	PhoneNumber      string           `bson:"phone_number,omitempty" json:"phoneNumber,omitempty"`
	EmergencyContact EmergencyContact `bson:"emergency_contact,omitempty" json:"emergencyContact,omitempty"`
	Email            string           `bson:"email,omitempty" json:"email,omitempty"`
}

type EmergencyContact struct {
	Name     string `bson:"name,omitempty" json:"name,omitempty"`
	Phone    string `bson:"phone,omitempty" json:"phone,omitempty"`
	Relation string `bson:"relation,omitempty" json:"relation,omitempty"`
}

// BiometricData holds one opaque comparable value per modality. The values
// arrive already reduced by the sensor side; this service only compares them.
type BiometricData struct {
	FingerprintHash     string     `bson:"fingerprint_hash,omitempty" json:"fingerprintHash,omitempty"`
	FaceData            string     `bson:"face_data,omitempty" json:"faceData,omitempty"`
	IrisData            string     `bson:"iris_data,omitempty" json:"irisData,omitempty"`
	VoiceData           string     `bson:"voice_data,omitempty" json:"voiceData,omitempty"`
	LastBiometricUpdate *time.Time `bson:"last_biometric_update,omitempty" json:"lastBiometricUpdate,omitempty"`
}

// Value returns the stored reference for a modality, empty when none is enrolled.
func (b BiometricData) Value(m Modality) string {
	switch m {
	case ModalityFingerprint:
		return b.FingerprintHash
	case ModalityFace:
		return b.FaceData
	case ModalityIris:
		return b.IrisData
	case ModalityVoice:
		return b.VoiceData
	}
	return ""
}

// CardImage keeps the external locators for the card scans. The media store
// owns the bytes, we only hold URLs and the public ids needed for deletion.
type CardImage struct {
	FrontImage         string `bson:"front_image,omitempty" json:"frontImage,omitempty"`
	FrontImagePublicID string `bson:"front_image_public_id,omitempty" json:"frontImagePublicId,omitempty"`
	BackImage          string `bson:"back_image,omitempty" json:"backImage,omitempty"`
	BackImagePublicID  string `bson:"back_image_public_id,omitempty" json:"backImagePublicId,omitempty"`
}

// Modality is the biometric channel a sample claims to represent.
type Modality string

const (
	ModalityFingerprint Modality = "fingerprint"
	ModalityFace        Modality = "face"
	ModalityIris        Modality = "iris"
	ModalityVoice       Modality = "voice"
)

func (m Modality) Valid() bool {
	switch m {
	case ModalityFingerprint, ModalityFace, ModalityIris, ModalityVoice:
		return true
	}
	return false
}

// Credential is a short-lived token minted after a biometric match.
type Credential struct {
	Token         string    `bson:"token" json:"token"`
	DeviceID      string    `bson:"device_id,omitempty" json:"deviceId,omitempty"`
	BiometricType Modality  `bson:"biometric_type" json:"biometricType"`
	IssuedAt      time.Time `bson:"issued_at" json:"issuedAt"`
	ExpiresAt     time.Time `bson:"expires_at" json:"expiresAt"`
	IsActive      bool      `bson:"is_active" json:"isActive"`
}

// Usable reports whether the credential can still be promoted.
func (c Credential) Usable(now time.Time) bool {
	return c.IsActive && now.Before(c.ExpiresAt)
}

// PruneCredentials drops credentials that are inactive or expired. Pruning is
// lazy, it runs only when the card is about to be written anyway.
func (c *Card) PruneCredentials(now time.Time) {
	kept := c.AuthenticationTokens[:0]
	for _, t := range c.AuthenticationTokens {
		if t.Usable(now) {
			kept = append(kept, t)
		}
	}
	c.AuthenticationTokens = kept
}

// ActiveCredentialCount counts credentials still usable at now.
func (c *Card) ActiveCredentialCount(now time.Time) int {
	n := 0
	for _, t := range c.AuthenticationTokens {
		if t.Usable(now) {
			n++
		}
	}
	return n
}

// CardDataPatch is a partial update of CardData. Nil fields are left
// untouched, they never null out an existing value. IDNumber is absent on
// purpose, renewal is the only path that rotates it.
type CardDataPatch struct {
	FirstName        *string           `json:"firstName,omitempty"`
	LastName         *string           `json:"lastName,omitempty"`
	DateOfBirth      *time.Time        `json:"dateOfBirth,omitempty"`
	PlaceOfBirth     *string           `json:"placeOfBirth,omitempty"`
	Nationality      *string           `json:"nationality,omitempty"`
	Address          *string           `json:"address,omitempty"`
	Gender           *string           `json:"gender,omitempty"`
	BloodType        *string           `json:"bloodType,omitempty"`
	Height           *string           `json:"height,omitempty"`
	Profession       *string           `json:"profession,omitempty"`
	MaritalStatus    *string           `json:"maritalStatus,omitempty"`
	PhoneNumber      *string           `json:"phoneNumber,omitempty"`
	EmergencyContact *EmergencyContact `json:"emergencyContact,omitempty"`
	Email            *string           `json:"email,omitempty"`
}

// Apply merges the patch over dst, shallow per top-level key.
func (p *CardDataPatch) Apply(dst *CardData) {
	if p == nil {
		return
	}
	if p.FirstName != nil {
		dst.FirstName = *p.FirstName
	}
	if p.LastName != nil {
		dst.LastName = *p.LastName
	}
	if p.DateOfBirth != nil {
		dst.DateOfBirth = *p.DateOfBirth
	}
	if p.PlaceOfBirth != nil {
		dst.PlaceOfBirth = *p.PlaceOfBirth
	}
	if p.Nationality != nil {
		dst.Nationality = *p.Nationality
	}
	if p.Address != nil {
		dst.Address = *p.Address
	}
	if p.Gender != nil {
		dst.Gender = *p.Gender
	}
	if p.BloodType != nil {
		dst.BloodType = *p.BloodType
	}
	if p.Height != nil {
		dst.Height = *p.Height
	}
	if p.Profession != nil {
		dst.Profession = *p.Profession
	}
	if p.MaritalStatus != nil {
		dst.MaritalStatus = *p.MaritalStatus
	}
	if p.PhoneNumber != nil {
		dst.PhoneNumber = *p.PhoneNumber
	}
	if p.EmergencyContact != nil {
		dst.EmergencyContact = *p.EmergencyContact
	}
	if p.Email != nil {
		dst.Email = *p.Email
	}
}

// BiometricPatch is a partial update of BiometricData.
type BiometricPatch struct {
	FingerprintHash *string `json:"fingerprintHash,omitempty"`
	FaceData        *string `json:"faceData,omitempty"`
	IrisData        *string `json:"irisData,omitempty"`
	VoiceData       *string `json:"voiceData,omitempty"`
}

// Apply merges the patch over dst and stamps LastBiometricUpdate.
func (p *BiometricPatch) Apply(dst *BiometricData, now time.Time) {
	if p == nil {
		return
	}
	if p.FingerprintHash != nil {
		dst.FingerprintHash = *p.FingerprintHash
	}
	if p.FaceData != nil {
		dst.FaceData = *p.FaceData
	}
	if p.IrisData != nil {
		dst.IrisData = *p.IrisData
	}
	if p.VoiceData != nil {
		dst.VoiceData = *p.VoiceData
	}
	dst.LastBiometricUpdate = &now
}

package comm

import (
	"time"
)

// Message types published on the notification subjects.
const (
	TypeBiometricLogin = "biometric_login"
	TypeCardRenewed    = "card_renewed"
)

// PushNotification is the payload published to the push delivery service.
type PushNotification struct {
	EventID   string            `json:"event_id"`
	UserID    int64             `json:"user_id"`
	Title     string            `json:"title"`
	Body      string            `json:"body"`
	Data      map[string]string `json:"data,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

// EmailNotification is the payload published to the mail delivery service.
type EmailNotification struct {
	EventID   string    `json:"event_id"`
	UserID    int64     `json:"user_id"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	Timestamp time.Time `json:"timestamp"`
}

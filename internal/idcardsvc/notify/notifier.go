package notify

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"

	"github.com/veridium/idcard-services/internal/comm"
	"github.com/veridium/idcard-services/internal/idcardsvc/models"
)

const (
	pushSubject  = "notify.push"
	emailSubject = "notify.email"
)

// Notifier publishes side-effect notifications over NATS. Every publish is
// fire-and-forget: it runs off the request goroutine and failures are logged,
// never surfaced to the caller.
type Notifier struct {
	conn *nats.Conn
}

func NewNotifier(nc *nats.Conn) *Notifier {
	return &Notifier{conn: nc}
}

func (n *Notifier) publish(subject string, payload interface{}) {
	if n == nil || n.conn == nil {
		return
	}
	go func() {
		data, err := json.Marshal(payload)
		if err != nil {
			log.Errorf("unable to marshal %s payload: %s", subject, err)
			return
		}
		if err := n.conn.Publish(subject, data); err != nil {
			log.Errorf("unable to publish to %s: %s", subject, err)
		}
	}()
}

// BiometricLogin notifies the owner that a short-lived credential was minted.
func (n *Notifier) BiometricLogin(userID int64, modality models.Modality, deviceID string) {
	now := time.Now()
	n.publish(pushSubject, comm.PushNotification{
		EventID: uuid.NewString(),
		UserID:  userID,
		Title:   "Biometric sign-in",
		Body:    "Successful sign-in via " + string(modality),
		Data: map[string]string{
			"type":           comm.TypeBiometricLogin,
			"biometric_type": string(modality),
			"device_id":      deviceID,
			"timestamp":      now.Format(time.RFC3339),
		},
		Timestamp: now,
	})
}

// CardRenewed notifies the owner that the card identifier was rotated. The
// rotation also goes out by email since every prior credential just died.
func (n *Notifier) CardRenewed(userID int64, newIdentifier string, expiry time.Time) {
	now := time.Now()
	n.publish(pushSubject, comm.PushNotification{
		EventID: uuid.NewString(),
		UserID:  userID,
		Title:   "Card renewed",
		Body:    "Your virtual ID card identifier was rotated",
		Data: map[string]string{
			"type":       comm.TypeCardRenewed,
			"identifier": newIdentifier,
			"expires_at": expiry.Format(time.RFC3339),
		},
		Timestamp: now,
	})
	n.publish(emailSubject, comm.EmailNotification{
		EventID:   uuid.NewString(),
		UserID:    userID,
		Subject:   "Your virtual ID card was renewed",
		Body:      "A new card identifier was issued. Previous biometric sessions were signed out.",
		Timestamp: now,
	})
}

package models

import (
	"time"
)

// User represents the users table in the database. Accounts are managed by
// the account service, this service only reads them.
type User struct {
	UserId      int64     `json:"user_id"`
	Name        string    `json:"name"`
	Avatar      string    `json:"avatar,omitempty"`
	Email       string    `json:"email,omitempty"`
	Phone       string    `json:"phone,omitempty"`
	AccessLevel int       `json:"access_level"`
	Status      string    `json:"status,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

package service

import "errors"

// Error kinds surfaced by the card services. Handlers map these onto HTTP
// statuses, anything unrecognized becomes a 500.
var (
	ErrInvalidInput         = errors.New("invalid input")
	ErrAlreadyExists        = errors.New("card already exists")
	ErrDuplicateIdentifier  = errors.New("identifier already in use")
	ErrNotFound             = errors.New("not found")
	ErrAuthenticationFailed = errors.New("biometric authentication failed")
	ErrInvalidToken         = errors.New("invalid or expired token")
)

package services

import "errors"

var (
	// ErrEmailTaken is returned when registering an email that already has
	// an account.
	ErrEmailTaken = errors.New("user already exists")

	// ErrInvalidCredentials is returned for both unknown emails and wrong
	// passwords so callers cannot tell which one happened.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// ValidationError reports caller-supplied data that failed a shape check.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(message string) error {
	return &ValidationError{Message: message}
}

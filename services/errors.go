package services

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedID is returned when a path id does not have the store's id format.
	ErrMalformedID = errors.New("malformatted id")
	// ErrIncorrectUser is returned when an authenticated user touches a post it does not own.
	ErrIncorrectUser = errors.New("incorrect user")
	// ErrUsernameTaken is returned by registration for a duplicate username.
	ErrUsernameTaken = errors.New("username must be unique")
	// ErrInvalidCredentials is returned by login for an unknown user or a wrong password.
	ErrInvalidCredentials = errors.New("invalid username or password")
)

// AuthReason tells why a bearer token did not resolve to a user.
type AuthReason string

const (
	AuthMissing AuthReason = "token missing"
	AuthInvalid AuthReason = "invalid token"
	AuthExpired AuthReason = "token expired"
)

// AuthError is returned when a request cannot be authenticated.
type AuthError struct {
	Reason AuthReason
	Err    error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Reason, e.Err)
	}
	return string(e.Reason)
}

func (e *AuthError) Unwrap() error { return e.Err }

// IsAuthError reports whether err is an *AuthError and returns it.
func IsAuthError(err error) (*AuthError, bool) {
	var authErr *AuthError
	if errors.As(err, &authErr) {
		return authErr, true
	}
	return nil, false
}

// ValidationError represents a rejected input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError returns a *ValidationError for field.
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// IsValidationError reports whether err wraps a *ValidationError.
func IsValidationError(err error) bool {
	var valErr *ValidationError
	return errors.As(err, &valErr)
}

package auth

import "errors"

var (
	ErrEmptyPassword   = errors.New("password cannot be empty")
	ErrInvalidToken    = errors.New("invalid session token")
	ErrForbidden       = errors.New("role is not allowed")
	ErrInvalidConfig   = errors.New("invalid token config")
	ErrTokenGeneration = errors.New("failed to generate reset token")
)

package auth

import "errors"

var (
	ErrInvalidToken       = errors.New("auth: invalid token")
	ErrExpiredToken       = errors.New("auth: token expired")
	ErrInvalidSignature   = errors.New("auth: invalid token signature")
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	ErrUnauthenticated    = errors.New("auth: unauthenticated")
	ErrForbidden          = errors.New("auth: forbidden")

	// ErrCredentialNotFound is returned by CredentialStore implementations.
	ErrCredentialNotFound = errors.New("auth: credential not found")
)

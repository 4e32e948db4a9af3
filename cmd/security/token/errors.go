package token

import "errors"

// Public, stable errors for callers.
var (
	ErrSecretMissing    = errors.New("token secret missing")
	ErrMalformed        = errors.New("token malformed")
	ErrInvalidSignature = errors.New("token signature invalid")
	ErrExpired          = errors.New("token expired")
	ErrInvalidClaims    = errors.New("token claims invalid")
)

package jwt

import "errors"

var (
	ErrMissingSigningKey       = errors.New("jwt: signing key is required")
	ErrSigningFailed           = errors.New("jwt: failed to sign token")
	ErrInvalidToken            = errors.New("jwt: invalid token")
	ErrExpiredToken            = errors.New("jwt: token expired")
	ErrInvalidScope            = errors.New("jwt: token scope not valid for this operation")
	ErrUnexpectedSigningMethod = errors.New("jwt: unexpected signing method")
	ErrMissingToken            = errors.New("jwt: missing bearer token")
)

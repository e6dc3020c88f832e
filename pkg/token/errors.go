package token

import "errors"

var (
	ErrNoKeys           = errors.New("token: no keys provided")
	ErrInvalidKeySize   = errors.New("token: key must be 32 bytes")
	ErrMissingClaims    = errors.New("token: missing claims")
	ErrInvalidToken     = errors.New("token: invalid token")
	ErrInvalidSignature = errors.New("token: invalid signature")
	ErrExpiredToken     = errors.New("token: token is expired")
	ErrNotYetValid      = errors.New("token: token not yet valid")
	ErrDecryptionFailed = errors.New("token: decryption failed")
)

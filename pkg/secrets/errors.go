package secrets

import "errors"

var (
	ErrNoSecret        = errors.New("secrets: no secret provided")
	ErrSecretTooShort  = errors.New("secrets: secret too short")
	ErrTokenGeneration = errors.New("secrets: failed to generate random token")
)

package provider

import "errors"

var (
	ErrInvalidConfig      = errors.New("provider: invalid configuration")
	ErrExchangeFailed     = errors.New("provider: authorization code exchange failed")
	ErrProfileFetch       = errors.New("provider: failed to fetch user profile")
	ErrInvalidIDToken     = errors.New("provider: invalid ID token")
	ErrNoEmail            = errors.New("provider: no usable email in provider profile")
	ErrInvalidCredentials = errors.New("provider: invalid credentials")
)

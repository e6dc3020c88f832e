package token

import "time"

// Leeway tolerated when validating temporal claims, absorbing clock skew
// between this service and whoever minted or will consume the token.
const Leeway = 30 * time.Second

// RegisteredClaims carries the standard JWT temporal and identity claims.
// Embed it in application claim structures to get expiry validation for free.
type RegisteredClaims struct {
	Subject   string `json:"sub,omitempty"`
	Issuer    string `json:"iss,omitempty"`
	Audience  string `json:"aud,omitempty"`
	ID        string `json:"jti,omitempty"`
	ExpiresAt int64  `json:"exp,omitempty"`
	NotBefore int64  `json:"nbf,omitempty"`
	IssuedAt  int64  `json:"iat,omitempty"`
}

// Valid checks the temporal claims against the current time with Leeway.
// Zero values are treated as unset per RFC 7519 and skipped.
func (c RegisteredClaims) Valid() error {
	now := time.Now()

	if c.ExpiresAt > 0 && now.After(time.Unix(c.ExpiresAt, 0).Add(Leeway)) {
		return ErrExpiredToken
	}
	if c.NotBefore > 0 && now.Add(Leeway).Before(time.Unix(c.NotBefore, 0)) {
		return ErrNotYetValid
	}
	return nil
}

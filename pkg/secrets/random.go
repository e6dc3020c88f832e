package secrets

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
)

// RandomToken returns n random bytes base64url-encoded without padding.
// The result is safe to place in cookies, headers, and query strings.
func RandomToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", errors.Join(ErrTokenGeneration, err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

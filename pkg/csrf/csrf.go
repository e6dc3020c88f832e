package csrf

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"

	"github.com/dmitrymomot/authkit/pkg/secrets"
)

const tokenBytes = 32

// Manager issues and verifies double-submit token pairs. Keys come from
// pkg/secrets with the "csrf" purpose, newest first; verification accepts
// page tokens derived under any key in the list so rotation does not break
// in-flight forms.
type Manager struct {
	keys [][]byte
}

// New creates a manager over the given derived keys.
func New(keys [][]byte) (*Manager, error) {
	if len(keys) == 0 {
		return nil, ErrNoKeys
	}
	return &Manager{keys: keys}, nil
}

// Issue generates a fresh pair. The cookie token goes into an HttpOnly
// cookie; the page token is exposed to the client for echoing back.
func (m *Manager) Issue() (cookieToken, pageToken string, err error) {
	cookieToken, err = secrets.RandomToken(tokenBytes)
	if err != nil {
		return "", "", err
	}
	return cookieToken, m.derive(cookieToken, m.keys[0]), nil
}

// PageToken recomputes the page token for an existing cookie value, so a
// page reload does not rotate the pair mid-session.
func (m *Manager) PageToken(cookieToken string) string {
	return m.derive(cookieToken, m.keys[0])
}

// Verify reports whether submitted is the page token for cookieToken.
// Empty inputs always fail.
func (m *Manager) Verify(cookieToken, submitted string) bool {
	if cookieToken == "" || submitted == "" {
		return false
	}

	ok := false
	for _, key := range m.keys {
		expected := m.derive(cookieToken, key)
		// No early exit: every key is checked to keep timing uniform.
		if subtle.ConstantTimeCompare([]byte(expected), []byte(submitted)) == 1 {
			ok = true
		}
	}
	return ok
}

func (m *Manager) derive(cookieToken string, key []byte) string {
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(cookieToken))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

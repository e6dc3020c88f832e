package state

import (
	"crypto/sha256"
	"encoding/base64"
	"time"

	"github.com/dmitrymomot/authkit/pkg/secrets"
	"github.com/dmitrymomot/authkit/pkg/token"
)

// Purpose is the key-derivation purpose for envelope payloads, keeping them
// cryptographically disjoint from session tokens.
const Purpose = "state"

const defaultTTL = 10 * time.Minute

// Attempt is the output of Begin: values for the authorization request plus
// the cookie payload that records them until the callback.
type Attempt struct {
	State         string
	Nonce         string
	CodeVerifier  string
	CodeChallenge string
	CookiePayload string
	ExpiresAt     time.Time
}

// Envelope is what Consume releases back to the caller after validation.
type Envelope struct {
	State        string
	Nonce        string
	CodeVerifier string
	ReturnTo     string
}

type envelopeClaims struct {
	token.RegisteredClaims
	State        string `json:"state"`
	Nonce        string `json:"nonce,omitempty"`
	CodeVerifier string `json:"code_verifier,omitempty"`
	ReturnTo     string `json:"return_to,omitempty"`
}

// Manager creates and consumes state envelopes.
type Manager struct {
	codec *token.Codec
	ttl   time.Duration
}

// Option configures a Manager during construction.
type Option func(*Manager)

// WithTTL overrides the envelope lifetime. Keep it short: it only needs to
// outlive one round trip to the identity provider.
func WithTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		m.ttl = ttl
	}
}

// New creates a manager over keys derived for the "state" purpose.
// Envelopes are encrypted, not just signed: the PKCE verifier they carry must
// stay confidential.
func New(keys [][]byte, opts ...Option) (*Manager, error) {
	codec, err := token.NewCodec(keys, token.WithEncryption())
	if err != nil {
		return nil, err
	}

	m := &Manager{codec: codec, ttl: defaultTTL}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// TTL returns the envelope lifetime, for sizing the cookie Max-Age.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// Begin starts a sign-in attempt. The nonce is only generated when withNonce
// is set (OIDC providers); plain OAuth2 flows leave it empty.
func (m *Manager) Begin(returnTo string, withNonce bool) (*Attempt, error) {
	st, err := secrets.RandomToken(32)
	if err != nil {
		return nil, err
	}

	verifier, err := secrets.RandomToken(32)
	if err != nil {
		return nil, err
	}

	var nonce string
	if withNonce {
		if nonce, err = secrets.RandomToken(32); err != nil {
			return nil, err
		}
	}

	expiresAt := time.Now().Add(m.ttl)
	payload, err := m.codec.Encode(envelopeClaims{
		RegisteredClaims: token.RegisteredClaims{
			IssuedAt:  time.Now().Unix(),
			ExpiresAt: expiresAt.Unix(),
		},
		State:        st,
		Nonce:        nonce,
		CodeVerifier: verifier,
		ReturnTo:     returnTo,
	})
	if err != nil {
		return nil, err
	}

	return &Attempt{
		State:         st,
		Nonce:         nonce,
		CodeVerifier:  verifier,
		CodeChallenge: Challenge(verifier),
		CookiePayload: payload,
		ExpiresAt:     expiresAt,
	}, nil
}

// Consume validates the envelope against the state echoed by the provider.
// It must be called, and must succeed, before any code exchange happens.
func (m *Manager) Consume(cookiePayload, returnedState string) (*Envelope, error) {
	if cookiePayload == "" {
		return nil, ErrEnvelopeInvalid
	}

	var claims envelopeClaims
	if err := m.codec.Decode(cookiePayload, &claims); err != nil {
		return nil, ErrEnvelopeInvalid
	}

	if returnedState == "" || !secrets.Equal(claims.State, returnedState) {
		return nil, ErrStateMismatch
	}

	return &Envelope{
		State:        claims.State,
		Nonce:        claims.Nonce,
		CodeVerifier: claims.CodeVerifier,
		ReturnTo:     claims.ReturnTo,
	}, nil
}

// Challenge computes the S256 code challenge for a verifier.
func Challenge(verifier string) string {
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

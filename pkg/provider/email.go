package provider

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"html"
	"time"

	"github.com/dmitrymomot/authkit/pkg/mailer"
	"github.com/dmitrymomot/authkit/pkg/secrets"
)

// VerificationPurpose is the key-derivation purpose for hashing email
// sign-in tokens at rest.
const VerificationPurpose = "email-verification"

const defaultEmailTokenTTL = 15 * time.Minute

// Email is the magic-link driver. It mints random single-use tokens, stores
// only their keyed hash (via the adapter, orchestrated by the engine), and
// delegates delivery to a Mailer. Token consumption happens in the engine
// through the adapter's atomic UseVerificationToken.
type Email struct {
	id      string
	mailer  mailer.Mailer
	hashKey []byte
	ttl     time.Duration
	appName string
}

// EmailOption configures the email driver.
type EmailOption func(*Email)

// WithTokenTTL overrides the magic-link lifetime.
func WithTokenTTL(ttl time.Duration) EmailOption {
	return func(e *Email) {
		e.ttl = ttl
	}
}

// WithAppName sets the product name used in the message subject and body.
func WithAppName(name string) EmailOption {
	return func(e *Email) {
		e.appName = name
	}
}

// NewEmail creates the magic-link driver. hashKey must come from
// pkg/secrets with VerificationPurpose; it never leaves the server, so a
// leaked verification-token table is useless without it.
func NewEmail(m mailer.Mailer, hashKey []byte, opts ...EmailOption) (*Email, error) {
	if m == nil {
		return nil, fmt.Errorf("%w: email: mailer is required", ErrInvalidConfig)
	}
	if len(hashKey) == 0 {
		return nil, fmt.Errorf("%w: email: hash key is required", ErrInvalidConfig)
	}

	e := &Email{
		id:      "email",
		mailer:  m,
		hashKey: hashKey,
		ttl:     defaultEmailTokenTTL,
		appName: "this application",
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

func (e *Email) ID() string { return e.id }
func (e *Email) Type() Type { return TypeEmail }

// TokenTTL returns the configured magic-link lifetime.
func (e *Email) TokenTTL() time.Duration { return e.ttl }

// GenerateToken mints the raw single-use token that travels in the link.
func (e *Email) GenerateToken() (string, error) {
	return secrets.RandomToken(32)
}

// HashToken computes the at-rest representation of a raw token.
// Deterministic so the callback can rehash and look the record up; keyed so
// the stored hash alone cannot be turned back into a working link.
func (e *Email) HashToken(raw string) string {
	mac := hmac.New(sha256.New, e.hashKey)
	mac.Write([]byte(raw))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// SendSignInLink delivers the magic link out of band.
func (e *Email) SendSignInLink(ctx context.Context, to, link string, expiresAt time.Time) error {
	subject := fmt.Sprintf("Sign in to %s", e.appName)
	safeLink := html.EscapeString(link)

	return e.mailer.Send(ctx, mailer.Message{
		To:      to,
		Subject: subject,
		Tag:     "magic-link",
		BodyHTML: fmt.Sprintf(
			`<p>Click the link below to sign in to %s:</p><p><a href=%q>Sign in</a></p><p>This link expires at %s and can be used once. If you did not request it, you can safely ignore this email.</p>`,
			html.EscapeString(e.appName), safeLink, expiresAt.UTC().Format(time.RFC1123),
		),
		BodyText: fmt.Sprintf(
			"Sign in to %s:\n\n%s\n\nThis link expires at %s and can be used once. If you did not request it, you can safely ignore this email.\n",
			e.appName, link, expiresAt.UTC().Format(time.RFC1123),
		),
	})
}

package provider_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/authkit/pkg/mailer"
	"github.com/dmitrymomot/authkit/pkg/provider"
)

type captureMailer struct {
	sent []mailer.Message
}

func (m *captureMailer) Send(_ context.Context, msg mailer.Message) error {
	m.sent = append(m.sent, msg)
	return nil
}

func TestNewEmail(t *testing.T) {
	t.Parallel()

	hashKey := []byte("0123456789abcdef0123456789abcdef")

	t.Run("requires mailer", func(t *testing.T) {
		t.Parallel()

		_, err := provider.NewEmail(nil, hashKey)
		assert.ErrorIs(t, err, provider.ErrInvalidConfig)
	})

	t.Run("requires hash key", func(t *testing.T) {
		t.Parallel()

		_, err := provider.NewEmail(&captureMailer{}, nil)
		assert.ErrorIs(t, err, provider.ErrInvalidConfig)
	})

	t.Run("defaults", func(t *testing.T) {
		t.Parallel()

		e, err := provider.NewEmail(&captureMailer{}, hashKey)
		require.NoError(t, err)
		assert.Equal(t, "email", e.ID())
		assert.Equal(t, provider.TypeEmail, e.Type())
		assert.Equal(t, 15*time.Minute, e.TokenTTL())
	})

	t.Run("options", func(t *testing.T) {
		t.Parallel()

		e, err := provider.NewEmail(&captureMailer{}, hashKey,
			provider.WithTokenTTL(time.Hour),
			provider.WithAppName("Acme"),
		)
		require.NoError(t, err)
		assert.Equal(t, time.Hour, e.TokenTTL())
	})
}

func TestEmail_Tokens(t *testing.T) {
	t.Parallel()

	hashKey := []byte("0123456789abcdef0123456789abcdef")
	e, err := provider.NewEmail(&captureMailer{}, hashKey)
	require.NoError(t, err)

	t.Run("tokens are unique", func(t *testing.T) {
		t.Parallel()

		a, err := e.GenerateToken()
		require.NoError(t, err)
		b, err := e.GenerateToken()
		require.NoError(t, err)
		assert.NotEmpty(t, a)
		assert.NotEqual(t, a, b)
	})

	t.Run("hash is deterministic and keyed", func(t *testing.T) {
		t.Parallel()

		raw, err := e.GenerateToken()
		require.NoError(t, err)

		assert.Equal(t, e.HashToken(raw), e.HashToken(raw))
		assert.NotEqual(t, e.HashToken(raw), raw)

		other, err := provider.NewEmail(&captureMailer{}, []byte("another-key-another-key-another!"))
		require.NoError(t, err)
		assert.NotEqual(t, e.HashToken(raw), other.HashToken(raw))
	})
}

func TestEmail_SendSignInLink(t *testing.T) {
	t.Parallel()

	m := &captureMailer{}
	e, err := provider.NewEmail(m, []byte("0123456789abcdef0123456789abcdef"), provider.WithAppName("Acme"))
	require.NoError(t, err)

	link := "https://app.example.com/auth/callback/email?token=abc&email=user%40example.com"
	require.NoError(t, e.SendSignInLink(context.Background(), "user@example.com", link, time.Now().Add(15*time.Minute)))

	require.Len(t, m.sent, 1)
	msg := m.sent[0]
	assert.Equal(t, "user@example.com", msg.To)
	assert.Equal(t, "Sign in to Acme", msg.Subject)
	assert.Equal(t, "magic-link", msg.Tag)
	assert.Contains(t, msg.BodyText, link)
	assert.Contains(t, msg.BodyHTML, "Acme")
}

func TestCredentials(t *testing.T) {
	t.Parallel()

	t.Run("requires verify func", func(t *testing.T) {
		t.Parallel()

		_, err := provider.NewCredentials("", nil)
		assert.ErrorIs(t, err, provider.ErrInvalidConfig)
	})

	t.Run("default id", func(t *testing.T) {
		t.Parallel()

		c, err := provider.NewCredentials("", func(context.Context, map[string]string) (*provider.Profile, error) {
			return nil, nil
		})
		require.NoError(t, err)
		assert.Equal(t, "credentials", c.ID())
		assert.Equal(t, provider.TypeCredentials, c.Type())
	})

	t.Run("authorize success", func(t *testing.T) {
		t.Parallel()

		c, err := provider.NewCredentials("staff", func(_ context.Context, creds map[string]string) (*provider.Profile, error) {
			if creds["password"] != "hunter2" {
				return nil, provider.ErrInvalidCredentials
			}
			return &provider.Profile{ProviderAccountID: "u1", Email: creds["email"]}, nil
		})
		require.NoError(t, err)

		profile, err := c.Authorize(context.Background(), map[string]string{"email": "u@example.com", "password": "hunter2"})
		require.NoError(t, err)
		assert.Equal(t, "u1", profile.ProviderAccountID)
	})

	t.Run("nil profile maps to invalid credentials", func(t *testing.T) {
		t.Parallel()

		c, err := provider.NewCredentials("", func(context.Context, map[string]string) (*provider.Profile, error) {
			return nil, nil
		})
		require.NoError(t, err)

		_, err = c.Authorize(context.Background(), map[string]string{})
		assert.ErrorIs(t, err, provider.ErrInvalidCredentials)
	})
}

func TestPasswordHelpers(t *testing.T) {
	t.Parallel()

	hash, err := provider.HashPassword("hunter2")
	require.NoError(t, err)

	assert.True(t, provider.VerifyPassword(hash, "hunter2"))
	assert.False(t, provider.VerifyPassword(hash, "hunter3"))
}

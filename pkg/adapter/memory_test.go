package adapter_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/authkit/pkg/adapter"
)

func newUser(email string) *adapter.User {
	return &adapter.User{
		ID:        uuid.New(),
		Email:     email,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
}

func TestMemory_Users(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := adapter.NewMemory()
	user := newUser("user@example.com")

	require.NoError(t, m.CreateUser(ctx, user))

	t.Run("duplicate id rejected", func(t *testing.T) {
		assert.ErrorIs(t, m.CreateUser(ctx, user), adapter.ErrAlreadyExists)
	})

	t.Run("duplicate email rejected", func(t *testing.T) {
		dup := newUser("USER@example.com")
		assert.ErrorIs(t, m.CreateUser(ctx, dup), adapter.ErrAlreadyExists)
	})

	t.Run("lookup by id and email", func(t *testing.T) {
		got, err := m.GetUser(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, user.Email, got.Email)

		got, err = m.GetUserByEmail(ctx, "User@Example.COM")
		require.NoError(t, err)
		assert.Equal(t, user.ID, got.ID)
	})

	t.Run("missing user", func(t *testing.T) {
		_, err := m.GetUser(ctx, uuid.New())
		assert.ErrorIs(t, err, adapter.ErrNotFound)
	})

	t.Run("update moves email index", func(t *testing.T) {
		updated := *user
		updated.Email = "new@example.com"
		require.NoError(t, m.UpdateUser(ctx, &updated))

		_, err := m.GetUserByEmail(ctx, "user@example.com")
		assert.ErrorIs(t, err, adapter.ErrNotFound)

		got, err := m.GetUserByEmail(ctx, "new@example.com")
		require.NoError(t, err)
		assert.Equal(t, user.ID, got.ID)
	})
}

func TestMemory_Accounts(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := adapter.NewMemory()
	user := newUser("user@example.com")
	require.NoError(t, m.CreateUser(ctx, user))

	account := &adapter.Account{
		UserID:            user.ID,
		Provider:          "github",
		ProviderAccountID: "12345",
		AccessToken:       "at-1",
	}
	require.NoError(t, m.LinkAccount(ctx, account))

	t.Run("lookup by account", func(t *testing.T) {
		got, err := m.GetUserByAccount(ctx, "github", "12345")
		require.NoError(t, err)
		assert.Equal(t, user.ID, got.ID)
	})

	t.Run("relink replaces token set", func(t *testing.T) {
		refreshed := *account
		refreshed.AccessToken = "at-2"
		require.NoError(t, m.LinkAccount(ctx, &refreshed))

		got, err := m.GetUserByAccount(ctx, "github", "12345")
		require.NoError(t, err)
		assert.Equal(t, user.ID, got.ID)
	})

	t.Run("link to unknown user fails", func(t *testing.T) {
		bad := &adapter.Account{UserID: uuid.New(), Provider: "github", ProviderAccountID: "999"}
		assert.ErrorIs(t, m.LinkAccount(ctx, bad), adapter.ErrNotFound)
	})

	t.Run("unlink", func(t *testing.T) {
		require.NoError(t, m.UnlinkAccount(ctx, "github", "12345"))
		_, err := m.GetUserByAccount(ctx, "github", "12345")
		assert.ErrorIs(t, err, adapter.ErrNotFound)

		assert.ErrorIs(t, m.UnlinkAccount(ctx, "github", "12345"), adapter.ErrNotFound)
	})
}

func TestMemory_Sessions(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := adapter.NewMemory()
	user := newUser("user@example.com")
	require.NoError(t, m.CreateUser(ctx, user))

	sess := &adapter.Session{
		Token:     "opaque-session-token",
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(time.Hour),
		CreatedAt: time.Now(),
	}
	require.NoError(t, m.CreateSession(ctx, sess))

	t.Run("get returns session and user", func(t *testing.T) {
		gotSess, gotUser, err := m.GetSessionAndUser(ctx, sess.Token)
		require.NoError(t, err)
		assert.Equal(t, sess.Token, gotSess.Token)
		assert.Equal(t, user.ID, gotUser.ID)
	})

	t.Run("update rewrites both timestamps", func(t *testing.T) {
		extended := *sess
		extended.ExpiresAt = time.Now().Add(2 * time.Hour)
		extended.CreatedAt = time.Now().Add(time.Minute)
		require.NoError(t, m.UpdateSession(ctx, &extended))

		gotSess, _, err := m.GetSessionAndUser(ctx, sess.Token)
		require.NoError(t, err)
		assert.WithinDuration(t, extended.ExpiresAt, gotSess.ExpiresAt, time.Second)
		assert.WithinDuration(t, extended.CreatedAt, gotSess.CreatedAt, time.Second)
	})

	t.Run("delete is idempotent", func(t *testing.T) {
		require.NoError(t, m.DeleteSession(ctx, sess.Token))
		require.NoError(t, m.DeleteSession(ctx, sess.Token))

		_, _, err := m.GetSessionAndUser(ctx, sess.Token)
		assert.ErrorIs(t, err, adapter.ErrNotFound)
	})
}

func TestMemory_VerificationTokens(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := adapter.NewMemory()

	vt := &adapter.VerificationToken{
		Identifier: "user@example.com",
		TokenHash:  "hash-value",
		ExpiresAt:  time.Now().Add(15 * time.Minute),
	}
	require.NoError(t, m.CreateVerificationToken(ctx, vt))

	t.Run("consumed exactly once", func(t *testing.T) {
		got, err := m.UseVerificationToken(ctx, vt.Identifier, vt.TokenHash)
		require.NoError(t, err)
		assert.Equal(t, vt.TokenHash, got.TokenHash)

		_, err = m.UseVerificationToken(ctx, vt.Identifier, vt.TokenHash)
		assert.ErrorIs(t, err, adapter.ErrNotFound)
	})

	t.Run("wrong hash never consumes", func(t *testing.T) {
		require.NoError(t, m.CreateVerificationToken(ctx, vt))

		_, err := m.UseVerificationToken(ctx, vt.Identifier, "other-hash")
		assert.ErrorIs(t, err, adapter.ErrNotFound)

		// Original still consumable.
		_, err = m.UseVerificationToken(ctx, vt.Identifier, vt.TokenHash)
		assert.NoError(t, err)
	})
}

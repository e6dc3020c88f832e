package secrets_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/authkit/pkg/secrets"
)

const testSecret = "test-secret-used-only-in-unit-tests-0123456789"

func TestNewKeyring(t *testing.T) {
	t.Parallel()

	t.Run("rejects empty list", func(t *testing.T) {
		t.Parallel()

		_, err := secrets.NewKeyring(nil)
		assert.ErrorIs(t, err, secrets.ErrNoSecret)

		_, err = secrets.NewKeyring([]string{"", ""})
		assert.ErrorIs(t, err, secrets.ErrNoSecret)
	})

	t.Run("rejects short secrets", func(t *testing.T) {
		t.Parallel()

		_, err := secrets.NewKeyring([]string{"too-short"})
		assert.ErrorIs(t, err, secrets.ErrSecretTooShort)
	})

	t.Run("accepts valid secrets and drops empties", func(t *testing.T) {
		t.Parallel()

		k, err := secrets.NewKeyring([]string{testSecret, "", testSecret + "-old"})
		require.NoError(t, err)
		assert.Len(t, k.Derive("session"), 2)
	})
}

func TestKeyring_Derive(t *testing.T) {
	t.Parallel()

	k, err := secrets.NewKeyring([]string{testSecret})
	require.NoError(t, err)

	t.Run("deterministic per purpose", func(t *testing.T) {
		t.Parallel()

		a := k.Derive("session")
		b := k.Derive("session")
		require.Len(t, a, 1)
		assert.Equal(t, a[0], b[0])
		assert.Len(t, a[0], secrets.KeySize)
	})

	t.Run("distinct purposes yield distinct keys", func(t *testing.T) {
		t.Parallel()

		session := k.Derive("session")
		state := k.Derive("state")
		assert.NotEqual(t, session[0], state[0])
	})

	t.Run("preserves newest-first secret order", func(t *testing.T) {
		t.Parallel()

		rotated, err := secrets.NewKeyring([]string{testSecret + "-new", testSecret})
		require.NoError(t, err)

		current, err := secrets.NewKeyring([]string{testSecret})
		require.NoError(t, err)

		// Old secret's key must appear second in the rotated keyring.
		assert.Equal(t, current.Derive("csrf")[0], rotated.Derive("csrf")[1])
	})
}

func TestRandomToken(t *testing.T) {
	t.Parallel()

	a, err := secrets.RandomToken(32)
	require.NoError(t, err)
	b, err := secrets.RandomToken(32)
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.Len(t, a, 43) // 32 bytes base64url without padding
}

func TestEqual(t *testing.T) {
	t.Parallel()

	assert.True(t, secrets.Equal("abc", "abc"))
	assert.False(t, secrets.Equal("abc", "abd"))
	assert.False(t, secrets.Equal("abc", "abcd"))
	assert.True(t, secrets.Equal("", ""))
}

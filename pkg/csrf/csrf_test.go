package csrf_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/authkit/pkg/csrf"
	"github.com/dmitrymomot/authkit/pkg/secrets"
)

func newManager(t *testing.T, secretList ...string) *csrf.Manager {
	t.Helper()
	if len(secretList) == 0 {
		secretList = []string{"test-secret-used-only-in-unit-tests-0123456789"}
	}
	k, err := secrets.NewKeyring(secretList)
	require.NoError(t, err)
	m, err := csrf.New(k.Derive("csrf"))
	require.NoError(t, err)
	return m
}

func TestNew(t *testing.T) {
	t.Parallel()

	_, err := csrf.New(nil)
	assert.ErrorIs(t, err, csrf.ErrNoKeys)
}

func TestManager_IssueVerify(t *testing.T) {
	t.Parallel()

	m := newManager(t)

	t.Run("matching pair verifies", func(t *testing.T) {
		t.Parallel()

		cookieToken, pageToken, err := m.Issue()
		require.NoError(t, err)
		assert.NotEmpty(t, cookieToken)
		assert.NotEqual(t, cookieToken, pageToken)

		assert.True(t, m.Verify(cookieToken, pageToken))
	})

	t.Run("pairs from different issues never match", func(t *testing.T) {
		t.Parallel()

		cookieA, pageA, err := m.Issue()
		require.NoError(t, err)
		cookieB, pageB, err := m.Issue()
		require.NoError(t, err)

		assert.False(t, m.Verify(cookieA, pageB))
		assert.False(t, m.Verify(cookieB, pageA))
	})

	t.Run("missing values fail hard", func(t *testing.T) {
		t.Parallel()

		cookieToken, pageToken, err := m.Issue()
		require.NoError(t, err)

		assert.False(t, m.Verify("", pageToken))
		assert.False(t, m.Verify(cookieToken, ""))
		assert.False(t, m.Verify("", ""))
	})

	t.Run("cookie token is not a valid page token", func(t *testing.T) {
		t.Parallel()

		cookieToken, _, err := m.Issue()
		require.NoError(t, err)
		assert.False(t, m.Verify(cookieToken, cookieToken))
	})
}

func TestManager_PageToken(t *testing.T) {
	t.Parallel()

	m := newManager(t)

	cookieToken, pageToken, err := m.Issue()
	require.NoError(t, err)

	// Recomputing for the same cookie yields the same page token.
	assert.Equal(t, pageToken, m.PageToken(cookieToken))
}

func TestManager_KeyRotation(t *testing.T) {
	t.Parallel()

	const (
		oldSecret = "old-secret-used-only-in-unit-tests-0123456789"
		newSecret = "new-secret-used-only-in-unit-tests-0123456789"
	)

	oldManager := newManager(t, oldSecret)
	rotated := newManager(t, newSecret, oldSecret)

	cookieToken, pageToken, err := oldManager.Issue()
	require.NoError(t, err)

	// A form rendered before rotation still verifies afterwards.
	assert.True(t, rotated.Verify(cookieToken, pageToken))

	// But a manager without the old secret rejects it.
	fresh := newManager(t, newSecret)
	assert.False(t, fresh.Verify(cookieToken, pageToken))
}

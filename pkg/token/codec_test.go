package token_test

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/authkit/pkg/secrets"
	"github.com/dmitrymomot/authkit/pkg/token"
)

type testClaims struct {
	token.RegisteredClaims
	Email string `json:"email,omitempty"`
}

func testKeys(t *testing.T, purpose string, secretList ...string) [][]byte {
	t.Helper()
	if len(secretList) == 0 {
		secretList = []string{"test-secret-used-only-in-unit-tests-0123456789"}
	}
	k, err := secrets.NewKeyring(secretList)
	require.NoError(t, err)
	return k.Derive(purpose)
}

func TestNewCodec(t *testing.T) {
	t.Parallel()

	t.Run("rejects empty key list", func(t *testing.T) {
		t.Parallel()

		_, err := token.NewCodec(nil)
		assert.ErrorIs(t, err, token.ErrNoKeys)
	})

	t.Run("rejects wrong key size", func(t *testing.T) {
		t.Parallel()

		_, err := token.NewCodec([][]byte{[]byte("short")})
		assert.ErrorIs(t, err, token.ErrInvalidKeySize)
	})
}

func TestCodec_RoundTrip(t *testing.T) {
	t.Parallel()

	claims := testClaims{
		RegisteredClaims: token.RegisteredClaims{
			Subject:   "user-1",
			IssuedAt:  time.Now().Unix(),
			ExpiresAt: time.Now().Add(time.Hour).Unix(),
		},
		Email: "user@example.com",
	}

	t.Run("signed mode", func(t *testing.T) {
		t.Parallel()

		codec, err := token.NewCodec(testKeys(t, "session"))
		require.NoError(t, err)

		tok, err := codec.Encode(claims)
		require.NoError(t, err)
		assert.Len(t, strings.Split(tok, "."), 3)

		var got testClaims
		require.NoError(t, codec.Decode(tok, &got))
		assert.Equal(t, claims, got)
	})

	t.Run("encrypted mode", func(t *testing.T) {
		t.Parallel()

		codec, err := token.NewCodec(testKeys(t, "session"), token.WithEncryption())
		require.NoError(t, err)

		tok, err := codec.Encode(claims)
		require.NoError(t, err)
		assert.Len(t, strings.Split(tok, "."), 2)
		// Claims must not be readable from the token itself.
		assert.NotContains(t, tok, base64.RawURLEncoding.EncodeToString([]byte("user@example.com")))

		var got testClaims
		require.NoError(t, codec.Decode(tok, &got))
		assert.Equal(t, claims, got)
	})
}

func TestCodec_Decode_FailsClosed(t *testing.T) {
	t.Parallel()

	codec, err := token.NewCodec(testKeys(t, "session"))
	require.NoError(t, err)

	valid, err := codec.Encode(testClaims{
		RegisteredClaims: token.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: time.Now().Add(time.Hour).Unix(),
		},
	})
	require.NoError(t, err)

	t.Run("malformed structure", func(t *testing.T) {
		t.Parallel()

		for _, tok := range []string{"", "a", "a.b.c.d", "!!!.###.$$$"} {
			var got testClaims
			assert.Error(t, codec.Decode(tok, &got), "token %q", tok)
		}
	})

	t.Run("any flipped signature bit invalidates", func(t *testing.T) {
		t.Parallel()

		parts := strings.Split(valid, ".")
		sig, err := base64.RawURLEncoding.DecodeString(parts[2])
		require.NoError(t, err)

		for i := range sig {
			for bit := range 8 {
				mutated := append([]byte(nil), sig...)
				mutated[i] ^= 1 << bit
				tok := parts[0] + "." + parts[1] + "." + base64.RawURLEncoding.EncodeToString(mutated)

				var got testClaims
				assert.ErrorIs(t, codec.Decode(tok, &got), token.ErrInvalidSignature)
			}
		}
	})

	t.Run("tampered payload invalidates", func(t *testing.T) {
		t.Parallel()

		parts := strings.Split(valid, ".")
		forged := base64.RawURLEncoding.EncodeToString([]byte(`{"sub":"user-2"}`))
		tok := parts[0] + "." + forged + "." + parts[2]

		var got testClaims
		require.Error(t, codec.Decode(tok, &got))
		assert.Empty(t, got.Subject)
	})

	t.Run("expired claims", func(t *testing.T) {
		t.Parallel()

		tok, err := codec.Encode(testClaims{
			RegisteredClaims: token.RegisteredClaims{
				Subject:   "user-1",
				ExpiresAt: time.Now().Add(-time.Hour).Unix(),
			},
		})
		require.NoError(t, err)

		var got testClaims
		assert.ErrorIs(t, codec.Decode(tok, &got), token.ErrExpiredToken)
	})

	t.Run("wrong key", func(t *testing.T) {
		t.Parallel()

		other, err := token.NewCodec(testKeys(t, "session", "another-secret-used-only-in-unit-tests-xyz"))
		require.NoError(t, err)

		var got testClaims
		assert.ErrorIs(t, other.Decode(valid, &got), token.ErrInvalidSignature)
	})

	t.Run("purpose mismatch", func(t *testing.T) {
		t.Parallel()

		stateCodec, err := token.NewCodec(testKeys(t, "state"))
		require.NoError(t, err)

		var got testClaims
		assert.ErrorIs(t, stateCodec.Decode(valid, &got), token.ErrInvalidSignature)
	})

	t.Run("encrypted token rejected by signing codec", func(t *testing.T) {
		t.Parallel()

		sealed, err := token.NewCodec(testKeys(t, "session"), token.WithEncryption())
		require.NoError(t, err)

		tok, err := sealed.Encode(testClaims{})
		require.NoError(t, err)

		// Same keys, but the signed-mode decode path must still verify the
		// GCM tag; a truncated or modified ciphertext fails.
		tampered := tok[:len(tok)-2]
		var got testClaims
		assert.Error(t, sealed.Decode(tampered, &got))
	})
}

func TestCodec_KeyRotation(t *testing.T) {
	t.Parallel()

	const (
		oldSecret = "old-secret-used-only-in-unit-tests-0123456789"
		newSecret = "new-secret-used-only-in-unit-tests-0123456789"
	)

	claims := testClaims{
		RegisteredClaims: token.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: time.Now().Add(time.Hour).Unix(),
		},
	}

	for _, mode := range []struct {
		name string
		opts []token.Option
	}{
		{name: "signed"},
		{name: "encrypted", opts: []token.Option{token.WithEncryption()}},
	} {
		t.Run(mode.name, func(t *testing.T) {
			t.Parallel()

			oldCodec, err := token.NewCodec(testKeys(t, "session", oldSecret), mode.opts...)
			require.NoError(t, err)
			rotated, err := token.NewCodec(testKeys(t, "session", newSecret, oldSecret), mode.opts...)
			require.NoError(t, err)

			oldTok, err := oldCodec.Encode(claims)
			require.NoError(t, err)

			// Tokens from the rotated-out secret still decode.
			var got testClaims
			require.NoError(t, rotated.Decode(oldTok, &got))
			assert.Equal(t, claims, got)

			// New tokens are minted with the current secret only.
			newTok, err := rotated.Encode(claims)
			require.NoError(t, err)
			var fromOld testClaims
			assert.Error(t, oldCodec.Decode(newTok, &fromOld))
		})
	}
}

func TestRegisteredClaims_Valid(t *testing.T) {
	t.Parallel()

	now := time.Now()

	t.Run("zero values skipped", func(t *testing.T) {
		t.Parallel()
		assert.NoError(t, token.RegisteredClaims{}.Valid())
	})

	t.Run("leeway tolerates small skew", func(t *testing.T) {
		t.Parallel()
		c := token.RegisteredClaims{ExpiresAt: now.Add(-5 * time.Second).Unix()}
		assert.NoError(t, c.Valid())
	})

	t.Run("expired beyond leeway", func(t *testing.T) {
		t.Parallel()
		c := token.RegisteredClaims{ExpiresAt: now.Add(-time.Minute).Unix()}
		assert.ErrorIs(t, c.Valid(), token.ErrExpiredToken)
	})

	t.Run("not yet valid", func(t *testing.T) {
		t.Parallel()
		c := token.RegisteredClaims{NotBefore: now.Add(time.Minute).Unix()}
		assert.ErrorIs(t, c.Valid(), token.ErrNotYetValid)
	})
}

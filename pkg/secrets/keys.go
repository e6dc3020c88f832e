package secrets

import (
	"crypto/sha256"
	"crypto/subtle"
	"fmt"
	"io"
	"slices"

	"golang.org/x/crypto/hkdf"
)

const (
	// KeySize is the length of every derived key: 256 bits, enough for both
	// HMAC-SHA256 and AES-256-GCM.
	KeySize = 32

	// minSecretLength guards against weak configured secrets.
	minSecretLength = 32

	// salt provides domain separation from any other HKDF user of the same secret.
	salt = "authkit-hkdf-v1"
)

// Keyring holds the ordered list of configured secrets, newest first.
// Derived keys for signing always come from the first secret; verification
// walks the whole list so old tokens stay valid during rotation.
type Keyring struct {
	secrets []string
}

// NewKeyring validates the secret list and returns a keyring. Empty entries
// are dropped; at least one secret of 32+ characters is required.
func NewKeyring(secrets []string) (*Keyring, error) {
	secrets = slices.DeleteFunc(slices.Clone(secrets), func(s string) bool { return s == "" })
	if len(secrets) == 0 {
		return nil, ErrNoSecret
	}

	for i, s := range secrets {
		if len(s) < minSecretLength {
			return nil, fmt.Errorf("%w: secret %d has %d chars, need at least %d", ErrSecretTooShort, i, len(s), minSecretLength)
		}
	}

	return &Keyring{secrets: secrets}, nil
}

// Derive returns one key per configured secret for the given purpose,
// preserving newest-first order. Keys for distinct purposes are
// cryptographically unrelated.
func (k *Keyring) Derive(purpose string) [][]byte {
	keys := make([][]byte, len(k.secrets))
	for i, s := range k.secrets {
		keys[i] = deriveKey(s, purpose)
	}
	return keys
}

// deriveKey expands a single secret into a purpose-bound 32-byte key.
func deriveKey(secret, purpose string) []byte {
	r := hkdf.New(sha256.New, []byte(secret), []byte(salt), []byte(purpose))
	key := make([]byte, KeySize)
	if _, err := io.ReadFull(r, key); err != nil {
		// hkdf.Reader only errors after exhausting 255 blocks; unreachable for 32 bytes.
		panic(fmt.Sprintf("secrets: hkdf expand failed: %v", err))
	}
	return key
}

// Equal compares two strings in constant time.
func Equal(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

package token

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// Header algorithm identifiers. HS256 covers the signed mode, dir/A256GCM the
// encrypted mode (direct symmetric encryption, no key wrapping).
const (
	headerType   = "JWT"
	algSigned    = "HS256"
	algEncrypted = "dir"
	encAESGCM    = "A256GCM"
	signedParts  = 3
	sealedParts  = 2
	minKeyLength = 32
)

type header struct {
	Type       string `json:"typ"`
	Algorithm  string `json:"alg"`
	Encryption string `json:"enc,omitempty"`
}

// Codec encodes and decodes compact tokens with an ordered key list.
// It is safe for concurrent use; all state is immutable after construction.
type Codec struct {
	keys    [][]byte
	encrypt bool
}

// Option configures a Codec during construction.
type Option func(*Codec)

// WithEncryption switches the codec from HMAC signing to AES-256-GCM sealing,
// hiding the payload from the token holder.
func WithEncryption() Option {
	return func(c *Codec) {
		c.encrypt = true
	}
}

// NewCodec creates a codec over the given derived keys, newest first.
// Every key must be exactly 32 bytes (see pkg/secrets.Keyring.Derive).
func NewCodec(keys [][]byte, opts ...Option) (*Codec, error) {
	if len(keys) == 0 {
		return nil, ErrNoKeys
	}
	for i, k := range keys {
		if len(k) != minKeyLength {
			return nil, fmt.Errorf("%w: key %d has %d bytes", ErrInvalidKeySize, i, len(k))
		}
	}

	c := &Codec{keys: keys}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Encode serializes claims to JSON and protects them with the current (first)
// key. The claims value may be any JSON-serializable structure.
func (c *Codec) Encode(claims any) (string, error) {
	if claims == nil {
		return "", ErrMissingClaims
	}

	payload, err := json.Marshal(claims)
	if err != nil {
		return "", fmt.Errorf("token: marshal claims: %w", err)
	}

	if c.encrypt {
		return c.seal(payload)
	}
	return c.sign(payload)
}

// Decode verifies the token against each key in order and unmarshals the
// claims. If the claims type implements interface{ Valid() error }, temporal
// validation runs after unmarshaling and its error is returned as-is.
func (c *Codec) Decode(tokenString string, claims any) error {
	if claims == nil {
		return ErrMissingClaims
	}

	parts := strings.Split(tokenString, ".")
	if len(parts) < sealedParts || len(parts) > signedParts {
		return ErrInvalidToken
	}

	headerJSON, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return ErrInvalidToken
	}

	var h header
	if err := json.Unmarshal(headerJSON, &h); err != nil {
		return ErrInvalidToken
	}
	if h.Type != headerType {
		return ErrInvalidToken
	}

	var payload []byte
	switch {
	case h.Algorithm == algSigned && len(parts) == signedParts:
		payload, err = c.verify(parts[0]+"."+parts[1], parts[1], parts[2])
	case h.Algorithm == algEncrypted && h.Encryption == encAESGCM && len(parts) == sealedParts:
		payload, err = c.open(parts[1])
	default:
		return ErrInvalidToken
	}
	if err != nil {
		return err
	}

	if err := json.Unmarshal(payload, claims); err != nil {
		return ErrInvalidToken
	}

	if v, ok := claims.(interface{ Valid() error }); ok {
		return v.Valid()
	}
	return nil
}

func (c *Codec) sign(payload []byte) (string, error) {
	headerJSON, err := json.Marshal(header{Type: headerType, Algorithm: algSigned})
	if err != nil {
		return "", fmt.Errorf("token: marshal header: %w", err)
	}

	signingInput := base64.RawURLEncoding.EncodeToString(headerJSON) + "." + base64.RawURLEncoding.EncodeToString(payload)

	mac := hmac.New(sha256.New, c.keys[0])
	mac.Write([]byte(signingInput))
	sig := base64.RawURLEncoding.EncodeToString(mac.Sum(nil))

	return signingInput + "." + sig, nil
}

// verify checks the signature against every key to support rotation.
func (c *Codec) verify(signingInput, payloadPart, sigPart string) ([]byte, error) {
	sig, err := base64.RawURLEncoding.DecodeString(sigPart)
	if err != nil {
		return nil, ErrInvalidToken
	}

	for _, key := range c.keys {
		mac := hmac.New(sha256.New, key)
		mac.Write([]byte(signingInput))
		if subtle.ConstantTimeCompare(sig, mac.Sum(nil)) == 1 {
			payload, err := base64.RawURLEncoding.DecodeString(payloadPart)
			if err != nil {
				return nil, ErrInvalidToken
			}
			return payload, nil
		}
	}

	return nil, ErrInvalidSignature
}

func (c *Codec) seal(payload []byte) (string, error) {
	headerJSON, err := json.Marshal(header{Type: headerType, Algorithm: algEncrypted, Encryption: encAESGCM})
	if err != nil {
		return "", fmt.Errorf("token: marshal header: %w", err)
	}
	headerPart := base64.RawURLEncoding.EncodeToString(headerJSON)

	gcm, err := newGCM(c.keys[0])
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("token: generate nonce: %w", err)
	}

	// Header is bound as additional data so it cannot be swapped.
	ciphertext := gcm.Seal(nonce, nonce, payload, []byte(headerPart))
	return headerPart + "." + base64.RawURLEncoding.EncodeToString(ciphertext), nil
}

// open tries every key to support rotation; the GCM tag authenticates both
// payload and header.
func (c *Codec) open(ciphertextPart string) ([]byte, error) {
	// Recompute the canonical header rather than trusting the token's bytes.
	headerJSON, err := json.Marshal(header{Type: headerType, Algorithm: algEncrypted, Encryption: encAESGCM})
	if err != nil {
		return nil, fmt.Errorf("token: marshal header: %w", err)
	}
	headerPart := base64.RawURLEncoding.EncodeToString(headerJSON)

	ciphertext, err := base64.RawURLEncoding.DecodeString(ciphertextPart)
	if err != nil {
		return nil, ErrInvalidToken
	}

	for _, key := range c.keys {
		gcm, err := newGCM(key)
		if err != nil {
			continue
		}
		if len(ciphertext) < gcm.NonceSize() {
			return nil, ErrInvalidToken
		}
		nonce, sealed := ciphertext[:gcm.NonceSize()], ciphertext[gcm.NonceSize():]
		if payload, err := gcm.Open(nil, nonce, sealed, []byte(headerPart)); err == nil {
			return payload, nil
		}
	}

	return nil, ErrDecryptionFailed
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("token: init cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("token: init gcm: %w", err)
	}
	return gcm, nil
}

// Package state manages the per-attempt OAuth artifacts: the state parameter,
// the OIDC nonce, and the PKCE verifier/challenge pair.
//
// Begin generates fresh random values and binds them together with the
// sanitized return URL inside one encrypted, short-TTL cookie payload. The
// payload reuses the pkg/token codec under the dedicated "state" purpose, so
// it can never be replayed as a session token (and vice versa).
//
// Consume is the callback-side half and the primary CSRF defense on the OAuth
// callback: it decrypts the envelope, rejects it when absent or expired, and
// requires the state echoed by the provider to match the embedded one exactly
// before the caller is allowed to talk to the token endpoint. The PKCE code
// verifier is only ever released through Consume; it never appears in a URL.
package state

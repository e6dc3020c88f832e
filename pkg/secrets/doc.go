// Package secrets provides the cryptographic primitives shared by the rest of
// the authentication engine: purpose-scoped key derivation, random token
// generation, and constant-time comparison.
//
// Every component that signs or encrypts data derives its key from the
// application secret list via HKDF-SHA256 with a purpose string. Distinct
// purposes yield unrelated keys, so a token minted for one purpose (say, the
// OAuth state cookie) can never verify under another (the session cookie),
// even though both are rooted in the same configured secret.
//
// # Usage
//
//	keys, err := secrets.NewKeyring([]string{os.Getenv("AUTHKIT_SECRET")})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Newest-first keys for the "session" purpose; index 0 is the signing key,
//	// the rest are accepted during rotation.
//	sessionKeys := keys.Derive("session")
//
// Random tokens are base64url-encoded and safe for cookies and query strings:
//
//	state, err := secrets.RandomToken(32)
package secrets

// Package token implements the compact session token codec used for stateless
// sessions and for the ephemeral OAuth state envelope.
//
// Tokens are JWT-shaped. In the default signed mode the payload is protected
// by HMAC-SHA256 (header.payload.signature). With encryption enabled the
// payload is sealed with AES-256-GCM instead (header.ciphertext), hiding the
// claims from the client in addition to authenticating them.
//
// Keys are never the raw configured secrets: the codec takes a purpose-bound
// key list derived via pkg/secrets, newest first. Encode always uses the first
// key; Decode tries each key in order so tokens minted under a rotated-out
// secret remain valid until they expire.
//
// Decode fails closed. A malformed structure, an unknown algorithm, a
// signature or GCM-tag mismatch, or an expired claim set all yield an error
// and never a partially-populated claims value.
//
// # Usage
//
//	keys := keyring.Derive("session")
//	codec, err := token.NewCodec(keys)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	tok, err := codec.Encode(claims)
//	...
//	var claims SessionClaims
//	if err := codec.Decode(tok, &claims); err != nil {
//	    // treat as unauthenticated
//	}
package token

// Package provider implements the per-protocol sign-in drivers: OAuth2, OIDC
// (OAuth2 plus ID-token validation), email magic links, and caller-verified
// credentials.
//
// Drivers share a small capability surface (build an authorization request,
// handle the callback) dispatched by provider type rather than inheritance.
// The OAuth-family drivers wrap golang.org/x/oauth2 for the code exchange and
// never see cookies or sessions: state and PKCE artifacts are produced and
// validated by pkg/state before a driver is invoked, and the code verifier is
// handed to the driver only for the token-endpoint call.
//
// OIDC ID tokens are verified with github.com/coreos/go-oidc against the
// issuer's published keys; signature, iss, aud, exp, and nonce must all check
// out or the callback fails with ErrInvalidIDToken.
//
// Construction validates configuration eagerly. A provider with a missing
// client ID or issuer fails at startup, not on the first sign-in.
package provider

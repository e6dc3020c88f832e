// Package csrf implements double-submit CSRF protection for the engine's
// state-changing routes.
//
// Issue produces a pair: a high-entropy random value destined for an HttpOnly
// cookie, and a page token derived from it via HMAC with a server-held key.
// The page token is what forms embed and what clients echo back on POST. An
// attacker who can plant cookies but cannot read the page is unable to
// produce a matching pair, because the derivation key never leaves the
// server.
//
// Verify recomputes the page token from the cookie value and compares it to
// the submitted value in constant time. Missing or mismatched values are hard
// failures; callers must reject the request rather than degrade.
package csrf

package authkit

import "errors"

var (
	// ErrConfiguration signals a fatal startup problem: missing secrets,
	// unknown strategy, a provider without required fields.
	ErrConfiguration = errors.New("authkit: invalid configuration")

	// ErrCsrfMismatch means the double-submit pair failed verification on a
	// state-changing request.
	ErrCsrfMismatch = errors.New("authkit: csrf token mismatch")

	// ErrStateMismatch means the callback's state parameter did not match
	// the envelope issued at sign-in start, or the envelope was absent or
	// expired.
	ErrStateMismatch = errors.New("authkit: oauth state mismatch")

	// ErrInvalidIDToken means the OIDC ID token failed signature, issuer,
	// audience, expiry, or nonce validation.
	ErrInvalidIDToken = errors.New("authkit: invalid id token")

	// ErrTokenExpiredOrUsed means the email sign-in token was already
	// consumed, never existed, or expired before use.
	ErrTokenExpiredOrUsed = errors.New("authkit: verification token expired or used")

	// ErrAccountLinkingRequired means the callback identity matched an
	// existing user by email but the configured linking policy refused to
	// merge them automatically.
	ErrAccountLinkingRequired = errors.New("authkit: account linking required")

	// ErrAdapterFailure wraps any storage error. Possibly transient, but the
	// engine never retries.
	ErrAdapterFailure = errors.New("authkit: adapter failure")

	// ErrProviderHTTP wraps network or upstream failures talking to the
	// identity provider. Possibly transient, never retried here.
	ErrProviderHTTP = errors.New("authkit: identity provider request failed")

	// ErrInvalidCredentials means the credentials provider rejected the
	// submitted credentials.
	ErrInvalidCredentials = errors.New("authkit: invalid credentials")

	// ErrUnknownProvider means the route named a provider id that was never
	// registered.
	ErrUnknownProvider = errors.New("authkit: unknown provider")
)

// Browser-facing error codes. Failures leave the engine as a redirect to the
// error route carrying one of these; the full error only reaches the logger.
const (
	CodeConfiguration          = "Configuration"
	CodeCsrfMismatch           = "CsrfMismatch"
	CodeStateMismatch          = "StateMismatch"
	CodeInvalidIDToken         = "InvalidIdToken"
	CodeTokenExpiredOrUsed     = "TokenExpiredOrUsed"
	CodeAccountLinkingRequired = "AccountLinkingRequired"
	CodeAdapterFailure         = "AdapterFailure"
	CodeProviderHTTPError      = "ProviderHttpError"
	CodeInvalidCredentials     = "CredentialsSignin"
	CodeUnknownProvider        = "UnknownProvider"
	CodeInternal               = "Internal"
)

// errorCode maps an engine error to its coarse browser-facing code.
func errorCode(err error) string {
	switch {
	case errors.Is(err, ErrConfiguration):
		return CodeConfiguration
	case errors.Is(err, ErrCsrfMismatch):
		return CodeCsrfMismatch
	case errors.Is(err, ErrStateMismatch):
		return CodeStateMismatch
	case errors.Is(err, ErrInvalidIDToken):
		return CodeInvalidIDToken
	case errors.Is(err, ErrTokenExpiredOrUsed):
		return CodeTokenExpiredOrUsed
	case errors.Is(err, ErrAccountLinkingRequired):
		return CodeAccountLinkingRequired
	case errors.Is(err, ErrAdapterFailure):
		return CodeAdapterFailure
	case errors.Is(err, ErrProviderHTTP):
		return CodeProviderHTTPError
	case errors.Is(err, ErrInvalidCredentials):
		return CodeInvalidCredentials
	case errors.Is(err, ErrUnknownProvider):
		return CodeUnknownProvider
	default:
		return CodeInternal
	}
}

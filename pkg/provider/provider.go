package provider

import (
	"context"
	"time"
)

// Type tags the protocol a provider speaks.
type Type string

const (
	TypeOAuth2      Type = "oauth"
	TypeOIDC        Type = "oidc"
	TypeEmail       Type = "email"
	TypeCredentials Type = "credentials"
)

// Checks selects which callback protections a provider enforces. Most OAuth2
// providers want State and PKCE; OIDC adds Nonce. A provider that cannot
// handle a PKCE parameter can switch it off without losing the state check.
type Checks struct {
	State bool
	PKCE  bool
	Nonce bool
}

// Profile is the normalized identity a driver returns from a successful
// callback.
type Profile struct {
	ProviderAccountID string
	Email             string
	EmailVerified     bool
	Name              string
	Image             string
}

// TokenSet carries the provider-issued tokens persisted on the linked
// Account.
type TokenSet struct {
	AccessToken  string
	RefreshToken string
	IDToken      string
	ExpiresAt    time.Time
}

// Provider is the minimal surface every driver exposes; the engine dispatches
// on Type to the capability interfaces below.
type Provider interface {
	ID() string
	Type() Type
}

// AuthCodeRequest is the per-attempt input for building an authorization URL.
// Fields the provider's Checks exclude are left empty.
type AuthCodeRequest struct {
	State         string
	Nonce         string
	CodeChallenge string
}

// CallbackRequest is the input for completing an OAuth-family callback.
type CallbackRequest struct {
	Code         string
	CodeVerifier string
	Nonce        string
}

// OAuthDriver is the capability set shared by OAuth2 and OIDC providers.
type OAuthDriver interface {
	Provider

	// Checks reports which protections the engine must apply for this provider.
	Checks() Checks

	// AuthorizationURL composes the redirect target for the sign-in start.
	AuthorizationURL(req AuthCodeRequest) (string, error)

	// HandleCallback exchanges the code for tokens and resolves the profile.
	// The engine only calls this after the state envelope validated.
	HandleCallback(ctx context.Context, req CallbackRequest) (*Profile, *TokenSet, error)
}

package provider

import (
	"context"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	"github.com/dmitrymomot/authkit/pkg/secrets"
)

// OIDCConfig configures an OpenID Connect provider. Endpoints and signing
// keys are discovered from the issuer.
type OIDCConfig struct {
	ID           string
	Issuer       string   `env:"OIDC_ISSUER,required"`
	ClientID     string   `env:"OIDC_CLIENT_ID,required"`
	ClientSecret string   `env:"OIDC_CLIENT_SECRET,required"`
	RedirectURL  string   `env:"OIDC_REDIRECT_URL,required"`
	Scopes       []string `env:"OIDC_SCOPES" envSeparator:","`

	// Checks defaults to state+PKCE+nonce when left zero.
	Checks Checks
}

// OIDC is the OpenID Connect driver: OAuth2 code exchange plus full ID-token
// validation against the issuer's JWKS.
type OIDC struct {
	id       string
	conf     *oauth2.Config
	verifier *oidc.IDTokenVerifier
	checks   Checks
}

// NewOIDC performs issuer discovery and builds the driver. The context bounds
// the discovery request only.
func NewOIDC(ctx context.Context, cfg OIDCConfig) (*OIDC, error) {
	if cfg.ID == "" {
		return nil, fmt.Errorf("%w: provider id is required", ErrInvalidConfig)
	}
	if cfg.Issuer == "" {
		return nil, fmt.Errorf("%w: %s: issuer is required", ErrInvalidConfig, cfg.ID)
	}
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, fmt.Errorf("%w: %s: client id and secret are required", ErrInvalidConfig, cfg.ID)
	}
	if cfg.RedirectURL == "" {
		return nil, fmt.Errorf("%w: %s: redirect url is required", ErrInvalidConfig, cfg.ID)
	}

	oidcProvider, err := oidc.NewProvider(ctx, cfg.Issuer)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: discovery failed: %v", ErrInvalidConfig, cfg.ID, err)
	}

	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = []string{oidc.ScopeOpenID, "profile", "email"}
	}

	checks := cfg.Checks
	if checks == (Checks{}) {
		checks = Checks{State: true, PKCE: true, Nonce: true}
	}

	return &OIDC{
		id: cfg.ID,
		conf: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     oidcProvider.Endpoint(),
			Scopes:       scopes,
		},
		verifier: oidcProvider.Verifier(&oidc.Config{ClientID: cfg.ClientID}),
		checks:   checks,
	}, nil
}

func (p *OIDC) ID() string     { return p.id }
func (p *OIDC) Type() Type     { return TypeOIDC }
func (p *OIDC) Checks() Checks { return p.checks }

func (p *OIDC) AuthorizationURL(req AuthCodeRequest) (string, error) {
	opts := []oauth2.AuthCodeOption{}
	if p.checks.Nonce && req.Nonce != "" {
		opts = append(opts, oidc.Nonce(req.Nonce))
	}
	if p.checks.PKCE && req.CodeChallenge != "" {
		opts = append(opts,
			oauth2.SetAuthURLParam("code_challenge", req.CodeChallenge),
			oauth2.SetAuthURLParam("code_challenge_method", "S256"),
		)
	}
	return p.conf.AuthCodeURL(req.State, opts...), nil
}

// HandleCallback exchanges the code and validates the returned ID token:
// signature against the issuer's keys, iss, aud, exp, and, when the nonce
// check is on, the nonce minted at sign-in start. Any failure is
// ErrInvalidIDToken; the access token is never trusted on its own.
func (p *OIDC) HandleCallback(ctx context.Context, req CallbackRequest) (*Profile, *TokenSet, error) {
	opts := []oauth2.AuthCodeOption{}
	if p.checks.PKCE && req.CodeVerifier != "" {
		opts = append(opts, oauth2.SetAuthURLParam("code_verifier", req.CodeVerifier))
	}

	tok, err := p.conf.Exchange(ctx, req.Code, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %s: %v", ErrExchangeFailed, p.id, err)
	}

	rawIDToken, ok := tok.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return nil, nil, fmt.Errorf("%w: %s: token response missing id_token", ErrInvalidIDToken, p.id)
	}

	idToken, err := p.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %s: %v", ErrInvalidIDToken, p.id, err)
	}

	if p.checks.Nonce {
		if idToken.Nonce == "" || !secrets.Equal(idToken.Nonce, req.Nonce) {
			return nil, nil, fmt.Errorf("%w: %s: nonce mismatch", ErrInvalidIDToken, p.id)
		}
	}

	var claims struct {
		Subject       string `json:"sub"`
		Email         string `json:"email"`
		EmailVerified bool   `json:"email_verified"`
		Name          string `json:"name"`
		Picture       string `json:"picture"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return nil, nil, fmt.Errorf("%w: %s: %v", ErrInvalidIDToken, p.id, err)
	}

	return &Profile{
		ProviderAccountID: claims.Subject,
		Email:             claims.Email,
		EmailVerified:     claims.EmailVerified,
		Name:              claims.Name,
		Image:             claims.Picture,
	}, tokenSet(tok), nil
}

// GoogleConfig holds Google OIDC configuration.
type GoogleConfig struct {
	ClientID     string   `env:"GOOGLE_OAUTH_CLIENT_ID,required"`
	ClientSecret string   `env:"GOOGLE_OAUTH_CLIENT_SECRET,required"`
	RedirectURL  string   `env:"GOOGLE_OAUTH_REDIRECT_URL,required"`
	Scopes       []string `env:"GOOGLE_OAUTH_SCOPES" envSeparator:","`
}

// NewGoogle creates the Google driver on top of OIDC discovery.
func NewGoogle(ctx context.Context, cfg GoogleConfig) (*OIDC, error) {
	return NewOIDC(ctx, OIDCConfig{
		ID:           "google",
		Issuer:       "https://accounts.google.com",
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURL,
		Scopes:       cfg.Scopes,
	})
}

package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"
)

// ProfileFunc resolves a normalized profile after the code exchange. The
// client is pre-authorized with the exchanged token.
type ProfileFunc func(ctx context.Context, client *http.Client) (*Profile, error)

// OAuth2Config configures a generic OAuth2 provider.
type OAuth2Config struct {
	ID           string
	ClientID     string `env:"OAUTH_CLIENT_ID,required"`
	ClientSecret string `env:"OAUTH_CLIENT_SECRET,required"`
	RedirectURL  string `env:"OAUTH_REDIRECT_URL,required"`
	AuthURL      string
	TokenURL     string
	UserinfoURL  string
	Scopes       []string `env:"OAUTH_SCOPES" envSeparator:","`

	// Checks defaults to state+PKCE when left zero.
	Checks Checks

	// Profile overrides the default userinfo fetch, for providers whose
	// profile needs more than one endpoint (see NewGitHub).
	Profile ProfileFunc
}

// OAuth2 is the generic authorization-code driver.
type OAuth2 struct {
	id      string
	conf    *oauth2.Config
	userURL string
	checks  Checks
	profile ProfileFunc
}

// NewOAuth2 validates the configuration and builds the driver.
func NewOAuth2(cfg OAuth2Config) (*OAuth2, error) {
	if cfg.ID == "" {
		return nil, fmt.Errorf("%w: provider id is required", ErrInvalidConfig)
	}
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, fmt.Errorf("%w: %s: client id and secret are required", ErrInvalidConfig, cfg.ID)
	}
	if cfg.RedirectURL == "" {
		return nil, fmt.Errorf("%w: %s: redirect url is required", ErrInvalidConfig, cfg.ID)
	}
	if cfg.AuthURL == "" || cfg.TokenURL == "" {
		return nil, fmt.Errorf("%w: %s: authorization and token endpoints are required", ErrInvalidConfig, cfg.ID)
	}
	if cfg.UserinfoURL == "" && cfg.Profile == nil {
		return nil, fmt.Errorf("%w: %s: userinfo endpoint or profile func is required", ErrInvalidConfig, cfg.ID)
	}

	checks := cfg.Checks
	if checks == (Checks{}) {
		checks = Checks{State: true, PKCE: true}
	}

	return &OAuth2{
		id: cfg.ID,
		conf: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       cfg.Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:  cfg.AuthURL,
				TokenURL: cfg.TokenURL,
			},
		},
		userURL: cfg.UserinfoURL,
		checks:  checks,
		profile: cfg.Profile,
	}, nil
}

func (p *OAuth2) ID() string     { return p.id }
func (p *OAuth2) Type() Type     { return TypeOAuth2 }
func (p *OAuth2) Checks() Checks { return p.checks }

func (p *OAuth2) AuthorizationURL(req AuthCodeRequest) (string, error) {
	opts := []oauth2.AuthCodeOption{}
	if p.checks.PKCE && req.CodeChallenge != "" {
		opts = append(opts,
			oauth2.SetAuthURLParam("code_challenge", req.CodeChallenge),
			oauth2.SetAuthURLParam("code_challenge_method", "S256"),
		)
	}
	return p.conf.AuthCodeURL(req.State, opts...), nil
}

func (p *OAuth2) HandleCallback(ctx context.Context, req CallbackRequest) (*Profile, *TokenSet, error) {
	opts := []oauth2.AuthCodeOption{}
	if p.checks.PKCE && req.CodeVerifier != "" {
		opts = append(opts, oauth2.SetAuthURLParam("code_verifier", req.CodeVerifier))
	}

	tok, err := p.conf.Exchange(ctx, req.Code, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %s: %v", ErrExchangeFailed, p.id, err)
	}

	profile, err := p.resolveProfile(ctx, tok)
	if err != nil {
		return nil, nil, err
	}
	if profile.ProviderAccountID == "" {
		return nil, nil, fmt.Errorf("%w: %s: profile missing account id", ErrProfileFetch, p.id)
	}

	return profile, tokenSet(tok), nil
}

func (p *OAuth2) resolveProfile(ctx context.Context, tok *oauth2.Token) (*Profile, error) {
	client := p.conf.Client(ctx, tok)
	client.Timeout = 10 * time.Second

	if p.profile != nil {
		return p.profile(ctx, client)
	}

	raw, err := fetchJSON(ctx, client, p.userURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrProfileFetch, p.id, err)
	}
	return mapGenericProfile(raw), nil
}

// mapGenericProfile covers the field names most userinfo endpoints agree on.
func mapGenericProfile(raw map[string]any) *Profile {
	profile := &Profile{
		ProviderAccountID: stringClaim(raw, "sub", "id"),
		Email:             stringClaim(raw, "email"),
		Name:              stringClaim(raw, "name", "login"),
		Image:             stringClaim(raw, "picture", "avatar_url"),
	}
	if v, ok := raw["email_verified"].(bool); ok {
		profile.EmailVerified = v
	}
	return profile
}

func stringClaim(raw map[string]any, keys ...string) string {
	for _, key := range keys {
		switch v := raw[key].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			return fmt.Sprintf("%.0f", v)
		case json.Number:
			return v.String()
		}
	}
	return ""
}

func tokenSet(tok *oauth2.Token) *TokenSet {
	ts := &TokenSet{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ExpiresAt:    tok.Expiry,
	}
	if idToken, ok := tok.Extra("id_token").(string); ok {
		ts.IDToken = idToken
	}
	return ts
}

func fetchJSON(ctx context.Context, client *http.Client, url string) (map[string]any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("endpoint returned status %d", resp.StatusCode)
	}

	var raw map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, err
	}
	return raw, nil
}

package authkit

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrymomot/authkit/pkg/adapter"
	"github.com/dmitrymomot/authkit/pkg/cookie"
	"github.com/dmitrymomot/authkit/pkg/provider"
)

// returnToParam names the form/query field carrying the post-sign-in
// destination.
const returnToParam = "return_to"

// signIn starts a sign-in attempt with the named provider.
func (e *Engine) signIn(ctx context.Context, req *Request, providerID string) (*Response, error) {
	p, err := e.provider(providerID)
	if err != nil {
		return nil, err
	}

	if req.Method == http.MethodPost {
		if err := e.verifyCSRF(req); err != nil {
			return nil, err
		}
	}

	switch drv := p.(type) {
	case provider.OAuthDriver:
		return e.startOAuth(req, drv)
	case *provider.Email:
		if req.Method != http.MethodPost {
			return newResponse(http.StatusMethodNotAllowed), nil
		}
		return e.startEmail(ctx, req, drv)
	case *provider.Credentials:
		if req.Method != http.MethodPost {
			return newResponse(http.StatusMethodNotAllowed), nil
		}
		return e.credentialsSignIn(ctx, req, drv)
	default:
		return nil, fmt.Errorf("%w: provider %q has no sign-in capability", ErrConfiguration, providerID)
	}
}

// startOAuth issues the state/PKCE envelope and redirects to the provider's
// authorization endpoint. The envelope cookie is the only record of the
// attempt until the callback returns.
func (e *Engine) startOAuth(req *Request, drv provider.OAuthDriver) (*Response, error) {
	checks := drv.Checks()
	returnTo := sanitizeReturnTo(req.FormValue(returnToParam))

	authReq := provider.AuthCodeRequest{}

	if checks.State || checks.PKCE || checks.Nonce {
		attempt, err := e.state.Begin(returnTo, checks.Nonce)
		if err != nil {
			return nil, fmt.Errorf("authkit: begin sign-in attempt: %w", err)
		}

		authReq.State = attempt.State
		if checks.Nonce {
			authReq.Nonce = attempt.Nonce
		}
		if checks.PKCE {
			authReq.CodeChallenge = attempt.CodeChallenge
		}

		authURL, err := drv.AuthorizationURL(authReq)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrProviderHTTP, err)
		}

		resp := redirectResponse(authURL)
		resp.SetCookie(e.cookies.Bake(e.names.State, attempt.CookiePayload,
			cookie.WithMaxAge(int(e.state.TTL().Seconds())),
		))
		return resp, nil
	}

	authURL, err := drv.AuthorizationURL(authReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderHTTP, err)
	}
	return redirectResponse(authURL), nil
}

// startEmail mints a single-use token, stores only its hash, and mails the
// raw value as a magic link.
func (e *Engine) startEmail(ctx context.Context, req *Request, drv *provider.Email) (*Response, error) {
	email := normalizeEmail(req.FormValue("email"))
	if email == "" {
		return newResponse(http.StatusBadRequest), nil
	}

	raw, err := drv.GenerateToken()
	if err != nil {
		return nil, fmt.Errorf("authkit: generate verification token: %w", err)
	}

	expiresAt := time.Now().Add(drv.TokenTTL())
	if err := e.store.CreateVerificationToken(ctx, &adapter.VerificationToken{
		Identifier: email,
		TokenHash:  drv.HashToken(raw),
		ExpiresAt:  expiresAt,
	}); err != nil {
		return nil, fmt.Errorf("%w: create verification token: %v", ErrAdapterFailure, err)
	}

	link := strings.TrimSuffix(e.cfg.BaseURL, "/") + e.cfg.BasePath + "/callback/" + drv.ID() +
		"?token=" + url.QueryEscape(raw) +
		"&email=" + url.QueryEscape(email)

	if err := drv.SendSignInLink(ctx, email, link, expiresAt); err != nil {
		return nil, fmt.Errorf("%w: send sign-in link: %v", ErrProviderHTTP, err)
	}

	return jsonResponse(http.StatusOK, map[string]string{
		"message": "sign-in link sent",
	}), nil
}

// credentialsSignIn verifies submitted credentials and establishes a
// stateless session. No adapter record is ever created for this provider
// type.
func (e *Engine) credentialsSignIn(ctx context.Context, req *Request, drv *provider.Credentials) (*Response, error) {
	credentials := make(map[string]string, len(req.Form))
	for key := range req.Form {
		if key == csrfField {
			continue
		}
		credentials[key] = req.Form.Get(key)
	}

	profile, err := drv.Authorize(ctx, credentials)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
	}

	tokenValue, err := e.encodeStatelessSession(sessionSubject{
		ID:    profile.ProviderAccountID,
		Email: profile.Email,
		Name:  profile.Name,
		Image: profile.Image,
	})
	if err != nil {
		return nil, err
	}

	resp := redirectResponse(sanitizeReturnTo(req.FormValue(returnToParam)))
	resp.SetCookie(e.sessionCookie(tokenValue))
	return resp, nil
}

// sanitizeReturnTo restricts post-sign-in redirects to same-origin relative
// paths. Anything absolute, protocol-relative, or malformed falls back to /.
func sanitizeReturnTo(raw string) string {
	if raw == "" || !strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, "//") || strings.HasPrefix(raw, "/\\") {
		return "/"
	}
	u, err := url.Parse(raw)
	if err != nil || u.IsAbs() || u.Host != "" {
		return "/"
	}
	return raw
}

func normalizeEmail(email string) string {
	email = strings.ToLower(strings.TrimSpace(email))
	if !strings.Contains(email, "@") {
		return ""
	}
	return email
}

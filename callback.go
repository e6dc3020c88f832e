package authkit

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/authkit/pkg/adapter"
	"github.com/dmitrymomot/authkit/pkg/provider"
)

// callback completes a sign-in attempt. Validation happens strictly before
// any adapter write: state envelope first, then the provider exchange, and
// only then identity reconciliation and session establishment.
func (e *Engine) callback(ctx context.Context, req *Request, providerID string) (*Response, error) {
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
		return e.oauthCallback(ctx, req, drv)
	case *provider.Email:
		return e.emailCallback(ctx, req, drv)
	case *provider.Credentials:
		if req.Method != http.MethodPost {
			return newResponse(http.StatusMethodNotAllowed), nil
		}
		return e.credentialsSignIn(ctx, req, drv)
	default:
		return nil, fmt.Errorf("%w: provider %q has no callback capability", ErrConfiguration, providerID)
	}
}

func (e *Engine) oauthCallback(ctx context.Context, req *Request, drv provider.OAuthDriver) (*Response, error) {
	if upstream := req.FormValue("error"); upstream != "" {
		return nil, fmt.Errorf("%w: %s: provider returned %q", ErrProviderHTTP, drv.ID(), upstream)
	}

	checks := drv.Checks()
	returnTo := "/"

	cbReq := provider.CallbackRequest{}
	if checks.State || checks.PKCE || checks.Nonce {
		envelope, err := e.state.Consume(req.Cookie(e.names.State), req.FormValue("state"))
		if err != nil {
			// Absent, expired, or mismatching envelopes are indistinguishable
			// to the browser on purpose.
			return nil, fmt.Errorf("%w: %s: %v", ErrStateMismatch, drv.ID(), err)
		}
		returnTo = sanitizeReturnTo(envelope.ReturnTo)
		if checks.PKCE {
			cbReq.CodeVerifier = envelope.CodeVerifier
		}
		if checks.Nonce {
			cbReq.Nonce = envelope.Nonce
		}
	}

	cbReq.Code = req.FormValue("code")
	if cbReq.Code == "" {
		return nil, fmt.Errorf("%w: %s: callback without authorization code", ErrProviderHTTP, drv.ID())
	}

	profile, tokens, err := drv.HandleCallback(ctx, cbReq)
	if err != nil {
		if errors.Is(err, provider.ErrInvalidIDToken) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidIDToken, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrProviderHTTP, err)
	}

	user, err := e.resolveUser(ctx, drv.ID(), profile, tokens)
	if err != nil {
		return nil, err
	}

	cookieValue, err := e.establishSession(ctx, user)
	if err != nil {
		return nil, err
	}

	resp := redirectResponse(returnTo)
	resp.SetCookie(e.sessionCookie(cookieValue))
	resp.SetCookie(e.cookies.Expire(e.names.State))
	return resp, nil
}

// resolveUser reconciles a provider identity with storage. Matching linked
// account wins; otherwise an email match is resolved through the linking
// policy, which fails closed by default; otherwise a new user is created.
// LinkAccount doubles as the token-set upsert for returning users.
func (e *Engine) resolveUser(ctx context.Context, providerID string, profile *provider.Profile, tokens *provider.TokenSet) (*adapter.User, error) {
	account := &adapter.Account{
		Provider:          providerID,
		ProviderAccountID: profile.ProviderAccountID,
	}
	if tokens != nil {
		account.AccessToken = tokens.AccessToken
		account.RefreshToken = tokens.RefreshToken
		account.IDToken = tokens.IDToken
		account.ExpiresAt = tokens.ExpiresAt
	}

	user, err := e.store.GetUserByAccount(ctx, providerID, profile.ProviderAccountID)
	switch {
	case err == nil:
		account.UserID = user.ID
		if err := e.store.LinkAccount(ctx, account); err != nil {
			return nil, fmt.Errorf("%w: refresh account tokens: %v", ErrAdapterFailure, err)
		}
		return user, nil
	case !errors.Is(err, adapter.ErrNotFound):
		return nil, fmt.Errorf("%w: get user by account: %v", ErrAdapterFailure, err)
	}

	if profile.Email != "" {
		existing, err := e.store.GetUserByEmail(ctx, profile.Email)
		switch {
		case err == nil:
			if e.cfg.LinkingPolicy != LinkingByVerifiedEmail || !profile.EmailVerified || !existing.EmailVerified {
				return nil, fmt.Errorf("%w: %s account matches existing user by email", ErrAccountLinkingRequired, providerID)
			}
			account.UserID = existing.ID
			if err := e.store.LinkAccount(ctx, account); err != nil {
				return nil, fmt.Errorf("%w: link account: %v", ErrAdapterFailure, err)
			}
			return existing, nil
		case !errors.Is(err, adapter.ErrNotFound):
			return nil, fmt.Errorf("%w: get user by email: %v", ErrAdapterFailure, err)
		}
	}

	now := time.Now()
	user = &adapter.User{
		ID:            uuid.New(),
		Email:         profile.Email,
		EmailVerified: profile.EmailVerified,
		Name:          profile.Name,
		Image:         profile.Image,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := e.store.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("%w: create user: %v", ErrAdapterFailure, err)
	}

	account.UserID = user.ID
	if err := e.store.LinkAccount(ctx, account); err != nil {
		return nil, fmt.Errorf("%w: link account: %v", ErrAdapterFailure, err)
	}
	return user, nil
}

// emailCallback consumes the magic-link token. Consumption is atomic in the
// adapter: the second hit on the same link fails no matter how close the
// race.
func (e *Engine) emailCallback(ctx context.Context, req *Request, drv *provider.Email) (*Response, error) {
	raw := req.FormValue("token")
	email := normalizeEmail(req.FormValue("email"))
	if raw == "" || email == "" {
		return nil, fmt.Errorf("%w: malformed sign-in link", ErrTokenExpiredOrUsed)
	}

	vt, err := e.store.UseVerificationToken(ctx, email, drv.HashToken(raw))
	if err != nil {
		if errors.Is(err, adapter.ErrNotFound) {
			return nil, fmt.Errorf("%w: token not found", ErrTokenExpiredOrUsed)
		}
		return nil, fmt.Errorf("%w: use verification token: %v", ErrAdapterFailure, err)
	}
	if time.Now().After(vt.ExpiresAt) {
		return nil, fmt.Errorf("%w: token expired", ErrTokenExpiredOrUsed)
	}

	user, err := e.store.GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		if !user.EmailVerified {
			user.EmailVerified = true
			user.UpdatedAt = time.Now()
			if err := e.store.UpdateUser(ctx, user); err != nil {
				return nil, fmt.Errorf("%w: mark email verified: %v", ErrAdapterFailure, err)
			}
		}
	case errors.Is(err, adapter.ErrNotFound):
		now := time.Now()
		user = &adapter.User{
			ID:            uuid.New(),
			Email:         email,
			EmailVerified: true,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := e.store.CreateUser(ctx, user); err != nil {
			return nil, fmt.Errorf("%w: create user: %v", ErrAdapterFailure, err)
		}
	default:
		return nil, fmt.Errorf("%w: get user by email: %v", ErrAdapterFailure, err)
	}

	cookieValue, err := e.establishSession(ctx, user)
	if err != nil {
		return nil, err
	}

	resp := redirectResponse("/")
	resp.SetCookie(e.sessionCookie(cookieValue))
	return resp, nil
}

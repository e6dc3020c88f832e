package authkit

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/dmitrymomot/authkit/pkg/adapter"
	"github.com/dmitrymomot/authkit/pkg/secrets"
	"github.com/dmitrymomot/authkit/pkg/token"
)

// Session is the sanitized view returned by the session route. It never
// exposes raw token material.
type Session struct {
	UserID    string    `json:"userId"`
	Email     string    `json:"email,omitempty"`
	Name      string    `json:"name,omitempty"`
	Image     string    `json:"image,omitempty"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// sessionSubject is the identity flowing into session establishment.
type sessionSubject struct {
	ID    string
	Email string
	Name  string
	Image string
}

type sessionClaims struct {
	token.RegisteredClaims
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
	Image string `json:"picture,omitempty"`
}

// routeSession resolves the current session and returns its view. An absent
// or invalid session is not an error: the response is 200 with a null body,
// and a stale cookie is expired. Once more than half the session lifetime
// has elapsed the session is reissued with a fresh expiry.
func (e *Engine) routeSession(ctx context.Context, req *Request) *Response {
	cookieValue := req.Cookie(e.names.Session)
	if cookieValue == "" {
		return jsonResponse(http.StatusOK, nil)
	}

	view, refreshed, err := e.resolveSession(ctx, cookieValue)
	if err != nil {
		if errors.Is(err, ErrAdapterFailure) {
			return e.errorRedirect(req, err)
		}
		resp := jsonResponse(http.StatusOK, nil)
		resp.SetCookie(e.cookies.Expire(e.names.Session))
		return resp
	}

	resp := jsonResponse(http.StatusOK, view)
	if refreshed != "" {
		resp.SetCookie(e.sessionCookie(refreshed))
	}
	return resp
}

// errSessionInvalid marks a session that failed validation for any reason.
// Never exposed; the session route turns it into a null view.
var errSessionInvalid = errors.New("authkit: session invalid")

// resolveSession validates the session cookie under the configured strategy.
// refreshed is the new cookie value when a rolling reissue happened, "" when
// the current cookie stays.
func (e *Engine) resolveSession(ctx context.Context, cookieValue string) (*Session, string, error) {
	if e.cfg.SessionStrategy == StrategyDatabase {
		return e.resolveDatabaseSession(ctx, cookieValue)
	}
	return e.resolveStatelessSession(cookieValue)
}

func (e *Engine) resolveStatelessSession(cookieValue string) (*Session, string, error) {
	var claims sessionClaims
	if err := e.sessions.Decode(cookieValue, &claims); err != nil {
		return nil, "", errSessionInvalid
	}
	if claims.Subject == "" {
		return nil, "", errSessionInvalid
	}

	view := &Session{
		UserID:    claims.Subject,
		Email:     claims.Email,
		Name:      claims.Name,
		Image:     claims.Image,
		ExpiresAt: time.Unix(claims.ExpiresAt, 0),
	}

	var refreshed string
	if pastHalfLife(time.Unix(claims.IssuedAt, 0), time.Unix(claims.ExpiresAt, 0)) {
		value, err := e.encodeStatelessSession(sessionSubject{
			ID:    claims.Subject,
			Email: claims.Email,
			Name:  claims.Name,
			Image: claims.Image,
		})
		if err != nil {
			return nil, "", err
		}
		refreshed = value
		view.ExpiresAt = time.Now().Add(e.cfg.SessionMaxAge)
	}

	return view, refreshed, nil
}

func (e *Engine) resolveDatabaseSession(ctx context.Context, cookieValue string) (*Session, string, error) {
	sess, user, err := e.store.GetSessionAndUser(ctx, cookieValue)
	if err != nil {
		if errors.Is(err, adapter.ErrNotFound) {
			return nil, "", errSessionInvalid
		}
		return nil, "", fmt.Errorf("%w: get session: %v", ErrAdapterFailure, err)
	}
	if time.Now().After(sess.ExpiresAt) {
		// Expired record: best-effort cleanup, then treat as absent.
		_ = e.store.DeleteSession(ctx, cookieValue)
		return nil, "", errSessionInvalid
	}

	view := &Session{
		UserID:    user.ID.String(),
		Email:     user.Email,
		Name:      user.Name,
		Image:     user.Image,
		ExpiresAt: sess.ExpiresAt,
	}

	var refreshed string
	if pastHalfLife(sess.CreatedAt, sess.ExpiresAt) {
		sess.ExpiresAt = time.Now().Add(e.cfg.SessionMaxAge)
		sess.CreatedAt = time.Now()
		if err := e.store.UpdateSession(ctx, sess); err != nil {
			return nil, "", fmt.Errorf("%w: update session: %v", ErrAdapterFailure, err)
		}
		// Same opaque token, fresh Max-Age on the cookie.
		refreshed = cookieValue
		view.ExpiresAt = sess.ExpiresAt
	}

	return view, refreshed, nil
}

// establishSession creates a session for the user under the configured
// strategy and returns the cookie value. This is always the last write of a
// successful flow.
func (e *Engine) establishSession(ctx context.Context, user *adapter.User) (string, error) {
	if e.cfg.SessionStrategy == StrategyDatabase {
		opaque, err := secrets.RandomToken(32)
		if err != nil {
			return "", fmt.Errorf("authkit: generate session token: %w", err)
		}
		now := time.Now()
		if err := e.store.CreateSession(ctx, &adapter.Session{
			Token:     opaque,
			UserID:    user.ID,
			ExpiresAt: now.Add(e.cfg.SessionMaxAge),
			CreatedAt: now,
		}); err != nil {
			return "", fmt.Errorf("%w: create session: %v", ErrAdapterFailure, err)
		}
		return opaque, nil
	}

	return e.encodeStatelessSession(sessionSubject{
		ID:    user.ID.String(),
		Email: user.Email,
		Name:  user.Name,
		Image: user.Image,
	})
}

func (e *Engine) encodeStatelessSession(sub sessionSubject) (string, error) {
	now := time.Now()
	value, err := e.sessions.Encode(sessionClaims{
		RegisteredClaims: token.RegisteredClaims{
			Subject:   sub.ID,
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(e.cfg.SessionMaxAge).Unix(),
		},
		Email: sub.Email,
		Name:  sub.Name,
		Image: sub.Image,
	})
	if err != nil {
		return "", fmt.Errorf("authkit: encode session token: %w", err)
	}
	return value, nil
}

// pastHalfLife reports whether more than half of the [issued, expires]
// window has elapsed.
func pastHalfLife(issued, expires time.Time) bool {
	if !expires.After(issued) {
		return true
	}
	return time.Since(issued) > expires.Sub(issued)/2
}

package authkit

import (
	"context"
	"fmt"
	"net/http"
)

// signOut ends the current session. Idempotent: a missing or already-deleted
// session still succeeds, so double sign-out is a no-op.
func (e *Engine) signOut(ctx context.Context, req *Request) (*Response, error) {
	if err := e.verifyCSRF(req); err != nil {
		return nil, err
	}

	if cookieValue := req.Cookie(e.names.Session); cookieValue != "" && e.cfg.SessionStrategy == StrategyDatabase {
		if err := e.store.DeleteSession(ctx, cookieValue); err != nil {
			return nil, fmt.Errorf("%w: delete session: %v", ErrAdapterFailure, err)
		}
	}

	resp := redirectResponse(sanitizeReturnTo(req.FormValue(returnToParam)))
	resp.SetCookie(e.cookies.Expire(e.names.Session))
	return resp, nil
}

// routeCSRF returns the page token for the double-submit pair, minting the
// cookie when absent. Reloading never rotates an existing pair.
func (e *Engine) routeCSRF(req *Request) *Response {
	cookieToken := req.Cookie(e.names.CSRF)

	if cookieToken != "" {
		return jsonResponse(http.StatusOK, map[string]string{
			"csrfToken": e.csrf.PageToken(cookieToken),
		})
	}

	cookieToken, pageToken, err := e.csrf.Issue()
	if err != nil {
		e.log.Error("csrf issue failed", "error", err.Error())
		return newResponse(http.StatusInternalServerError)
	}

	resp := jsonResponse(http.StatusOK, map[string]string{
		"csrfToken": pageToken,
	})
	resp.SetCookie(e.cookies.Bake(e.names.CSRF, cookieToken))
	return resp
}

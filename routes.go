package authkit

import (
	"context"
	"net/http"
	"strings"
)

// Handle dispatches an abstract request to the matching route. Every failure
// leaves as a redirect carrying a coarse error code; full detail goes to the
// logger.
func (e *Engine) Handle(ctx context.Context, req *Request) *Response {
	rest, ok := strings.CutPrefix(req.URL.Path, e.cfg.BasePath)
	if !ok {
		return newResponse(http.StatusNotFound)
	}
	rest = strings.Trim(rest, "/")

	route, param, _ := strings.Cut(rest, "/")

	switch route {
	case "signin":
		return e.routeSignIn(ctx, req, param)
	case "callback":
		return e.routeCallback(ctx, req, param)
	case "signout":
		return e.routeSignOut(ctx, req)
	case "session":
		if req.Method != http.MethodGet {
			return newResponse(http.StatusMethodNotAllowed)
		}
		return e.routeSession(ctx, req)
	case "csrf":
		if req.Method != http.MethodGet {
			return newResponse(http.StatusMethodNotAllowed)
		}
		return e.routeCSRF(req)
	default:
		return newResponse(http.StatusNotFound)
	}
}

func (e *Engine) routeSignIn(ctx context.Context, req *Request, providerID string) *Response {
	switch req.Method {
	case http.MethodGet, http.MethodPost:
	default:
		return newResponse(http.StatusMethodNotAllowed)
	}

	if providerID == "" {
		if req.Method != http.MethodGet {
			return newResponse(http.StatusMethodNotAllowed)
		}
		return e.listProviders()
	}

	resp, err := e.signIn(ctx, req, providerID)
	if err != nil {
		return e.errorRedirect(req, err)
	}
	return resp
}

func (e *Engine) routeCallback(ctx context.Context, req *Request, providerID string) *Response {
	switch req.Method {
	case http.MethodGet, http.MethodPost:
	default:
		return newResponse(http.StatusMethodNotAllowed)
	}
	if providerID == "" {
		return newResponse(http.StatusNotFound)
	}

	resp, err := e.callback(ctx, req, providerID)
	if err != nil {
		resp = e.errorRedirect(req, err)
		// The attempt is over either way; a stale envelope must not
		// outlive it.
		resp.SetCookie(e.cookies.Expire(e.names.State))
		return resp
	}
	return resp
}

func (e *Engine) routeSignOut(ctx context.Context, req *Request) *Response {
	switch req.Method {
	case http.MethodGet:
		// Confirmation data for a sign-out form; the actual sign-out is POST.
		return e.routeCSRF(req)
	case http.MethodPost:
	default:
		return newResponse(http.StatusMethodNotAllowed)
	}

	resp, err := e.signOut(ctx, req)
	if err != nil {
		return e.errorRedirect(req, err)
	}
	return resp
}

// providerInfo is the public description of a registered provider.
type providerInfo struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	SignInURL string `json:"signinUrl"`
	Callback  string `json:"callbackUrl"`
}

func (e *Engine) listProviders() *Response {
	infos := make([]providerInfo, 0, len(e.providers))
	for id, p := range e.providers {
		infos = append(infos, providerInfo{
			ID:        id,
			Type:      string(p.Type()),
			SignInURL: e.cfg.BasePath + "/signin/" + id,
			Callback:  e.cfg.BasePath + "/callback/" + id,
		})
	}
	return jsonResponse(http.StatusOK, infos)
}

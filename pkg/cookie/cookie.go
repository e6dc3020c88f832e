package cookie

import (
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Manager bakes cookies with a consistent attribute policy. The engine works
// against an abstract response, so the manager returns *http.Cookie values
// instead of writing to a ResponseWriter; the framework shim serializes them.
type Manager struct {
	defaults Options
}

// New creates a manager. Defaults are Path=/, HttpOnly, SameSite=Lax; options
// override them for every cookie the manager produces.
func New(opts ...Option) *Manager {
	defaults := Options{
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	return &Manager{defaults: applyOptions(defaults, opts)}
}

// Bake returns a cookie carrying value with manager defaults plus opts.
func (m *Manager) Bake(name, value string, opts ...Option) *http.Cookie {
	options := applyOptions(m.defaults, opts)

	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     options.Path,
		Domain:   options.Domain,
		MaxAge:   options.MaxAge,
		Secure:   options.Secure,
		HttpOnly: options.HttpOnly,
		SameSite: options.SameSite,
	}
}

// Expire returns a deletion cookie: empty value, MaxAge -1, expiry at epoch.
// Attributes other than lifetime must match the original cookie or browsers
// will keep the old one.
func (m *Manager) Expire(name string, opts ...Option) *http.Cookie {
	c := m.Bake(name, "", opts...)
	c.MaxAge = -1
	c.Expires = time.Unix(0, 0)
	return c
}

// ForceSecure reports whether cookies for the given origin must carry the
// Secure attribute. Only plaintext HTTP on a loopback host is exempt, so
// local development works without TLS while every real deployment is forced
// to Secure.
func ForceSecure(origin string) bool {
	u, err := url.Parse(origin)
	if err != nil || u.Scheme != "http" {
		return true
	}

	host := u.Hostname()
	if host == "localhost" || strings.HasSuffix(host, ".localhost") {
		return false
	}
	if ip := net.ParseIP(host); ip != nil && ip.IsLoopback() {
		return false
	}
	return true
}

package cookie_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/authkit/pkg/cookie"
)

func TestManager_Bake(t *testing.T) {
	t.Parallel()

	t.Run("applies secure defaults", func(t *testing.T) {
		t.Parallel()

		m := cookie.New()
		c := m.Bake("authkit.session-token", "value")

		assert.Equal(t, "authkit.session-token", c.Name)
		assert.Equal(t, "value", c.Value)
		assert.Equal(t, "/", c.Path)
		assert.True(t, c.HttpOnly)
		assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
	})

	t.Run("per-cookie options override manager defaults", func(t *testing.T) {
		t.Parallel()

		m := cookie.New(cookie.WithDomain("example.com"))
		c := m.Bake("name", "v", cookie.WithMaxAge(600), cookie.WithSecure(true))

		assert.Equal(t, "example.com", c.Domain)
		assert.Equal(t, 600, c.MaxAge)
		assert.True(t, c.Secure)

		// Defaults untouched for the next cookie.
		again := m.Bake("name", "v")
		assert.Zero(t, again.MaxAge)
		assert.False(t, again.Secure)
	})
}

func TestManager_Expire(t *testing.T) {
	t.Parallel()

	m := cookie.New()
	c := m.Expire("authkit.state")

	assert.Empty(t, c.Value)
	assert.Equal(t, -1, c.MaxAge)
	assert.True(t, c.Expires.Unix() <= 0)
	assert.True(t, c.HttpOnly)
}

func TestDefaultNames(t *testing.T) {
	t.Parallel()

	names := cookie.DefaultNames("")
	assert.Equal(t, "authkit.session-token", names.Session)
	assert.Equal(t, "authkit.csrf-token", names.CSRF)
	assert.Equal(t, "authkit.state", names.State)

	custom := cookie.DefaultNames("__Secure-myapp")
	assert.Equal(t, "__Secure-myapp.session-token", custom.Session)
}

func TestForceSecure(t *testing.T) {
	t.Parallel()

	tests := []struct {
		origin string
		want   bool
	}{
		{"http://localhost:3000", false},
		{"http://app.localhost:3000", false},
		{"http://127.0.0.1:8080", false},
		{"http://[::1]:8080", false},
		{"http://example.com", true},
		{"https://localhost", true},
		{"https://example.com", true},
		{"", true},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, cookie.ForceSecure(tt.origin), "origin %q", tt.origin)
	}
}

package cookie

// Names holds the cookie names used by the engine. They must remain stable
// across deployments: changing the session cookie name logs every user out.
type Names struct {
	// Session holds the session token (stateless JWT or opaque database reference).
	Session string
	// CSRF holds the double-submit token.
	CSRF string
	// State holds the short-lived OAuth state/PKCE envelope.
	State string
}

// DefaultNames returns the standard cookie names under the given prefix.
// An empty prefix defaults to "authkit".
func DefaultNames(prefix string) Names {
	if prefix == "" {
		prefix = "authkit"
	}
	return Names{
		Session: prefix + ".session-token",
		CSRF:    prefix + ".csrf-token",
		State:   prefix + ".state",
	}
}

// Package cookie centralizes the engine's cookie policy: stable names with a
// configurable prefix, secure attribute defaults, and deletion semantics.
//
// Cookie values themselves are opaque to this package; signing and encryption
// belong to pkg/token. The manager's job is that every cookie leaves the
// process with HttpOnly and SameSite=Lax set, and with Secure forced whenever
// the effective origin is anything other than plaintext-HTTP localhost.
//
// Names stay stable across deployments so sessions survive restarts and
// rolling upgrades:
//
//	names := cookie.DefaultNames("authkit")
//	// names.Session == "authkit.session-token"
//	// names.CSRF    == "authkit.csrf-token"
//	// names.State   == "authkit.state"
package cookie

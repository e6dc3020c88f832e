// Package adapter defines the storage contract the engine depends on and
// ships three reference implementations: in-memory (tests and prototypes),
// Redis, and PostgreSQL.
//
// Adapters are deliberately dumb: thin CRUD over four record kinds (User,
// Account, Session, VerificationToken) with no protocol logic. The two
// consistency guarantees the engine leans on are the adapter's to provide:
// uniqueness of (provider, providerAccountID), and atomic consume-and-delete
// in UseVerificationToken. Everything else (validation ordering, linking
// policy, expiry decisions) happens in the engine, which treats any adapter
// error as fatal for the current request.
package adapter

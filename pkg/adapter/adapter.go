package adapter

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// User is a subject known to the application.
type User struct {
	ID            uuid.UUID
	Email         string
	EmailVerified bool
	Name          string
	Image         string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Account links a user to one identity-provider account, keyed by
// (Provider, ProviderAccountID), and carries the provider's token set.
type Account struct {
	UserID            uuid.UUID
	Provider          string
	ProviderAccountID string
	AccessToken       string
	RefreshToken      string
	IDToken           string
	ExpiresAt         time.Time
	CreatedAt         time.Time
}

// Session is a stateful (database strategy) session record. The token is the
// opaque value held by the client cookie.
type Session struct {
	Token     string
	UserID    uuid.UUID
	ExpiresAt time.Time
	CreatedAt time.Time
}

// VerificationToken is a single-use email sign-in token. Only the hash is
// stored; the raw token travels in the magic link.
type VerificationToken struct {
	Identifier string
	TokenHash  string
	ExpiresAt  time.Time
}

// Adapter is the storage abstraction consumed by the engine. All methods may
// fail with an implementation-defined error; lookups that find nothing return
// ErrNotFound.
type Adapter interface {
	CreateUser(ctx context.Context, user *User) error
	GetUser(ctx context.Context, id uuid.UUID) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	GetUserByAccount(ctx context.Context, provider, providerAccountID string) (*User, error)
	UpdateUser(ctx context.Context, user *User) error

	// LinkAccount creates the account link or, when (provider,
	// providerAccountID) already exists, replaces its token set. Session
	// reissue and token-set refresh share this single call so atomicity
	// lives at the adapter layer.
	LinkAccount(ctx context.Context, account *Account) error
	UnlinkAccount(ctx context.Context, provider, providerAccountID string) error

	CreateSession(ctx context.Context, session *Session) error
	GetSessionAndUser(ctx context.Context, token string) (*Session, *User, error)
	UpdateSession(ctx context.Context, session *Session) error
	// DeleteSession is a no-op when the token does not exist; sign-out is
	// idempotent.
	DeleteSession(ctx context.Context, token string) error

	CreateVerificationToken(ctx context.Context, vt *VerificationToken) error
	// UseVerificationToken atomically removes the token matching
	// (identifier, tokenHash) and returns it, expired or not; the engine
	// decides what expiry means. A second call for the same pair returns
	// ErrNotFound.
	UseVerificationToken(ctx context.Context, identifier, tokenHash string) (*VerificationToken, error)
}

package adapter

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Postgres is an adapter backed by PostgreSQL via pgx. Uniqueness of
// (provider, provider_account_id) and of user emails is enforced by the
// schema; token consumption is a single DELETE ... RETURNING.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres creates a Postgres adapter over an already-connected pool.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// Migrate applies the adapter's embedded schema migrations with goose.
// Call it once at startup before handling requests.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	db := stdlib.OpenDBFromPool(pool)
	defer func(db *sql.DB) { _ = db.Close() }(db)

	goose.SetBaseFS(migrationsFS)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("adapter: set goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("adapter: apply migrations: %w", err)
	}
	return nil
}

func (p *Postgres) CreateUser(ctx context.Context, user *User) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO authkit_users (id, email, email_verified, name, image, created_at, updated_at)
		VALUES ($1, lower($2), $3, $4, $5, $6, $7)`,
		user.ID, user.Email, user.EmailVerified, user.Name, user.Image, user.CreatedAt, user.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return ErrAlreadyExists
	}
	return err
}

func (p *Postgres) GetUser(ctx context.Context, id uuid.UUID) (*User, error) {
	return p.scanUser(p.pool.QueryRow(ctx, `
		SELECT id, email, email_verified, name, image, created_at, updated_at
		FROM authkit_users WHERE id = $1`, id))
}

func (p *Postgres) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	return p.scanUser(p.pool.QueryRow(ctx, `
		SELECT id, email, email_verified, name, image, created_at, updated_at
		FROM authkit_users WHERE email = lower($1)`, email))
}

func (p *Postgres) GetUserByAccount(ctx context.Context, provider, providerAccountID string) (*User, error) {
	return p.scanUser(p.pool.QueryRow(ctx, `
		SELECT u.id, u.email, u.email_verified, u.name, u.image, u.created_at, u.updated_at
		FROM authkit_users u
		JOIN authkit_accounts a ON a.user_id = u.id
		WHERE a.provider = $1 AND a.provider_account_id = $2`, provider, providerAccountID))
}

func (p *Postgres) UpdateUser(ctx context.Context, user *User) error {
	tag, err := p.pool.Exec(ctx, `
		UPDATE authkit_users
		SET email = lower($2), email_verified = $3, name = $4, image = $5, updated_at = now()
		WHERE id = $1`,
		user.ID, user.Email, user.EmailVerified, user.Name, user.Image,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrAlreadyExists
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) LinkAccount(ctx context.Context, account *Account) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO authkit_accounts
			(user_id, provider, provider_account_id, access_token, refresh_token, id_token, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (provider, provider_account_id) DO UPDATE
		SET access_token = EXCLUDED.access_token,
		    refresh_token = EXCLUDED.refresh_token,
		    id_token = EXCLUDED.id_token,
		    expires_at = EXCLUDED.expires_at`,
		account.UserID, account.Provider, account.ProviderAccountID,
		account.AccessToken, account.RefreshToken, account.IDToken,
		account.ExpiresAt, account.CreatedAt,
	)
	return err
}

func (p *Postgres) UnlinkAccount(ctx context.Context, provider, providerAccountID string) error {
	tag, err := p.pool.Exec(ctx, `
		DELETE FROM authkit_accounts WHERE provider = $1 AND provider_account_id = $2`,
		provider, providerAccountID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) CreateSession(ctx context.Context, session *Session) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO authkit_sessions (token, user_id, expires_at, created_at)
		VALUES ($1, $2, $3, $4)`,
		session.Token, session.UserID, session.ExpiresAt, session.CreatedAt,
	)
	if isUniqueViolation(err) {
		return ErrAlreadyExists
	}
	return err
}

func (p *Postgres) GetSessionAndUser(ctx context.Context, token string) (*Session, *User, error) {
	var sess Session
	var user User
	err := p.pool.QueryRow(ctx, `
		SELECT s.token, s.user_id, s.expires_at, s.created_at,
		       u.id, u.email, u.email_verified, u.name, u.image, u.created_at, u.updated_at
		FROM authkit_sessions s
		JOIN authkit_users u ON u.id = s.user_id
		WHERE s.token = $1`, token).Scan(
		&sess.Token, &sess.UserID, &sess.ExpiresAt, &sess.CreatedAt,
		&user.ID, &user.Email, &user.EmailVerified, &user.Name, &user.Image, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, err
	}
	return &sess, &user, nil
}

func (p *Postgres) UpdateSession(ctx context.Context, session *Session) error {
	tag, err := p.pool.Exec(ctx, `
		UPDATE authkit_sessions SET expires_at = $2, created_at = $3 WHERE token = $1`,
		session.Token, session.ExpiresAt, session.CreatedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) DeleteSession(ctx context.Context, token string) error {
	_, err := p.pool.Exec(ctx, `DELETE FROM authkit_sessions WHERE token = $1`, token)
	return err
}

func (p *Postgres) CreateVerificationToken(ctx context.Context, vt *VerificationToken) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO authkit_verification_tokens (identifier, token_hash, expires_at)
		VALUES ($1, $2, $3)`,
		vt.Identifier, vt.TokenHash, vt.ExpiresAt,
	)
	return err
}

func (p *Postgres) UseVerificationToken(ctx context.Context, identifier, tokenHash string) (*VerificationToken, error) {
	var vt VerificationToken
	err := p.pool.QueryRow(ctx, `
		DELETE FROM authkit_verification_tokens
		WHERE identifier = $1 AND token_hash = $2
		RETURNING identifier, token_hash, expires_at`,
		identifier, tokenHash).Scan(&vt.Identifier, &vt.TokenHash, &vt.ExpiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &vt, nil
}

func (p *Postgres) scanUser(row pgx.Row) (*User, error) {
	var user User
	err := row.Scan(&user.ID, &user.Email, &user.EmailVerified, &user.Name, &user.Image, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pgErr interface{ SQLState() string }
	return errors.As(err, &pgErr) && pgErr.SQLState() == "23505"
}

var _ Adapter = (*Postgres)(nil)

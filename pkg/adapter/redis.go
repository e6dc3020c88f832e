package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "authkit"

// Redis is an adapter backed by a Redis server. Records are stored as JSON
// blobs; sessions and verification tokens carry a TTL so Redis expires them
// on its own, and UseVerificationToken rides on GETDEL for atomicity.
type Redis struct {
	client redis.UniversalClient
}

// NewRedis creates a Redis adapter over an already-connected client.
func NewRedis(client redis.UniversalClient) *Redis {
	return &Redis{client: client}
}

func (r *Redis) userKey(id uuid.UUID) string {
	return fmt.Sprintf("%s:user:%s", redisKeyPrefix, id)
}

func (r *Redis) emailKey(email string) string {
	return fmt.Sprintf("%s:email:%s", redisKeyPrefix, normalizeEmail(email))
}

func (r *Redis) accountKey(provider, providerAccountID string) string {
	return fmt.Sprintf("%s:account:%s:%s", redisKeyPrefix, provider, providerAccountID)
}

func (r *Redis) sessionKey(token string) string {
	return fmt.Sprintf("%s:session:%s", redisKeyPrefix, token)
}

func (r *Redis) verificationKey(identifier, tokenHash string) string {
	return fmt.Sprintf("%s:verification:%s:%s", redisKeyPrefix, identifier, tokenHash)
}

func (r *Redis) CreateUser(ctx context.Context, user *User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("adapter: marshal user: %w", err)
	}

	if user.Email != "" {
		ok, err := r.client.SetNX(ctx, r.emailKey(user.Email), user.ID.String(), 0).Result()
		if err != nil {
			return fmt.Errorf("adapter: reserve email: %w", err)
		}
		if !ok {
			return ErrAlreadyExists
		}
	}

	return r.client.Set(ctx, r.userKey(user.ID), data, 0).Err()
}

func (r *Redis) GetUser(ctx context.Context, id uuid.UUID) (*User, error) {
	return r.getUser(ctx, r.userKey(id))
}

func (r *Redis) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	id, err := r.client.Get(ctx, r.emailKey(email)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("adapter: get email index: %w", err)
	}

	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("adapter: corrupt email index: %w", err)
	}
	return r.GetUser(ctx, uid)
}

func (r *Redis) GetUserByAccount(ctx context.Context, provider, providerAccountID string) (*User, error) {
	data, err := r.client.Get(ctx, r.accountKey(provider, providerAccountID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("adapter: get account: %w", err)
	}

	var acc Account
	if err := json.Unmarshal(data, &acc); err != nil {
		return nil, fmt.Errorf("adapter: unmarshal account: %w", err)
	}
	return r.GetUser(ctx, acc.UserID)
}

func (r *Redis) UpdateUser(ctx context.Context, user *User) error {
	existing, err := r.GetUser(ctx, user.ID)
	if err != nil {
		return err
	}

	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("adapter: marshal user: %w", err)
	}

	pipe := r.client.TxPipeline()
	if normalizeEmail(existing.Email) != normalizeEmail(user.Email) {
		pipe.Del(ctx, r.emailKey(existing.Email))
		if user.Email != "" {
			pipe.Set(ctx, r.emailKey(user.Email), user.ID.String(), 0)
		}
	}
	pipe.Set(ctx, r.userKey(user.ID), data, 0)
	_, err = pipe.Exec(ctx)
	return err
}

func (r *Redis) LinkAccount(ctx context.Context, account *Account) error {
	data, err := json.Marshal(account)
	if err != nil {
		return fmt.Errorf("adapter: marshal account: %w", err)
	}
	return r.client.Set(ctx, r.accountKey(account.Provider, account.ProviderAccountID), data, 0).Err()
}

func (r *Redis) UnlinkAccount(ctx context.Context, provider, providerAccountID string) error {
	n, err := r.client.Del(ctx, r.accountKey(provider, providerAccountID)).Result()
	if err != nil {
		return fmt.Errorf("adapter: delete account: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Redis) CreateSession(ctx context.Context, session *Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("adapter: marshal session: %w", err)
	}
	return r.client.Set(ctx, r.sessionKey(session.Token), data, time.Until(session.ExpiresAt)).Err()
}

func (r *Redis) GetSessionAndUser(ctx context.Context, token string) (*Session, *User, error) {
	data, err := r.client.Get(ctx, r.sessionKey(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, fmt.Errorf("adapter: get session: %w", err)
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, nil, fmt.Errorf("adapter: unmarshal session: %w", err)
	}

	user, err := r.GetUser(ctx, sess.UserID)
	if err != nil {
		return nil, nil, err
	}
	return &sess, user, nil
}

func (r *Redis) UpdateSession(ctx context.Context, session *Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("adapter: marshal session: %w", err)
	}
	// SET with fresh TTL; the record's lifetime follows its expiry.
	return r.client.Set(ctx, r.sessionKey(session.Token), data, time.Until(session.ExpiresAt)).Err()
}

func (r *Redis) DeleteSession(ctx context.Context, token string) error {
	return r.client.Del(ctx, r.sessionKey(token)).Err()
}

func (r *Redis) CreateVerificationToken(ctx context.Context, vt *VerificationToken) error {
	data, err := json.Marshal(vt)
	if err != nil {
		return fmt.Errorf("adapter: marshal verification token: %w", err)
	}
	// Keep the record slightly past its logical expiry so the engine can
	// distinguish "expired" from "never existed".
	ttl := time.Until(vt.ExpiresAt) + time.Hour
	return r.client.Set(ctx, r.verificationKey(vt.Identifier, vt.TokenHash), data, ttl).Err()
}

func (r *Redis) UseVerificationToken(ctx context.Context, identifier, tokenHash string) (*VerificationToken, error) {
	data, err := r.client.GetDel(ctx, r.verificationKey(identifier, tokenHash)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("adapter: consume verification token: %w", err)
	}

	var vt VerificationToken
	if err := json.Unmarshal(data, &vt); err != nil {
		return nil, fmt.Errorf("adapter: unmarshal verification token: %w", err)
	}
	return &vt, nil
}

func (r *Redis) getUser(ctx context.Context, key string) (*User, error) {
	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("adapter: get user: %w", err)
	}

	var user User
	if err := json.Unmarshal(data, &user); err != nil {
		return nil, fmt.Errorf("adapter: unmarshal user: %w", err)
	}
	return &user, nil
}

var _ Adapter = (*Redis)(nil)

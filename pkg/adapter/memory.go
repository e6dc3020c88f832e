package adapter

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Memory is an in-process adapter for tests and prototypes. All records live
// in maps guarded by one mutex; nothing expires on its own.
type Memory struct {
	mu       sync.RWMutex
	users    map[uuid.UUID]*User
	byEmail  map[string]uuid.UUID
	accounts map[string]*Account // key: provider + "\x00" + providerAccountID
	sessions map[string]*Session
	tokens   map[string]*VerificationToken // key: identifier + "\x00" + tokenHash
}

// NewMemory creates an empty in-memory adapter.
func NewMemory() *Memory {
	return &Memory{
		users:    make(map[uuid.UUID]*User),
		byEmail:  make(map[string]uuid.UUID),
		accounts: make(map[string]*Account),
		sessions: make(map[string]*Session),
		tokens:   make(map[string]*VerificationToken),
	}
}

func accountKey(provider, providerAccountID string) string {
	return provider + "\x00" + providerAccountID
}

func tokenKey(identifier, tokenHash string) string {
	return identifier + "\x00" + tokenHash
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (m *Memory) CreateUser(ctx context.Context, user *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[user.ID]; ok {
		return ErrAlreadyExists
	}
	if user.Email != "" {
		if _, ok := m.byEmail[normalizeEmail(user.Email)]; ok {
			return ErrAlreadyExists
		}
		m.byEmail[normalizeEmail(user.Email)] = user.ID
	}

	u := *user
	m.users[user.ID] = &u
	return nil
}

func (m *Memory) GetUser(ctx context.Context, id uuid.UUID) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *u
	return &copied, nil
}

func (m *Memory) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.byEmail[normalizeEmail(email)]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *m.users[id]
	return &copied, nil
}

func (m *Memory) GetUserByAccount(ctx context.Context, provider, providerAccountID string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	acc, ok := m.accounts[accountKey(provider, providerAccountID)]
	if !ok {
		return nil, ErrNotFound
	}
	u, ok := m.users[acc.UserID]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *u
	return &copied, nil
}

func (m *Memory) UpdateUser(ctx context.Context, user *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.users[user.ID]
	if !ok {
		return ErrNotFound
	}

	if normalizeEmail(existing.Email) != normalizeEmail(user.Email) {
		delete(m.byEmail, normalizeEmail(existing.Email))
		if user.Email != "" {
			m.byEmail[normalizeEmail(user.Email)] = user.ID
		}
	}

	u := *user
	m.users[user.ID] = &u
	return nil
}

func (m *Memory) LinkAccount(ctx context.Context, account *Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[account.UserID]; !ok {
		return ErrNotFound
	}

	a := *account
	m.accounts[accountKey(account.Provider, account.ProviderAccountID)] = &a
	return nil
}

func (m *Memory) UnlinkAccount(ctx context.Context, provider, providerAccountID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := accountKey(provider, providerAccountID)
	if _, ok := m.accounts[key]; !ok {
		return ErrNotFound
	}
	delete(m.accounts, key)
	return nil
}

func (m *Memory) CreateSession(ctx context.Context, session *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[session.Token]; ok {
		return ErrAlreadyExists
	}
	s := *session
	m.sessions[session.Token] = &s
	return nil
}

func (m *Memory) GetSessionAndUser(ctx context.Context, token string) (*Session, *User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[token]
	if !ok {
		return nil, nil, ErrNotFound
	}
	u, ok := m.users[s.UserID]
	if !ok {
		return nil, nil, ErrNotFound
	}

	sessionCopy := *s
	userCopy := *u
	return &sessionCopy, &userCopy, nil
}

func (m *Memory) UpdateSession(ctx context.Context, session *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[session.Token]; !ok {
		return ErrNotFound
	}
	s := *session
	m.sessions[session.Token] = &s
	return nil
}

func (m *Memory) DeleteSession(ctx context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, token)
	return nil
}

func (m *Memory) CreateVerificationToken(ctx context.Context, vt *VerificationToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	t := *vt
	m.tokens[tokenKey(vt.Identifier, vt.TokenHash)] = &t
	return nil
}

func (m *Memory) UseVerificationToken(ctx context.Context, identifier, tokenHash string) (*VerificationToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := tokenKey(identifier, tokenHash)
	vt, ok := m.tokens[key]
	if !ok {
		return nil, ErrNotFound
	}
	delete(m.tokens, key)

	copied := *vt
	return &copied, nil
}

var _ Adapter = (*Memory)(nil)

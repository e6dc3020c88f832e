package authkit_test

import (
	"context"
	"net/url"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/dmitrymomot/authkit/pkg/adapter"
	"github.com/dmitrymomot/authkit/pkg/mailer"
	"github.com/dmitrymomot/authkit/pkg/provider"
)

func newUUID(t *testing.T) uuid.UUID {
	t.Helper()
	return uuid.New()
}

// captureMailer records outbound messages instead of delivering them.
type captureMailer struct {
	sent []mailer.Message
}

func (m *captureMailer) Send(_ context.Context, msg mailer.Message) error {
	m.sent = append(m.sent, msg)
	return nil
}

// mockAdapter is a testify mock over the storage contract, for tests that
// assert on exactly which writes happen.
type mockAdapter struct {
	mock.Mock
}

func (m *mockAdapter) CreateUser(ctx context.Context, user *adapter.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *mockAdapter) GetUser(ctx context.Context, id uuid.UUID) (*adapter.User, error) {
	args := m.Called(ctx, id)
	if u := args.Get(0); u != nil {
		return u.(*adapter.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockAdapter) GetUserByEmail(ctx context.Context, email string) (*adapter.User, error) {
	args := m.Called(ctx, email)
	if u := args.Get(0); u != nil {
		return u.(*adapter.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockAdapter) GetUserByAccount(ctx context.Context, providerID, providerAccountID string) (*adapter.User, error) {
	args := m.Called(ctx, providerID, providerAccountID)
	if u := args.Get(0); u != nil {
		return u.(*adapter.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockAdapter) UpdateUser(ctx context.Context, user *adapter.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *mockAdapter) LinkAccount(ctx context.Context, account *adapter.Account) error {
	return m.Called(ctx, account).Error(0)
}

func (m *mockAdapter) UnlinkAccount(ctx context.Context, providerID, providerAccountID string) error {
	return m.Called(ctx, providerID, providerAccountID).Error(0)
}

func (m *mockAdapter) CreateSession(ctx context.Context, session *adapter.Session) error {
	return m.Called(ctx, session).Error(0)
}

func (m *mockAdapter) GetSessionAndUser(ctx context.Context, token string) (*adapter.Session, *adapter.User, error) {
	args := m.Called(ctx, token)
	var s *adapter.Session
	var u *adapter.User
	if v := args.Get(0); v != nil {
		s = v.(*adapter.Session)
	}
	if v := args.Get(1); v != nil {
		u = v.(*adapter.User)
	}
	return s, u, args.Error(2)
}

func (m *mockAdapter) UpdateSession(ctx context.Context, session *adapter.Session) error {
	return m.Called(ctx, session).Error(0)
}

func (m *mockAdapter) DeleteSession(ctx context.Context, token string) error {
	return m.Called(ctx, token).Error(0)
}

func (m *mockAdapter) CreateVerificationToken(ctx context.Context, vt *adapter.VerificationToken) error {
	return m.Called(ctx, vt).Error(0)
}

func (m *mockAdapter) UseVerificationToken(ctx context.Context, identifier, tokenHash string) (*adapter.VerificationToken, error) {
	args := m.Called(ctx, identifier, tokenHash)
	if v := args.Get(0); v != nil {
		return v.(*adapter.VerificationToken), args.Error(1)
	}
	return nil, args.Error(1)
}

// fakeOAuth is a scriptable OAuth driver so flow tests need no network.
type fakeOAuth struct {
	id            string
	typ           provider.Type
	checks        provider.Checks
	profile       *provider.Profile
	tokens        *provider.TokenSet
	callbackErr   error
	callbackCalls int
	lastCallback  provider.CallbackRequest
}

func (f *fakeOAuth) ID() string {
	return f.id
}

func (f *fakeOAuth) Type() provider.Type {
	if f.typ == "" {
		return provider.TypeOAuth2
	}
	return f.typ
}

func (f *fakeOAuth) Checks() provider.Checks {
	return f.checks
}

func (f *fakeOAuth) AuthorizationURL(req provider.AuthCodeRequest) (string, error) {
	q := url.Values{}
	q.Set("state", req.State)
	if req.Nonce != "" {
		q.Set("nonce", req.Nonce)
	}
	if req.CodeChallenge != "" {
		q.Set("code_challenge", req.CodeChallenge)
	}
	return "https://provider.test/authorize?" + q.Encode(), nil
}

func (f *fakeOAuth) HandleCallback(_ context.Context, req provider.CallbackRequest) (*provider.Profile, *provider.TokenSet, error) {
	f.callbackCalls++
	f.lastCallback = req
	if f.callbackErr != nil {
		return nil, nil, f.callbackErr
	}
	tokens := f.tokens
	if tokens == nil {
		tokens = &provider.TokenSet{AccessToken: "access-token"}
	}
	return f.profile, tokens, nil
}

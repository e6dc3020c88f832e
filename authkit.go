package authkit

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/authkit/pkg/adapter"
	"github.com/dmitrymomot/authkit/pkg/cookie"
	"github.com/dmitrymomot/authkit/pkg/csrf"
	"github.com/dmitrymomot/authkit/pkg/mailer"
	"github.com/dmitrymomot/authkit/pkg/provider"
	"github.com/dmitrymomot/authkit/pkg/secrets"
	"github.com/dmitrymomot/authkit/pkg/state"
	"github.com/dmitrymomot/authkit/pkg/token"
)

// Key-derivation purposes. Each token class gets its own derived key so a
// value minted for one purpose can never verify under another.
const (
	sessionPurpose = "session"
	csrfPurpose    = "csrf"
)

// Engine is the callback/session orchestrator. It is a pure per-request
// machine: no mutable state is shared between requests, so one Engine serves
// any number of concurrent requests.
type Engine struct {
	cfg       Config
	log       *slog.Logger
	store     adapter.Adapter
	providers map[string]provider.Provider
	cookies   *cookie.Manager
	names     cookie.Names
	csrf      *csrf.Manager
	state     *state.Manager
	sessions  *token.Codec
}

type engineOptions struct {
	log       *slog.Logger
	store     adapter.Adapter
	providers []provider.Provider
	mailer    mailer.Mailer
	emailOpts []provider.EmailOption
}

// Option configures the engine during construction.
type Option func(*engineOptions)

// WithLogger sets the logger receiving full error detail. Without it errors
// are discarded after being reduced to their browser-facing code.
func WithLogger(log *slog.Logger) Option {
	return func(o *engineOptions) {
		o.log = log
	}
}

// WithAdapter sets the storage backend. Required for the database session
// strategy and for every provider type except credentials.
func WithAdapter(store adapter.Adapter) Option {
	return func(o *engineOptions) {
		o.store = store
	}
}

// WithProviders registers identity providers, dispatched by their ID.
func WithProviders(providers ...provider.Provider) Option {
	return func(o *engineOptions) {
		o.providers = append(o.providers, providers...)
	}
}

// WithEmailSignIn enables the magic-link provider. The token hash key is
// derived from the engine secrets, so it is constructed here rather than by
// the caller.
func WithEmailSignIn(m mailer.Mailer, opts ...provider.EmailOption) Option {
	return func(o *engineOptions) {
		o.mailer = m
		o.emailOpts = opts
	}
}

// New validates the configuration and builds an engine.
func New(cfg Config, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	options := engineOptions{
		log: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(&options)
	}

	keyring, err := secrets.NewKeyring(cfg.Secrets)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}

	codecOpts := []token.Option{}
	if cfg.EncryptSessionTokens {
		codecOpts = append(codecOpts, token.WithEncryption())
	}
	sessionCodec, err := token.NewCodec(keyring.Derive(sessionPurpose), codecOpts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}

	stateManager, err := state.New(keyring.Derive(state.Purpose), state.WithTTL(cfg.StateTTL))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}

	csrfManager, err := csrf.New(keyring.Derive(csrfPurpose))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}

	if options.mailer != nil {
		hashKey := keyring.Derive(provider.VerificationPurpose)[0]
		email, err := provider.NewEmail(options.mailer, hashKey, options.emailOpts...)
		if err != nil {
			return nil, err
		}
		options.providers = append(options.providers, email)
	}

	providers := make(map[string]provider.Provider, len(options.providers))
	needsStore := cfg.SessionStrategy == StrategyDatabase
	for _, p := range options.providers {
		if p == nil || p.ID() == "" {
			return nil, fmt.Errorf("%w: provider without id", ErrConfiguration)
		}
		if _, dup := providers[p.ID()]; dup {
			return nil, fmt.Errorf("%w: duplicate provider id %q", ErrConfiguration, p.ID())
		}
		providers[p.ID()] = p
		if p.Type() != provider.TypeCredentials {
			needsStore = true
		} else if cfg.SessionStrategy == StrategyDatabase {
			// Credentials sessions are always stateless, so under the
			// database strategy the session route could never resolve
			// them. Refuse the combination up front.
			return nil, fmt.Errorf("%w: credentials provider %q requires the jwt session strategy", ErrConfiguration, p.ID())
		}
	}
	if needsStore && options.store == nil {
		return nil, fmt.Errorf("%w: adapter is required for the configured strategy and providers", ErrConfiguration)
	}

	cookieOpts := []cookie.Option{cookie.WithSecure(cookie.ForceSecure(cfg.BaseURL))}
	if cfg.CookieDomain != "" {
		cookieOpts = append(cookieOpts, cookie.WithDomain(cfg.CookieDomain))
	}

	return &Engine{
		cfg:       cfg,
		log:       options.log,
		store:     options.store,
		providers: providers,
		cookies:   cookie.New(cookieOpts...),
		names:     cookie.DefaultNames(cfg.CookiePrefix),
		csrf:      csrfManager,
		state:     stateManager,
		sessions:  sessionCodec,
	}, nil
}

// CookieNames exposes the effective cookie names, for shims and tests.
func (e *Engine) CookieNames() cookie.Names {
	return e.names
}

// provider resolves a registered provider by id.
func (e *Engine) provider(id string) (provider.Provider, error) {
	p, ok := e.providers[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, id)
	}
	return p, nil
}

// errorRedirect reduces err to its coarse code and redirects to the error
// route. The full error goes to the logger only.
func (e *Engine) errorRedirect(req *Request, err error) *Response {
	code := errorCode(err)
	e.log.Error("auth flow failed",
		slog.String("code", code),
		slog.String("path", req.URL.Path),
		slog.String("error", err.Error()),
	)
	return redirectResponse(e.cfg.ErrorPath + "?error=" + code)
}

// verifyCSRF enforces the double-submit check on state-changing requests.
func (e *Engine) verifyCSRF(req *Request) error {
	cookieToken := req.Cookie(e.names.CSRF)
	if !e.csrf.Verify(cookieToken, req.csrfToken()) {
		return ErrCsrfMismatch
	}
	return nil
}

// sessionCookie bakes the session cookie with the configured lifetime.
func (e *Engine) sessionCookie(value string) *http.Cookie {
	return e.cookies.Bake(e.names.Session, value,
		cookie.WithMaxAge(int(e.cfg.SessionMaxAge.Seconds())),
	)
}

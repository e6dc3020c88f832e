package authkit

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Strategy selects how sessions are represented.
type Strategy string

const (
	// StrategyJWT keeps the whole session in a signed (optionally encrypted)
	// client-held token. No storage lookups on validation.
	StrategyJWT Strategy = "jwt"

	// StrategyDatabase keeps an opaque reference client-side and the full
	// record in the adapter's store. Requires an Adapter.
	StrategyDatabase Strategy = "database"
)

// LinkingPolicy decides what happens when a callback identity matches an
// existing user by email but no linked account exists yet.
type LinkingPolicy string

const (
	// LinkingDisabled fails closed with AccountLinkingRequired. The default.
	LinkingDisabled LinkingPolicy = "disabled"

	// LinkingByVerifiedEmail links automatically, but only when both the
	// provider and the stored user report the email as verified.
	LinkingByVerifiedEmail LinkingPolicy = "verified-email"
)

// Config holds engine configuration. Immutable after New.
type Config struct {
	// Secrets is the signing/encryption rotation list, newest first. Every
	// derived key (session, state, csrf, email verification) comes from it.
	Secrets []string `env:"AUTH_SECRET,required" envSeparator:","`

	// BaseURL is the external origin of the application, used to build
	// absolute links and to decide whether cookies must be Secure.
	BaseURL string `env:"AUTH_URL" envDefault:"http://localhost:8080"`

	// BasePath is the mount point of the auth routes.
	BasePath string `env:"AUTH_BASE_PATH" envDefault:"/auth"`

	// ErrorPath is where failed flows land, with ?error=<code> attached.
	ErrorPath string `env:"AUTH_ERROR_PATH" envDefault:"/auth/error"`

	CookiePrefix string `env:"AUTH_COOKIE_PREFIX" envDefault:"authkit"`
	CookieDomain string `env:"AUTH_COOKIE_DOMAIN"`

	SessionStrategy Strategy      `env:"AUTH_SESSION_STRATEGY" envDefault:"jwt"`
	SessionMaxAge   time.Duration `env:"AUTH_SESSION_MAX_AGE" envDefault:"720h"`

	// EncryptSessionTokens seals stateless session payloads with AES-GCM
	// instead of only signing them, hiding claims from the client.
	EncryptSessionTokens bool `env:"AUTH_SESSION_ENCRYPT" envDefault:"true"`

	// StateTTL bounds the sign-in attempt: the state/PKCE envelope only
	// needs to survive one round trip to the identity provider.
	StateTTL time.Duration `env:"AUTH_STATE_TTL" envDefault:"10m"`

	LinkingPolicy LinkingPolicy `env:"AUTH_LINKING_POLICY" envDefault:"disabled"`
}

// LoadConfig reads configuration from the environment, consulting .env files
// first when present.
func LoadConfig() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the configuration for fatal problems. New calls it; use it
// directly when building a Config by hand.
func (c Config) Validate() error {
	if len(c.Secrets) == 0 {
		return fmt.Errorf("%w: at least one secret is required", ErrConfiguration)
	}
	if !strings.HasPrefix(c.BasePath, "/") {
		return fmt.Errorf("%w: base path must start with /", ErrConfiguration)
	}
	if !strings.HasPrefix(c.ErrorPath, "/") {
		return fmt.Errorf("%w: error path must start with /", ErrConfiguration)
	}
	switch c.SessionStrategy {
	case StrategyJWT, StrategyDatabase:
	default:
		return fmt.Errorf("%w: unknown session strategy %q", ErrConfiguration, c.SessionStrategy)
	}
	switch c.LinkingPolicy {
	case LinkingDisabled, LinkingByVerifiedEmail:
	default:
		return fmt.Errorf("%w: unknown linking policy %q", ErrConfiguration, c.LinkingPolicy)
	}
	if c.SessionMaxAge <= 0 {
		return fmt.Errorf("%w: session max age must be positive", ErrConfiguration)
	}
	if c.StateTTL <= 0 {
		return fmt.Errorf("%w: state ttl must be positive", ErrConfiguration)
	}
	return nil
}

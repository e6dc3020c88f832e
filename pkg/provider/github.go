package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"golang.org/x/oauth2/github"
)

// GitHubConfig holds GitHub OAuth configuration.
type GitHubConfig struct {
	ClientID     string   `env:"GITHUB_OAUTH_CLIENT_ID,required"`
	ClientSecret string   `env:"GITHUB_OAUTH_CLIENT_SECRET,required"`
	RedirectURL  string   `env:"GITHUB_OAUTH_REDIRECT_URL,required"`
	Scopes       []string `env:"GITHUB_OAUTH_SCOPES" envSeparator:"," envDefault:"user:email"`
}

// NewGitHub creates the GitHub driver. GitHub's classic OAuth apps ignore
// PKCE, so only the state check is enforced; the email is resolved through
// /user/emails to get a real verification status.
func NewGitHub(cfg GitHubConfig) (*OAuth2, error) {
	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = []string{"user:email"}
	}

	return NewOAuth2(OAuth2Config{
		ID:           "github",
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURL,
		AuthURL:      github.Endpoint.AuthURL,
		TokenURL:     github.Endpoint.TokenURL,
		Scopes:       scopes,
		Checks:       Checks{State: true},
		Profile:      githubProfile,
	})
}

type ghUser struct {
	ID        int64  `json:"id"`
	Login     string `json:"login"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url"`
}

type ghEmail struct {
	Email    string `json:"email"`
	Primary  bool   `json:"primary"`
	Verified bool   `json:"verified"`
}

func githubProfile(ctx context.Context, client *http.Client) (*Profile, error) {
	var user ghUser
	if err := githubGet(ctx, client, "https://api.github.com/user", &user); err != nil {
		return nil, fmt.Errorf("%w: github: %v", ErrProfileFetch, err)
	}

	var emails []ghEmail
	if err := githubGet(ctx, client, "https://api.github.com/user/emails", &emails); err != nil {
		return nil, fmt.Errorf("%w: github: %v", ErrProfileFetch, err)
	}

	var email string
	var verified bool
	for _, e := range emails {
		if e.Primary && e.Verified {
			email, verified = e.Email, true
			break
		}
	}
	if email == "" {
		for _, e := range emails {
			if e.Verified {
				email, verified = e.Email, true
				break
			}
		}
	}
	if email == "" {
		return nil, fmt.Errorf("%w: github", ErrNoEmail)
	}

	name := user.Name
	if name == "" {
		name = user.Login
	}

	return &Profile{
		ProviderAccountID: strconv.FormatInt(user.ID, 10),
		Email:             email,
		EmailVerified:     verified,
		Name:              name,
		Image:             user.AvatarURL,
	}, nil
}

func githubGet(ctx context.Context, client *http.Client, url string, dest any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("github api returned status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(dest)
}

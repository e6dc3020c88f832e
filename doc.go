// Package authkit is a protocol-level authentication engine. It mediates
// sign-in across OAuth2, OpenID Connect, email magic-link, and
// credential-based providers, and issues and validates the resulting session
// state for a calling web application.
//
// The engine is framework-agnostic: requests enter as an abstract Request
// and leave as an abstract Response, so any HTTP stack can host it. A
// ready-made net/http handler built on chi is provided for the common case.
//
// Basic usage:
//
//	cfg, err := authkit.LoadConfig()
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	github, err := provider.NewGitHub(provider.GitHubConfig{
//		ClientID:     os.Getenv("GITHUB_CLIENT_ID"),
//		ClientSecret: os.Getenv("GITHUB_CLIENT_SECRET"),
//		RedirectURL:  "https://app.example.com/auth/callback/github",
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	engine, err := authkit.New(cfg,
//		authkit.WithAdapter(adapter.NewMemory()),
//		authkit.WithProviders(github),
//	)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	http.ListenAndServe(":8080", engine.Handler())
//
// Sessions come in two strategies: stateless tokens signed (optionally
// encrypted) with keys derived from the configured secrets, or opaque
// references into an Adapter-backed store. Secrets are an ordered rotation
// list, newest first: new tokens always use the first secret while
// verification walks the whole list.
package authkit

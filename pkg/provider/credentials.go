package provider

import (
	"context"
	"fmt"
)

// VerifyFunc validates submitted credentials and returns the corresponding
// profile, or ErrInvalidCredentials. The engine never stores or inspects the
// credentials themselves.
type VerifyFunc func(ctx context.Context, credentials map[string]string) (*Profile, error)

// Credentials is the caller-verified driver. It owns no credential store:
// validation is delegated entirely to the supplied function, and the engine
// refuses to create a persistent linked Account for this type, so sessions
// minted through it are always stateless.
type Credentials struct {
	id     string
	verify VerifyFunc
}

// NewCredentials creates a credentials driver with the given id ("credentials"
// when empty).
func NewCredentials(id string, verify VerifyFunc) (*Credentials, error) {
	if verify == nil {
		return nil, fmt.Errorf("%w: credentials: verify func is required", ErrInvalidConfig)
	}
	if id == "" {
		id = "credentials"
	}
	return &Credentials{id: id, verify: verify}, nil
}

func (c *Credentials) ID() string { return c.id }
func (c *Credentials) Type() Type { return TypeCredentials }

// Authorize runs the caller-supplied verification.
func (c *Credentials) Authorize(ctx context.Context, credentials map[string]string) (*Profile, error) {
	profile, err := c.verify(ctx, credentials)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, ErrInvalidCredentials
	}
	return profile, nil
}

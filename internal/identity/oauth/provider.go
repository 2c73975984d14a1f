// Package oauth implements the authorization code flow against the social
// identity providers. Providers that support it use PKCE (S256).
package oauth

import (
	"context"
	"errors"
	"strings"
	"time"
)

var (
	ErrProviderNotSupported = errors.New("oauth: provider not supported")
	ErrTokenExchange        = errors.New("oauth: token exchange failed")
	ErrUserInfo             = errors.New("oauth: user info failed")
)

// Token is the provider's token endpoint response.
type Token struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ExpiresIn    int64  `json:"expires_in,omitempty"`
}

// UserInfo is the provider-side identity. Only the stable id is used.
type UserInfo struct {
	ID string
}

type Provider interface {
	Name() string
	SupportsPKCE() bool
	// AuthorizationURL builds the redirect for the user agent. challenge is
	// ignored by providers without PKCE.
	AuthorizationURL(state, challenge string) string
	// ExchangeToken trades an authorization code for a token. verifier is
	// only sent by PKCE providers, state only by those that require it.
	ExchangeToken(ctx context.Context, code, state, verifier string) (Token, error)
	FetchUserInfo(ctx context.Context, accessToken string) (UserInfo, error)
}

// ProviderConfig is the client registration at one provider. Empty
// endpoints fall back to the provider's public defaults.
type ProviderConfig struct {
	ClientID     string        `env:"CLIENT_ID"`
	ClientSecret string        `env:"CLIENT_SECRET"`
	AuthURI      string        `env:"AUTH_URI"`
	TokenURI     string        `env:"TOKEN_URI"`
	UserInfoURI  string        `env:"USERINFO_URI"`
	RedirectURI  string        `env:"REDIRECT_URI"`
	Scopes       []string      `env:"SCOPES" envSeparator:" "`
	Timeout      time.Duration `env:"TIMEOUT" envDefault:"5s"`
}

// Enabled reports whether the provider is configured at all.
func (c ProviderConfig) Enabled() bool { return c.ClientID != "" }

// Registry resolves providers by name, case-insensitively.
type Registry struct {
	providers map[string]Provider
}

func NewRegistry(providers ...Provider) *Registry {
	r := &Registry{providers: make(map[string]Provider, len(providers))}
	for _, p := range providers {
		r.providers[strings.ToLower(p.Name())] = p
	}
	return r
}

func (r *Registry) Get(name string) (Provider, error) {
	p, ok := r.providers[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, ErrProviderNotSupported
	}
	return p, nil
}

// Names lists the registered providers.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.providers))
	for name := range r.providers {
		out = append(out, name)
	}
	return out
}

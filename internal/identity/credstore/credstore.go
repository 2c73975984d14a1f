// Package credstore keeps short-lived credential state in a key-value store:
// refresh tokens, email verification tokens and OAuth2 state. Single-use
// values are consumed with GetDel so two concurrent readers can never both
// observe the same value.
package credstore

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("credstore: not found")

// Key prefixes.
const (
	prefixRefresh      = "refresh_token:"
	prefixVerification = "verification_token:"
	prefixOAuthState   = "oauth2_state:"
)

// RefreshKey holds the single live refresh token of an account.
func RefreshKey(accountID string) string { return prefixRefresh + accountID }

// VerificationKey maps an email verification token to its account id.
func VerificationKey(token string) string { return prefixVerification + token }

// OAuthStateKey maps an OAuth2 state value to its PKCE verifier.
func OAuthStateKey(state string) string { return prefixOAuthState + state }

type Store interface {
	// Set writes value under key, replacing any previous value.
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	// Get returns ErrNotFound for missing or expired keys.
	Get(ctx context.Context, key string) (string, error)
	// GetDel atomically reads and removes key.
	GetDel(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
	Close() error
}

// Package service holds the identity flows: account lifecycle, token
// rotation, social login, partner onboarding and admin management. Every
// error returned to callers is an *apperr.Error unless documented otherwise.
package service

import (
	"time"

	"github.com/aussiebroadwan/identity/internal/identity/domain"
	"github.com/aussiebroadwan/identity/pkg/jwtx"
)

// TokenPair is what every successful login returns.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64 // access token lifetime in seconds
}

// SocialLoginResult is the outcome of an OAuth callback. Accounts that still
// need their profile get only the account id.
type SocialLoginResult struct {
	Active    bool
	AccountID string
	Tokens    *TokenPair
}

// Notifier queues best-effort notices.
type Notifier interface {
	Approval(to string) bool
	Rejection(to, reason string) bool
}

func clock(now func() time.Time) time.Time {
	if now == nil {
		return time.Now().UTC()
	}
	return now().UTC()
}

func roleClaims(a domain.Account) jwtx.RoleClaims {
	rc := jwtx.RoleClaims{
		Role:      string(a.Role),
		UserID:    a.UserID,
		PartnerID: a.PartnerID,
		AdminID:   a.AdminID,
	}
	if a.AdminRole != nil {
		rc.AdminRole = string(*a.AdminRole)
	}
	return rc
}

func ptr[T any](v T) *T { return &v }

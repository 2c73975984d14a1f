package jwtx

import (
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Default token lifetimes, overridable per deployment.
const (
	// DefaultAccessTokenTTL is the default lifetime for access tokens.
	DefaultAccessTokenTTL = 15 * time.Minute

	// DefaultRefreshTokenTTL is the default lifetime for refresh tokens.
	DefaultRefreshTokenTTL = 7 * 24 * time.Hour
)

// Role names as they appear in the "role" claim.
const (
	RoleEndUser = "END_USER"
	RolePartner = "PARTNER"
	RoleAdmin   = "ADMIN"
)

// Claims is the access token claim set. Refresh tokens use the same type
// with only the registered claims populated.
type Claims struct {
	jwt.RegisteredClaims

	Role string `json:"role,omitempty"`

	// Remote profile identifiers, at most one family is populated and only
	// the one matching Role.
	UserID    *int64 `json:"userId,omitempty"`
	PartnerID *int64 `json:"partnerId,omitempty"`
	AdminID   *int64 `json:"adminId,omitempty"`
	AdminRole string `json:"adminRole,omitempty"`
}

// RoleClaims is what the caller knows about an account when minting an
// access token. NewAccessClaims drops whatever does not belong to Role.
type RoleClaims struct {
	Role      string
	UserID    *int64
	PartnerID *int64
	AdminID   *int64
	AdminRole string
}

// IsRefresh reports whether c looks like a refresh token (no role).
func (c Claims) IsRefresh() bool { return c.Role == "" }

// NewAccessClaims builds role-scoped access token claims.
func NewAccessClaims(subject string, rc RoleClaims, issuer string, ttl time.Duration, now time.Time) Claims {
	c := Claims{
		RegisteredClaims: registered(subject, issuer, ttl, now),
		Role:             rc.Role,
	}

	switch rc.Role {
	case RoleEndUser:
		c.UserID = rc.UserID
	case RolePartner:
		c.PartnerID = rc.PartnerID
	case RoleAdmin:
		c.AdminID = rc.AdminID
		c.AdminRole = rc.AdminRole
	}
	return c
}

// NewRefreshClaims builds claims carrying only subject, issue time and expiry,
// so role changes take effect on the next rotation.
func NewRefreshClaims(subject, issuer string, ttl time.Duration, now time.Time) Claims {
	return Claims{RegisteredClaims: registered(subject, issuer, ttl, now)}
}

func registered(subject, issuer string, ttl time.Duration, now time.Time) jwt.RegisteredClaims {
	return jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		ID:        NewJTI(),
	}
}

// NewJTI returns a URL-safe random identifier for the "jti" claim. It keeps
// two refresh tokens minted in the same second for one account distinct.
func NewJTI() string {
	var b [16]byte
	_, _ = rand.Read(b[:])
	return base64.RawURLEncoding.EncodeToString(b[:])
}

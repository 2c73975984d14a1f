package identitysdk

import (
	"time"

	"github.com/aussiebroadwan/identity/pkg/httpx"
)

// Response is the service envelope with a typed data field.
type Response[T any] struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    T           `json:"data"`
	Meta    *httpx.Meta `json:"meta,omitempty"`
}

// ============================================================================
// Token Types
// ============================================================================

// TokenResponse is the access/refresh pair returned by every login flow and
// by refresh.
type TokenResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	// ExpiresIn is the access token lifetime in seconds.
	ExpiresIn int64 `json:"expiresIn"`
}

// ============================================================================
// Social Login Types
// ============================================================================

// Social callback outcomes.
const (
	SocialStatusIncomplete = "INCOMPLETE"
	SocialStatusSuccess    = "SUCCESS"
)

// SocialAuthResponse is the OAuth callback result. INCOMPLETE carries the
// account id to complete the profile with; SUCCESS carries tokens.
type SocialAuthResponse struct {
	Status    string         `json:"status"`
	AccountID string         `json:"accountId,omitempty"`
	Tokens    *TokenResponse `json:"tokens,omitempty"`
}

// UserProfileCompletionRequest finishes a social sign-up.
type UserProfileCompletionRequest struct {
	AccountID string `json:"accountId"`
	Name      string `json:"name"`
	Phone     string `json:"phone"`
	// FCMToken is only sent when push notifications were allowed.
	FCMToken string `json:"fcmToken,omitempty"`
}

// ============================================================================
// Partner Types
// ============================================================================

// PartnerSignupRequest is the partner sign-up form. LoginID is the contact
// email the verification link is sent to.
type PartnerSignupRequest struct {
	LoginID     string `json:"loginId"`
	Password    string `json:"password"`
	Name        string `json:"name"`
	CompanyName string `json:"companyName"`
	Address     string `json:"address"`
	Phone       string `json:"phone"`
	CompanyNum  string `json:"companyNum"`
	BusinessNum string `json:"businessNum"`
}

// PartnerLoginRequest authenticates an approved partner.
type PartnerLoginRequest struct {
	LoginID  string `json:"loginId"`
	Password string `json:"password"`
}

// PartnerRejectionRequest carries the admin's reason for rejecting a partner.
type PartnerRejectionRequest struct {
	Reason string `json:"reason"`
}

// PartnerPendingResponse is one row of the pending-approval list: the local
// account joined with the remote profile.
type PartnerPendingResponse struct {
	AccountID   string    `json:"accountId"`
	CreatedAt   time.Time `json:"createdAt"`
	Name        string    `json:"name"`
	CompanyName string    `json:"companyName"`
	Address     string    `json:"address"`
	Phone       string    `json:"phone"`
	CompanyNum  string    `json:"companyNum"`
	BusinessNum string    `json:"businessNum"`
}

// ============================================================================
// Admin Types
// ============================================================================

// Admin sub-roles.
const (
	AdminRoleSuper   = "SUPER_ADMIN"
	AdminRoleContent = "CONTENT_ADMIN"
	AdminRoleMonitor = "MONITOR_ADMIN"
)

// AdminSignupRequest pre-registers an admin account. Only a SUPER_ADMIN may
// call it.
type AdminSignupRequest struct {
	LoginID    string `json:"loginId"`
	Password   string `json:"password"`
	Name       string `json:"name"`
	Department string `json:"department"`
	Phone      string `json:"phone"`
	AdminRole  string `json:"adminRole"`
}

// AdminBootstrapRequest creates the first SUPER_ADMIN. It is accepted only
// with the configured bootstrap token and only while no admin exists.
type AdminBootstrapRequest struct {
	LoginID    string `json:"loginId"`
	Password   string `json:"password"`
	Name       string `json:"name"`
	Department string `json:"department"`
	Phone      string `json:"phone"`
}

// AdminBootstrapResponse identifies the created SUPER_ADMIN account.
type AdminBootstrapResponse struct {
	AccountID string `json:"accountId"`
}

// AdminLoginRequest authenticates an admin. OTP is required once TOTP has
// been confirmed for the account.
type AdminLoginRequest struct {
	LoginID  string `json:"loginId"`
	Password string `json:"password"`
	OTP      string `json:"otp,omitempty"`
}

// TOTPEnrollResponse carries the secret to load into an authenticator app.
type TOTPEnrollResponse struct {
	Secret string `json:"secret"`
	URL    string `json:"url"`
}

// TOTPConfirmRequest proves possession of the enrolled secret.
type TOTPConfirmRequest struct {
	Code string `json:"code"`
}

// ============================================================================
// Health Types
// ============================================================================

// HealthResponse is returned by /livez and /readyz.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

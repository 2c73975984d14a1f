package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/aussiebroadwan/identity/pkg/idx"
)

var (
	// ErrUnexpectedStatus is returned when a conditional transition finds the
	// account in a different state than the caller expected.
	ErrUnexpectedStatus = errors.New("account is not in the expected status")
	// ErrExternalIDAlreadySet reports an attempt to overwrite a remote profile id.
	ErrExternalIDAlreadySet = errors.New("external id already set")
	// ErrInvalidTransition is an edge missing from the lifecycle graph.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrProfileIDRequired guards transitions that need the remote profile.
	ErrProfileIDRequired = errors.New("remote profile id required for transition")
)

type AuthMethod string

const (
	AuthMethodInternal AuthMethod = "INTERNAL"
	AuthMethodEmail    AuthMethod = "EMAIL"
	AuthMethodNaver    AuthMethod = "NAVER"
	AuthMethodKakao    AuthMethod = "KAKAO"
	AuthMethodGoogle   AuthMethod = "GOOGLE"
)

// AuthMethodForProvider maps a social provider name to its auth method tag.
func AuthMethodForProvider(provider string) (AuthMethod, bool) {
	switch strings.ToLower(provider) {
	case "naver":
		return AuthMethodNaver, true
	case "kakao":
		return AuthMethodKakao, true
	case "google":
		return AuthMethodGoogle, true
	}
	return "", false
}

// SocialLoginID composes the login id of a social account.
func SocialLoginID(provider, providerUserID string) string {
	return strings.ToLower(provider) + "|" + providerUserID
}

type Role string

const (
	RoleEndUser Role = "END_USER"
	RolePartner Role = "PARTNER"
	RoleAdmin   Role = "ADMIN"
)

type AdminRole string

const (
	AdminRoleSuper   AdminRole = "SUPER_ADMIN"
	AdminRoleContent AdminRole = "CONTENT_ADMIN"
	AdminRoleMonitor AdminRole = "MONITOR_ADMIN"
)

func (r AdminRole) Valid() bool {
	switch r {
	case AdminRoleSuper, AdminRoleContent, AdminRoleMonitor:
		return true
	}
	return false
}

type Status string

const (
	StatusWaitingProfileCompletion Status = "WAITING_PROFILE_COMPLETION"
	StatusWaitingEmailVerification Status = "WAITING_EMAIL_VERIFICATION"
	StatusPendingAdminApproval     Status = "PENDING_ADMIN_APPROVAL"
	StatusActive                   Status = "ACTIVE"
)

// InitialStatus is the status a freshly created account of role starts in.
func InitialStatus(role Role) Status {
	switch role {
	case RoleEndUser:
		return StatusWaitingProfileCompletion
	case RolePartner:
		return StatusWaitingEmailVerification
	default:
		return StatusActive
	}
}

// ExternalIDKind names which remote profile id an account carries.
type ExternalIDKind string

const (
	ExternalUserID    ExternalIDKind = "user_id"
	ExternalPartnerID ExternalIDKind = "partner_id"
	ExternalAdminID   ExternalIDKind = "admin_id"
)

// ExternalIDKindFor returns the profile id kind owned by role.
func ExternalIDKindFor(role Role) ExternalIDKind {
	switch role {
	case RolePartner:
		return ExternalPartnerID
	case RoleAdmin:
		return ExternalAdminID
	default:
		return ExternalUserID
	}
}

// Account is the local identity record. Optional remote ids stay nil until
// the owning profile service has created the profile.
type Account struct {
	ID           idx.ID
	AuthMethod   AuthMethod
	LoginID      string
	PasswordHash *string // argon2id PHC, nil for social accounts
	Role         Role
	AdminRole    *AdminRole

	UserID    *int64
	PartnerID *int64
	AdminID   *int64

	Status Status

	TOTPSecret    *string    // base32, set on enrolment
	TOTPEnabledAt *time.Time // set once the first code was confirmed

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (a Account) IsActive() bool { return a.Status == StatusActive }

func (a Account) TOTPEnabled() bool { return a.TOTPEnabledAt != nil && a.TOTPSecret != nil }

// ExternalID returns the remote profile id for the account's role.
func (a Account) ExternalID() *int64 {
	switch a.Role {
	case RolePartner:
		return a.PartnerID
	case RoleAdmin:
		return a.AdminID
	default:
		return a.UserID
	}
}

// edges of the lifecycle graph, per role.
var transitions = map[Role]map[Status]Status{
	RoleEndUser: {StatusWaitingProfileCompletion: StatusActive},
	RolePartner: {
		StatusWaitingEmailVerification: StatusPendingAdminApproval,
		StatusPendingAdminApproval:     StatusActive,
	},
}

// CanTransition validates moving a from its current status to next.
// Reaching PENDING_ADMIN_APPROVAL or ACTIVE requires the remote profile id.
func (a Account) CanTransition(next Status) error {
	if transitions[a.Role][a.Status] != next {
		return ErrInvalidTransition
	}
	if a.ExternalID() == nil {
		return ErrProfileIDRequired
	}
	return nil
}

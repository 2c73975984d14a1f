// Package apperr is the service error taxonomy. Every error that reaches a
// client is an *Error with a stable numeric code: 1xxx codes are business
// rule violations, 2xxx codes are infrastructure failures.
package apperr

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/aussiebroadwan/identity/pkg/httpx"
)

type Kind int

const (
	Business Kind = iota + 1
	Infrastructure
)

func (k Kind) String() string {
	if k == Business {
		return "business"
	}
	return "infrastructure"
}

// Error is a taxonomy entry, optionally carrying the underlying cause. The
// cause is for logs and errors.Is, never for the response body.
type Error struct {
	Code    int
	Kind    Kind
	Message string
	Status  int
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%d %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%d %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// Is matches any *Error with the same code, so sentinels compare equal to
// their wrapped copies.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// Wrap returns a copy of e carrying cause.
func (e *Error) Wrap(cause error) *Error {
	c := *e
	c.cause = cause
	return &c
}

// WithMessage returns a copy of e with a more specific client message.
func (e *Error) WithMessage(msg string) *Error {
	c := *e
	c.Message = msg
	return &c
}

func business(code, status int, msg string) *Error {
	return &Error{Code: code, Kind: Business, Message: msg, Status: status}
}

func infra(code int, msg string) *Error {
	return &Error{Code: code, Kind: Infrastructure, Message: msg, Status: http.StatusInternalServerError}
}

// Business errors.
var (
	DuplicateLoginID             = business(1001, http.StatusConflict, "Login ID already exists")
	InvalidCredentials           = business(1002, http.StatusUnauthorized, "Invalid login ID or password")
	InvalidVerificationToken     = business(1003, http.StatusBadRequest, "Invalid or expired verification token")
	InvalidOAuth2State           = business(1004, http.StatusBadRequest, "Invalid or expired OAuth2 state")
	ProviderNotSupported         = business(1005, http.StatusBadRequest, "Social provider not supported")
	AccountNotFound              = business(1006, http.StatusNotFound, "Account not found")
	PendingAdminApprovalRequired = business(1007, http.StatusConflict, "Account is not pending admin approval")
	ProfileAlreadyCompleted      = business(1008, http.StatusConflict, "Profile already completed")
	AccountNotActive             = business(1009, http.StatusForbidden, "Account is not active")
	RefreshTokenInvalid          = business(1010, http.StatusUnauthorized, "Invalid refresh token")
	RefreshTokenNotFound         = business(1011, http.StatusUnauthorized, "Refresh token not found")
	RefreshTokenMismatch         = business(1012, http.StatusUnauthorized, "Refresh token mismatch")
	TokenInvalid                 = business(1013, http.StatusUnauthorized, "Invalid or expired token")
	PartnerNotFound              = business(1014, http.StatusNotFound, "Partner profile not found")
	InvalidRequest               = business(1015, http.StatusBadRequest, "Invalid request")
	Unauthorized                 = business(httpx.CodeUnauthorized, http.StatusUnauthorized, "Authentication required")
	Forbidden                    = business(httpx.CodeForbidden, http.StatusForbidden, "Access denied")
	OTPRequired                  = business(1018, http.StatusUnauthorized, "One-time password required")
	InvalidOTP                   = business(1019, http.StatusUnauthorized, "Invalid one-time password")
	AlreadyBootstrapped          = business(1020, http.StatusConflict, "System already bootstrapped")
	DuplicateBusinessNumber      = business(1021, http.StatusConflict, "Business number already registered")
	TooManyRequests              = business(httpx.CodeTooManyRequests, http.StatusTooManyRequests, "Too many requests")
)

// Infrastructure errors.
var (
	DBRetrieveFailure             = infra(2001, "Failed to read from database")
	DBSaveFailure                 = infra(2002, "Failed to write to database")
	DBDeleteFailure               = infra(2003, "Failed to delete from database")
	RefreshTokenStoreFailure      = infra(2101, "Failed to access refresh token store")
	VerificationTokenStoreFailure = infra(2102, "Failed to access verification token store")
	OAuthStateStoreFailure        = infra(2103, "Failed to access OAuth2 state store")
	ExternalAPIFailure            = infra(2201, "External service call failed")
	EmailSendFailure              = infra(2202, "Failed to send email")
	OAuthTokenExchangeFailure     = infra(2203, "Failed to exchange OAuth2 authorization code")
	OAuthUserInfoFailure          = infra(2204, "Failed to fetch social user info")
	PKCEChallengeFailure          = infra(2301, "Failed to generate PKCE challenge")
	TokenSigningFailure           = infra(2302, "Failed to sign token")
	PasswordHashFailure           = infra(2303, "Failed to hash password")
	Internal                      = infra(2999, "Internal server error")
)

// From extracts the taxonomy error from err. Anything unclassified becomes
// Internal wrapping err.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Internal.Wrap(err)
}

// IsBusiness reports whether err is a business rule violation.
func IsBusiness(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == Business
}

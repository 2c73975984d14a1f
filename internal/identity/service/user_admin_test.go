package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/identity/internal/identity/apperr"
	"github.com/aussiebroadwan/identity/internal/identity/domain"
	"github.com/aussiebroadwan/identity/internal/identity/service"
	"github.com/aussiebroadwan/identity/pkg/jwtx"
)

func TestUser_CompleteProfile(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	a, err := h.accounts.ResolveSocial(ctx, "naver", "nv-1")
	require.NoError(t, err)
	require.Equal(t, domain.AuthMethodNaver, a.AuthMethod)
	require.Equal(t, domain.StatusWaitingProfileCompletion, a.Status)

	pair, err := h.user.CompleteProfile(ctx, a.ID, service.UserProfile{Name: "Lee", Phone: "010-1111-2222"})
	require.NoError(t, err)

	claims, err := h.engine.Verify(pair.AccessToken)
	require.NoError(t, err)
	require.Equal(t, jwtx.RoleEndUser, claims.Role)
	require.NotNil(t, claims.UserID)

	_, err = h.user.CompleteProfile(ctx, a.ID, service.UserProfile{Name: "Lee"})
	require.ErrorIs(t, err, apperr.ProfileAlreadyCompleted)
}

func TestUser_CompleteProfileRemoteFailure(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	a, err := h.accounts.ResolveSocial(ctx, "google", "g-1")
	require.NoError(t, err)

	h.users.err = errors.New("timeout")
	_, err = h.user.CompleteProfile(ctx, a.ID, service.UserProfile{Name: "Lee"})
	require.ErrorIs(t, err, apperr.ExternalAPIFailure)

	h.users.err = nil
	_, err = h.user.CompleteProfile(ctx, a.ID, service.UserProfile{Name: "Lee"})
	require.NoError(t, err)
}

func TestAccounts_ResolveSocialIsIdempotent(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	a, err := h.accounts.ResolveSocial(ctx, "Kakao", "1")
	require.NoError(t, err)
	b, err := h.accounts.ResolveSocial(ctx, "kakao", "1")
	require.NoError(t, err)
	require.Equal(t, a.ID, b.ID)
	require.Equal(t, "kakao|1", b.LoginID)

	_, err = h.accounts.ResolveSocial(ctx, "myspace", "1")
	require.ErrorIs(t, err, apperr.ProviderNotSupported)
}

func TestAccounts_AttachExternalIDOnce(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	a, err := h.accounts.ResolveSocial(ctx, "kakao", "2")
	require.NoError(t, err)

	require.NoError(t, h.accounts.AttachExternalID(ctx, a.ID, domain.ExternalUserID, 10))
	err = h.accounts.AttachExternalID(ctx, a.ID, domain.ExternalUserID, 11)
	require.ErrorIs(t, err, apperr.Internal)
	require.ErrorIs(t, err, domain.ErrExternalIDAlreadySet)
}

func TestAdmin_BootstrapOnce(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	req := service.AdminSignup{LoginID: "root", Password: "s3cret-pass", Name: "Root"}

	_, err := h.admin.Bootstrap(ctx, "wrong", req)
	require.ErrorIs(t, err, apperr.Unauthorized)

	id, err := h.admin.Bootstrap(ctx, "boot", req)
	require.NoError(t, err)

	a, err := h.accounts.MustFindByID(ctx, id)
	require.NoError(t, err)
	require.Equal(t, domain.AdminRoleSuper, *a.AdminRole)
	require.Equal(t, domain.AuthMethodInternal, a.AuthMethod)
	require.True(t, a.IsActive())
	require.NotNil(t, a.AdminID)

	req.LoginID = "root2"
	_, err = h.admin.Bootstrap(ctx, "boot", req)
	require.ErrorIs(t, err, apperr.AlreadyBootstrapped)
}

func TestAdmin_RegisterValidation(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	activeAdmin(t, h)

	_, err := h.admin.Register(ctx, service.AdminSignup{LoginID: "ops", Password: "pw-123456", AdminRole: "OWNER"})
	require.ErrorIs(t, err, apperr.InvalidRequest)

	_, err = h.admin.Register(ctx, service.AdminSignup{LoginID: "root", Password: "pw-123456", AdminRole: domain.AdminRoleContent})
	require.ErrorIs(t, err, apperr.DuplicateLoginID)
}

func TestAdmin_LoginWithTOTP(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	a := activeAdmin(t, h)

	_, err := h.admin.Login(ctx, "root", "s3cret-pass", "")
	require.NoError(t, err)
	_, err = h.admin.Login(ctx, "root", "nope", "")
	require.ErrorIs(t, err, apperr.InvalidCredentials)
	_, err = h.admin.Login(ctx, "nobody", "nope", "")
	require.ErrorIs(t, err, apperr.InvalidCredentials)

	enrol, err := h.admin.EnrollTOTP(ctx, a.ID)
	require.NoError(t, err)
	require.NotEmpty(t, enrol.Secret)
	require.Contains(t, enrol.URL, "otpauth://")

	// Enrolled but unconfirmed: not enforced yet.
	_, err = h.admin.Login(ctx, "root", "s3cret-pass", "")
	require.NoError(t, err)

	require.ErrorIs(t, h.admin.ConfirmTOTP(ctx, a.ID, "000000"), apperr.InvalidOTP)

	code, err := totp.GenerateCode(enrol.Secret, h.clock.Now())
	require.NoError(t, err)
	require.NoError(t, h.admin.ConfirmTOTP(ctx, a.ID, code))

	_, err = h.admin.Login(ctx, "root", "s3cret-pass", "")
	require.ErrorIs(t, err, apperr.OTPRequired)
	_, err = h.admin.Login(ctx, "root", "s3cret-pass", "000000")
	require.ErrorIs(t, err, apperr.InvalidOTP)
	_, err = h.admin.Login(ctx, "root", "s3cret-pass", code)
	require.NoError(t, err)

	_, err = h.admin.EnrollTOTP(ctx, a.ID)
	require.ErrorIs(t, err, apperr.InvalidRequest)
}

func TestAdmin_MFARequiresAdmin(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	u, err := h.accounts.ResolveSocial(ctx, "kakao", "3")
	require.NoError(t, err)
	_, err = h.admin.EnrollTOTP(ctx, u.ID)
	require.ErrorIs(t, err, apperr.Forbidden)
}

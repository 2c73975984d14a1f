package identity_test

import (
	"testing"
	"time"

	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/identity/pkg/identitysdk"
)

func TestAdmin_BootstrapOnlyOnce(t *testing.T) {
	e := setupService(t)
	bootstrapAdmin(t, e.client)

	_, err := e.client.BootstrapAdmin(t.Context(), bootstrapToken, identitysdk.AdminBootstrapRequest{
		LoginID:    "second",
		Password:   adminPassword,
		Name:       "Second",
		Department: "Platform",
		Phone:      "010-0000-0001",
	})
	require.Error(t, err)
}

func TestAdmin_TOTPEnforcedAfterConfirm(t *testing.T) {
	e := setupService(t)
	ctx := t.Context()
	admin := bootstrapAdmin(t, e.client)

	enrolment, err := e.client.EnrollTOTP(ctx, admin)
	require.NoError(t, err)
	require.NotEmpty(t, enrolment.Secret)
	require.Contains(t, enrolment.URL, "otpauth://totp/")

	// Enrolment alone does not change login
	_, err = e.client.AdminLogin(ctx, identitysdk.AdminLoginRequest{LoginID: adminLoginID, Password: adminPassword})
	require.NoError(t, err)

	code, err := totp.GenerateCode(enrolment.Secret, time.Now())
	require.NoError(t, err)
	require.NoError(t, e.client.ConfirmTOTP(ctx, admin, code))

	_, err = e.client.AdminLogin(ctx, identitysdk.AdminLoginRequest{LoginID: adminLoginID, Password: adminPassword})
	assertCode(t, err, identitysdk.CodeOTPRequired)

	code, err = totp.GenerateCode(enrolment.Secret, time.Now())
	require.NoError(t, err)
	tokens, err := e.client.AdminLogin(ctx, identitysdk.AdminLoginRequest{
		LoginID:  adminLoginID,
		Password: adminPassword,
		OTP:      code,
	})
	require.NoError(t, err)
	assertTokenResponse(t, tokens)
}

func TestAdmin_SubAdminCannotManageAdmins(t *testing.T) {
	e := setupService(t)
	ctx := t.Context()
	root := bootstrapAdmin(t, e.client)

	require.NoError(t, e.client.AdminSignup(ctx, root, identitysdk.AdminSignupRequest{
		LoginID:    "content",
		Password:   adminPassword,
		Name:       "Content",
		Department: "Editorial",
		Phone:      "010-0000-0002",
		AdminRole:  identitysdk.AdminRoleContent,
	}))

	tokens, err := e.client.AdminLogin(ctx, identitysdk.AdminLoginRequest{LoginID: "content", Password: adminPassword})
	require.NoError(t, err)

	// Any admin may read the queue
	_, _, err = e.client.PendingPartners(ctx, tokens.AccessToken, 0, 10)
	require.NoError(t, err)

	err = e.client.AdminSignup(ctx, tokens.AccessToken, identitysdk.AdminSignupRequest{
		LoginID:    "another",
		Password:   adminPassword,
		Name:       "Another",
		Department: "Editorial",
		Phone:      "010-0000-0003",
		AdminRole:  identitysdk.AdminRoleMonitor,
	})
	require.Error(t, err)
	var apiErr *identitysdk.Error
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, 403, apiErr.Status)
}

func TestRefresh_RotatesAndRejectsReplay(t *testing.T) {
	e := setupService(t)
	ctx := t.Context()
	bootstrapAdmin(t, e.client)

	first, err := e.client.AdminLogin(ctx, identitysdk.AdminLoginRequest{LoginID: adminLoginID, Password: adminPassword})
	require.NoError(t, err)

	second, err := e.client.Refresh(ctx, first.RefreshToken)
	require.NoError(t, err)
	assertTokenResponse(t, second)
	require.NotEqual(t, first.RefreshToken, second.RefreshToken)

	_, err = e.client.Refresh(ctx, first.RefreshToken)
	assertCode(t, err, identitysdk.CodeRefreshTokenMismatch)

	_, err = e.client.Refresh(ctx, second.RefreshToken)
	require.NoError(t, err)
}

package http_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	identityhttp "github.com/aussiebroadwan/identity/internal/identity/http"
	"github.com/aussiebroadwan/identity/pkg/httpx"
	"github.com/aussiebroadwan/identity/pkg/identitysdk"
	"github.com/aussiebroadwan/identity/pkg/idx"
)

func TestPartnerFlowOverHTTP(t *testing.T) {
	s := newServer(t, serverConfig{bootstrapToken: "boot"})

	status, env := s.do(t, http.MethodPost, "/auth/partners/signup", partnerForm("p@x.com"), nil)
	require.Equal(t, http.StatusCreated, status, env.Message)
	require.Equal(t, httpx.CodeOK, env.Code)
	require.Equal(t, "Partner account created + Verification email sent", env.Message)

	// Not active yet
	status, env = s.do(t, http.MethodPost, "/auth/partners/login", identitysdk.PartnerLoginRequest{
		LoginID: "p@x.com", Password: "correct horse battery",
	}, nil)
	require.Equal(t, http.StatusForbidden, status)
	require.Equal(t, identitysdk.CodeAccountNotActive, env.Code)

	status, _ = s.do(t, http.MethodGet, "/auth/partners/verify?token="+s.mail.token(t, "p@x.com"), nil, nil)
	require.Equal(t, http.StatusOK, status)

	admin := s.bootstrapAdmin(t)

	status, env = s.do(t, http.MethodGet, "/auth/admins/partners/pending?page=0&size=5", nil, bearer(admin))
	require.Equal(t, http.StatusOK, status, env.Message)
	require.Equal(t, "Pending partners retrieved successfully", env.Message)
	require.NotNil(t, env.Meta)
	require.EqualValues(t, 1, env.Meta.TotalElements)
	require.Equal(t, 1, env.Meta.TotalPages)
	rows := decodeData[[]identitysdk.PartnerPendingResponse](t, env)
	require.Len(t, rows, 1)
	require.Equal(t, "Wedding Co", rows[0].CompanyName)

	status, env = s.do(t, http.MethodPost, "/auth/admins/partners/"+rows[0].AccountID+"/approval", nil, bearer(admin))
	require.Equal(t, http.StatusOK, status, env.Message)
	require.Equal(t, "Partner approved", env.Message)

	status, env = s.do(t, http.MethodPost, "/auth/partners/login", identitysdk.PartnerLoginRequest{
		LoginID: "p@x.com", Password: "correct horse battery",
	}, nil)
	require.Equal(t, http.StatusOK, status, env.Message)
	first := decodeData[identitysdk.TokenResponse](t, env)
	require.NotEmpty(t, first.AccessToken)
	require.Positive(t, first.ExpiresIn)

	status, env = s.do(t, http.MethodPost, "/auth/token/refresh", nil, bearer(first.RefreshToken))
	require.Equal(t, http.StatusOK, status, env.Message)
	require.Equal(t, "Refresh successful", env.Message)
	second := decodeData[identitysdk.TokenResponse](t, env)
	require.NotEqual(t, first.RefreshToken, second.RefreshToken)

	status, env = s.do(t, http.MethodPost, "/auth/token/refresh", nil, bearer(first.RefreshToken))
	require.Equal(t, http.StatusUnauthorized, status)
	require.Equal(t, identitysdk.CodeRefreshTokenMismatch, env.Code)
}

func TestVerifyTokenIsSingleUse(t *testing.T) {
	s := newServer(t, serverConfig{})

	status, _ := s.do(t, http.MethodPost, "/auth/partners/signup", partnerForm("once@x.com"), nil)
	require.Equal(t, http.StatusCreated, status)
	tok := s.mail.token(t, "once@x.com")

	status, _ = s.do(t, http.MethodGet, "/auth/partners/verify?token="+tok, nil, nil)
	require.Equal(t, http.StatusOK, status)

	status, env := s.do(t, http.MethodGet, "/auth/partners/verify?token="+tok, nil, nil)
	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, identitysdk.CodeInvalidVerificationToken, env.Code)

	status, env = s.do(t, http.MethodGet, "/auth/partners/verify", nil, nil)
	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, identitysdk.CodeInvalidVerificationToken, env.Code)
}

func TestSignupValidation(t *testing.T) {
	s := newServer(t, serverConfig{})

	form := partnerForm("not-an-email")
	form.BusinessNum = "12-34"
	status, env := s.do(t, http.MethodPost, "/auth/partners/signup", form, nil)
	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, identitysdk.CodeInvalidRequest, env.Code)

	fields := decodeData[map[string]string](t, env)
	require.Contains(t, fields, "loginId")
	require.Contains(t, fields, "businessNum")
	require.NotContains(t, fields, "companyName")
}

func TestMalformedJSON(t *testing.T) {
	s := newServer(t, serverConfig{})

	req := httptest.NewRequest(http.MethodPost, "/auth/partners/login", nil)
	req.Body = http.NoBody
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), `"code":1015`)
}

func TestDuplicateSignupConflict(t *testing.T) {
	s := newServer(t, serverConfig{})

	status, _ := s.do(t, http.MethodPost, "/auth/partners/signup", partnerForm("dup@x.com"), nil)
	require.Equal(t, http.StatusCreated, status)

	status, env := s.do(t, http.MethodPost, "/auth/partners/signup", partnerForm("dup@x.com"), nil)
	require.Equal(t, http.StatusConflict, status)
	require.Equal(t, identitysdk.CodeDuplicateLoginID, env.Code)
}

func TestAdminRouteAccess(t *testing.T) {
	s := newServer(t, serverConfig{bootstrapToken: "boot"})
	admin := s.bootstrapAdmin(t)

	// A CONTENT_ADMIN may list but not approve
	status, env := s.do(t, http.MethodPost, "/auth/admins/signup", identitysdk.AdminSignupRequest{
		LoginID:    "editor",
		Password:   "editor password",
		Name:       "Ed",
		Department: "Content",
		Phone:      "010-1111-2222",
		AdminRole:  identitysdk.AdminRoleContent,
	}, bearer(admin))
	require.Equal(t, http.StatusCreated, status, env.Message)
	require.Equal(t, "Admin account created", env.Message)

	status, env = s.do(t, http.MethodPost, "/auth/admins/login", identitysdk.AdminLoginRequest{
		LoginID: "editor", Password: "editor password",
	}, nil)
	require.Equal(t, http.StatusOK, status, env.Message)
	editor := decodeData[identitysdk.TokenResponse](t, env).AccessToken

	approvePath := "/auth/admins/partners/" + idx.New().String() + "/approval"

	tests := []struct {
		name    string
		method  string
		path    string
		headers map[string]string
		status  int
		code    int
	}{
		{"no token", http.MethodPost, approvePath, nil, http.StatusUnauthorized, httpx.CodeUnauthorized},
		{"garbage token", http.MethodPost, approvePath, bearer("nope"), http.StatusUnauthorized, httpx.CodeUnauthorized},
		{"content admin approves", http.MethodPost, approvePath, bearer(editor), http.StatusForbidden, httpx.CodeForbidden},
		{"content admin lists", http.MethodGet, "/auth/admins/partners/pending", bearer(editor), http.StatusOK, httpx.CodeOK},
		{"super admin unknown account", http.MethodPost, approvePath, bearer(admin), http.StatusNotFound, identitysdk.CodeAccountNotFound},
		{"bad account id", http.MethodPost, "/auth/admins/partners/xyz/approval", bearer(admin), http.StatusBadRequest, identitysdk.CodeInvalidRequest},
		{"bad page size", http.MethodGet, "/auth/admins/partners/pending?size=1000", bearer(admin), http.StatusBadRequest, identitysdk.CodeInvalidRequest},
		{"page past the last", http.MethodGet, "/auth/admins/partners/pending?page=1000001", bearer(admin), http.StatusBadRequest, identitysdk.CodeInvalidRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, env := s.do(t, tt.method, tt.path, nil, tt.headers)
			require.Equal(t, tt.status, status, env.Message)
			require.Equal(t, tt.code, env.Code)
		})
	}
}

func TestRefreshTokenRejectedAsAccessToken(t *testing.T) {
	s := newServer(t, serverConfig{bootstrapToken: "boot"})
	s.bootstrapAdmin(t)

	status, env := s.do(t, http.MethodPost, "/auth/admins/login", identitysdk.AdminLoginRequest{
		LoginID: "root", Password: "super secret pw",
	}, nil)
	require.Equal(t, http.StatusOK, status)
	pair := decodeData[identitysdk.TokenResponse](t, env)

	status, _ = s.do(t, http.MethodGet, "/auth/admins/partners/pending", nil, bearer(pair.RefreshToken))
	require.Equal(t, http.StatusUnauthorized, status)

	status, env = s.do(t, http.MethodPost, "/auth/token/refresh", nil, nil)
	require.Equal(t, http.StatusUnauthorized, status)
	require.Equal(t, 1010, env.Code)
}

func TestGatewayIdentity(t *testing.T) {
	headers := map[string]string{
		httpx.HeaderAccountID: idx.New().String(),
		httpx.HeaderRole:      "ADMIN",
		httpx.HeaderAdminRole: "MONITOR_ADMIN",
	}

	t.Run("trusted", func(t *testing.T) {
		s := newServer(t, serverConfig{gateway: true})
		status, env := s.do(t, http.MethodGet, "/auth/admins/partners/pending", nil, headers)
		require.Equal(t, http.StatusOK, status, env.Message)
	})

	t.Run("untrusted", func(t *testing.T) {
		s := newServer(t, serverConfig{})
		status, env := s.do(t, http.MethodGet, "/auth/admins/partners/pending", nil, headers)
		require.Equal(t, http.StatusUnauthorized, status)
		require.Equal(t, httpx.CodeUnauthorized, env.Code)
	})
}

func TestBootstrap(t *testing.T) {
	t.Run("disabled without token", func(t *testing.T) {
		s := newServer(t, serverConfig{})
		status, _ := s.do(t, http.MethodPost, "/auth/admins/bootstrap", identitysdk.AdminBootstrapRequest{}, nil)
		require.Equal(t, http.StatusNotFound, status)
	})

	t.Run("once", func(t *testing.T) {
		s := newServer(t, serverConfig{bootstrapToken: "boot"})
		s.bootstrapAdmin(t)

		req := identitysdk.AdminBootstrapRequest{
			LoginID: "again", Password: "another password", Name: "A", Department: "B", Phone: "010",
		}
		status, env := s.do(t, http.MethodPost, "/auth/admins/bootstrap", req,
			map[string]string{identityhttp.BootstrapTokenHeader: "boot"})
		require.Equal(t, http.StatusConflict, status)
		require.Equal(t, 1020, env.Code)

		status, env = s.do(t, http.MethodPost, "/auth/admins/bootstrap", req,
			map[string]string{identityhttp.BootstrapTokenHeader: "wrong"})
		require.Equal(t, http.StatusUnauthorized, status)
		require.Equal(t, httpx.CodeUnauthorized, env.Code)
	})
}

func TestSocialRoutes(t *testing.T) {
	s := newServer(t, serverConfig{})

	status, env := s.do(t, http.MethodGet, "/auth/oauth2/authorize/myspace", nil, nil)
	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, 1005, env.Code)

	status, env = s.do(t, http.MethodGet, "/auth/oauth2/callback/kakao?state=abc", nil, nil)
	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, identitysdk.CodeInvalidRequest, env.Code)

	status, env = s.do(t, http.MethodPost, "/auth/users/profile/complete", identitysdk.UserProfileCompletionRequest{
		AccountID: idx.New().String(), Name: "Lee", Phone: "010-2222-3333",
	}, nil)
	require.Equal(t, http.StatusNotFound, status)
	require.Equal(t, identitysdk.CodeAccountNotFound, env.Code)
}

func TestHealth(t *testing.T) {
	t.Run("live", func(t *testing.T) {
		s := newServer(t, serverConfig{})
		status, env := s.do(t, http.MethodGet, "/livez", nil, nil)
		require.Equal(t, http.StatusOK, status)
		require.Equal(t, "ok", decodeData[identitysdk.HealthResponse](t, env).Status)
	})

	t.Run("ready", func(t *testing.T) {
		s := newServer(t, serverConfig{})
		status, env := s.do(t, http.MethodGet, "/readyz", nil, nil)
		require.Equal(t, http.StatusOK, status)
		health := decodeData[identitysdk.HealthResponse](t, env)
		require.Equal(t, "ok", health.Checks["database"])
		require.Equal(t, "ok", health.Checks["creds"])
	})

	t.Run("degraded", func(t *testing.T) {
		s := newServer(t, serverConfig{ready: map[string]identityhttp.Pinger{
			"database": pinger{},
			"creds":    pinger{err: errors.New("connection refused")},
		}})
		status, env := s.do(t, http.MethodGet, "/readyz", nil, nil)
		require.Equal(t, http.StatusServiceUnavailable, status)
		health := decodeData[identitysdk.HealthResponse](t, env)
		require.Equal(t, "degraded", health.Status)
		require.Equal(t, "ok", health.Checks["database"])
		require.Contains(t, health.Checks["creds"], "connection refused")
	})
}

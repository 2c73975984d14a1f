package identity_test

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/aussiebroadwan/identity/internal/identity/app"
	"github.com/aussiebroadwan/identity/internal/identity/credstore"
	"github.com/aussiebroadwan/identity/pkg/httpx"
	"github.com/aussiebroadwan/identity/pkg/identitysdk"
)

/*
 * Common constants and helper functions for identity service end-to-end
 * tests. The service runs in process against a real Redis container and a
 * stub profile service.
 */

const (
	bootstrapToken = "test-bootstrap-token-12345"
	adminLoginID   = "root"
	adminPassword  = "Admin123!pass"
	partnerPass    = "Partner123!"
)

// TestMain relaxes the rate limits. Tests make many rapid requests from one
// address which would otherwise hit the production limits.
func TestMain(m *testing.M) {
	relaxed := httpx.RateLimitConfig{Requests: 1000, Window: time.Minute, Burst: 1000}
	httpx.StrictLimit = relaxed
	httpx.ModerateLimit = relaxed

	os.Exit(m.Run())
}

// env is one running identity service and its collaborators.
type env struct {
	client   *identitysdk.Client
	redis    *redis.Client
	profiles *profileStub
}

// setupRedis starts a throwaway Redis and returns its address.
func setupRedis(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)
	return endpoint
}

// setupService starts the identity service in process and returns a client
// for it.
func setupService(t *testing.T) *env {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping e2e test in short mode")
	}

	redisAddr := setupRedis(t)
	stub := newProfileStub()
	profiles := httptest.NewServer(stub)
	t.Cleanup(profiles.Close)

	secret := make([]byte, 32)
	_, err := rand.Read(secret)
	require.NoError(t, err)

	cfg := app.Config{
		Env:                  "test",
		LogLevel:             "error",
		LogFormat:            "json",
		Port:                 0,
		PublicBaseURL:        "http://identity.test",
		ShutdownGracePeriod:  5 * time.Second,
		HousekeepingInterval: time.Hour,
		DatabaseFile:         ":memory:",
		PepperFile:           filepath.Join(t.TempDir(), "pepper"),
		BootstrapToken:       bootstrapToken,
		TOTPIssuer:           "Identity E2E",
		JWT: app.JWTConfig{
			Secret:     base64.StdEncoding.EncodeToString(secret),
			Issuer:     "identity-e2e",
			AccessTTL:  15 * time.Minute,
			RefreshTTL: time.Hour,
			Leeway:     30 * time.Second,
		},
		Redis: app.RedisConfig{
			Addr:      redisAddr,
			OpTimeout: time.Second,
		},
		Profiles: app.ProfilesConfig{
			PartnerURL:    profiles.URL,
			UserURL:       profiles.URL,
			AdminURL:      profiles.URL,
			InternalToken: "internal",
			Timeout:       5 * time.Second,
		},
		Mailer:          app.MailerLog,
		VerificationTTL: 10 * time.Minute,
		SignupGrace:     10 * time.Minute,
		OAuthStateTTL:   5 * time.Minute,
	}

	application, err := app.New(cfg)
	require.NoError(t, err)
	application.Start()

	srv := httptest.NewServer(application.Handler())
	t.Cleanup(func() {
		srv.Close()
		if err := application.Shutdown(); err != nil {
			t.Logf("shutdown: %v", err)
		}
	})

	rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
	t.Cleanup(func() { _ = rdb.Close() })

	return &env{
		client:   identitysdk.NewClient(srv.URL),
		redis:    rdb,
		profiles: stub,
	}
}

// verificationToken finds the single live verification token for
// accountID. The log mailer does not deliver mail, so the token is read back
// from the credential store.
func (e *env) verificationToken(t *testing.T, accountID string) string {
	t.Helper()
	ctx := context.Background()

	prefix := credstore.VerificationKey("")
	keys, err := e.redis.Keys(ctx, prefix+"*").Result()
	require.NoError(t, err)

	for _, k := range keys {
		v, err := e.redis.Get(ctx, k).Result()
		require.NoError(t, err)
		if v == accountID {
			return strings.TrimPrefix(k, prefix)
		}
	}
	t.Fatalf("no verification token stored for %s", accountID)
	return ""
}

// pendingAccountID looks up the account id of a pending partner by business
// number.
func pendingAccountID(t *testing.T, client *identitysdk.Client, adminToken, businessNum string) string {
	t.Helper()

	rows, _, err := client.PendingPartners(t.Context(), adminToken, 0, 100)
	require.NoError(t, err)
	for _, r := range rows {
		if r.BusinessNum == businessNum {
			return r.AccountID
		}
	}
	t.Fatalf("partner %s is not pending", businessNum)
	return ""
}

// bootstrapAdmin creates the super admin and returns its access token.
func bootstrapAdmin(t *testing.T, client *identitysdk.Client) string {
	t.Helper()
	ctx := t.Context()

	resp, err := client.BootstrapAdmin(ctx, bootstrapToken, identitysdk.AdminBootstrapRequest{
		LoginID:    adminLoginID,
		Password:   adminPassword,
		Name:       "Root",
		Department: "Platform",
		Phone:      "010-0000-0000",
	})
	require.NoError(t, err, "bootstrap should succeed")
	require.NotEmpty(t, resp.AccountID)

	tokens, err := client.AdminLogin(ctx, identitysdk.AdminLoginRequest{LoginID: adminLoginID, Password: adminPassword})
	require.NoError(t, err)
	assertTokenResponse(t, tokens)
	return tokens.AccessToken
}

func partnerForm(loginID, businessNum string) identitysdk.PartnerSignupRequest {
	return identitysdk.PartnerSignupRequest{
		LoginID:     loginID,
		Password:    partnerPass,
		Name:        "Kim",
		CompanyName: "Wedding Co",
		Address:     "Seoul",
		Phone:       "010-1234-5678",
		CompanyNum:  "02-123-4567",
		BusinessNum: businessNum,
	}
}

// assertTokenResponse verifies a token response has all required fields.
func assertTokenResponse(t *testing.T, resp *identitysdk.TokenResponse) {
	t.Helper()
	require.NotNil(t, resp)
	require.NotEmpty(t, resp.AccessToken, "access token should not be empty")
	require.NotEmpty(t, resp.RefreshToken, "refresh token should not be empty")
}

// assertCode checks err is a service error with the given code.
func assertCode(t *testing.T, err error, code int) {
	t.Helper()
	require.Error(t, err)

	var apiErr *identitysdk.Error
	require.True(t, errors.As(err, &apiErr), "expected a service error, got %v", err)
	require.Equal(t, code, apiErr.Code, apiErr.Message)
}

// profileStub stands in for the partner, user and admin profile services.
// Business numbers are unique, like the real partner service enforces.
type profileStub struct {
	mu       sync.Mutex
	next     int64
	partners map[int64]map[string]any
	deleted  []int64
	mux      *http.ServeMux
}

func newProfileStub() *profileStub {
	s := &profileStub{partners: map[int64]map[string]any{}}
	s.mux = http.NewServeMux()
	s.mux.HandleFunc("POST /partners/profile", s.createPartner)
	s.mux.HandleFunc("GET /partners/profile/{id}", s.getPartner)
	s.mux.HandleFunc("DELETE /partners/profile/{id}", s.deletePartner)
	s.mux.HandleFunc("POST /users/profile", s.createOther)
	s.mux.HandleFunc("POST /admins/profile", s.createOther)
	return s
}

func (s *profileStub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("X-Internal-Token") != "internal" {
		reply(w, http.StatusUnauthorized, 2999, "missing internal token", nil)
		return
	}
	s.mux.ServeHTTP(w, r)
}

func (s *profileStub) createPartner(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		reply(w, http.StatusBadRequest, 1501, "bad body", nil)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.partners {
		if p["businessNum"] == body["businessNum"] {
			reply(w, http.StatusBadRequest, 1501, "business number already registered", nil)
			return
		}
	}
	s.next++
	s.partners[s.next] = body
	reply(w, http.StatusOK, 0, "created", s.next)
}

func (s *profileStub) getPartner(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(r.PathValue("id"), 10, 64)

	s.mu.Lock()
	p, ok := s.partners[id]
	s.mu.Unlock()
	if !ok {
		reply(w, http.StatusNotFound, 1504, "partner not found", nil)
		return
	}
	reply(w, http.StatusOK, 0, "ok", p)
}

func (s *profileStub) deletePartner(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(r.PathValue("id"), 10, 64)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.partners[id]; !ok {
		reply(w, http.StatusNotFound, 1504, "partner not found", nil)
		return
	}
	delete(s.partners, id)
	s.deleted = append(s.deleted, id)
	reply(w, http.StatusOK, 0, "deleted", nil)
}

func (s *profileStub) createOther(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	s.next++
	id := s.next
	s.mu.Unlock()
	reply(w, http.StatusOK, 0, "created", id)
}

// accountID returns the account id the partner with businessNum was
// created for.
func (s *profileStub) accountID(t *testing.T, businessNum string) string {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.partners {
		if p["businessNum"] == businessNum {
			id, _ := p["accountId"].(string)
			return id
		}
	}
	t.Fatalf("no partner profile with business number %s", businessNum)
	return ""
}

func (s *profileStub) deletedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.deleted)
}

func reply(w http.ResponseWriter, status, code int, message string, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"code":    code,
		"message": message,
		"data":    data,
	})
}

func uniqueEmail(t *testing.T) string {
	return fmt.Sprintf("%s-%d@partner.test", strings.ToLower(strings.ReplaceAll(t.Name(), "/", "-")), time.Now().UnixNano())
}

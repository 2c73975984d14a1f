package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/aussiebroadwan/identity/internal/identity/apperr"
	"github.com/aussiebroadwan/identity/internal/identity/credstore"
	"github.com/aussiebroadwan/identity/internal/identity/oauth"
	"github.com/aussiebroadwan/identity/pkg/cryptox"
	"github.com/aussiebroadwan/identity/pkg/otelx"
	"github.com/aussiebroadwan/identity/pkg/retry"
	"github.com/aussiebroadwan/identity/pkg/slogx"
)

// DefaultStateTTL bounds how long a user may take at the provider.
const DefaultStateTTL = 5 * time.Minute

// OAuthService runs the social login flow. The state value doubles as the
// lookup key for the PKCE verifier and is consumed exactly once.
type OAuthService struct {
	Registry *oauth.Registry
	Creds    credstore.Store
	Accounts *AccountService
	Tokens   *TokenService
	StateTTL time.Duration
	Policy   retry.Policy // provider calls, defaults to retry.Outbound
}

func (s *OAuthService) provider(ctx context.Context, name string) (oauth.Provider, error) {
	p, err := s.Registry.Get(name)
	if err != nil {
		slogx.FromContext(ctx).Warn("unsupported social provider", slog.String("provider", name))
		return nil, apperr.ProviderNotSupported.Wrap(err)
	}
	return p, nil
}

// BuildAuthURL prepares a new state and returns the provider redirect URL.
func (s *OAuthService) BuildAuthURL(ctx context.Context, providerName string) (string, error) {
	l := slogx.FromContext(ctx)

	// Resolve first so an unknown provider leaves no state behind.
	p, err := s.provider(ctx, providerName)
	if err != nil {
		return "", err
	}

	state := uuid.NewString()
	verifier, err := cryptox.NewPKCEVerifier()
	if err != nil {
		l.Error("pkce verifier generation failed", slog.Any("error", err))
		return "", apperr.PKCEChallengeFailure.Wrap(err)
	}

	ttl := s.StateTTL
	if ttl <= 0 {
		ttl = DefaultStateTTL
	}
	if err := s.Creds.Set(ctx, credstore.OAuthStateKey(state), verifier, ttl); err != nil {
		l.Error("oauth state store failed", slog.String("state", cryptox.MaskState(state)), slog.Any("error", err))
		return "", apperr.OAuthStateStoreFailure.Wrap(err)
	}

	return p.AuthorizationURL(state, cryptox.S256Challenge(verifier)), nil
}

// HandleCallback completes the flow for code and state.
func (s *OAuthService) HandleCallback(ctx context.Context, providerName, code, state string) (res SocialLoginResult, err error) {
	ctx, span := otelx.Start(ctx, "oauth.callback")
	defer func() { otelx.End(span, err) }()

	l := slogx.FromContext(ctx).With(slog.String("provider", providerName))

	verifier, err := s.Creds.GetDel(ctx, credstore.OAuthStateKey(state))
	if errors.Is(err, credstore.ErrNotFound) {
		l.Info("oauth callback rejected, unknown state", slog.String("state", cryptox.MaskState(state)))
		return SocialLoginResult{}, apperr.InvalidOAuth2State
	}
	if err != nil {
		l.Error("oauth state lookup failed", slog.String("state", cryptox.MaskState(state)), slog.Any("error", err))
		return SocialLoginResult{}, apperr.OAuthStateStoreFailure.Wrap(err)
	}

	p, err := s.provider(ctx, providerName)
	if err != nil {
		return SocialLoginResult{}, err
	}

	policy := s.Policy
	if policy.Attempts <= 0 {
		policy = retry.Outbound
	}

	token, err := retry.DoValue(ctx, policy, func(ctx context.Context) (oauth.Token, error) {
		return p.ExchangeToken(ctx, code, state, verifier)
	})
	if err != nil {
		l.Error("oauth token exchange failed", slog.String("code", cryptox.MaskCode(code)), slog.Any("error", err))
		return SocialLoginResult{}, apperr.OAuthTokenExchangeFailure.Wrap(err)
	}

	info, err := retry.DoValue(ctx, policy, func(ctx context.Context) (oauth.UserInfo, error) {
		return p.FetchUserInfo(ctx, token.AccessToken)
	})
	if err != nil {
		l.Error("oauth user info failed", slog.Any("error", err))
		return SocialLoginResult{}, apperr.OAuthUserInfoFailure.Wrap(err)
	}

	a, err := s.Accounts.ResolveSocial(ctx, p.Name(), info.ID)
	if err != nil {
		return SocialLoginResult{}, err
	}
	l = l.With(slog.String("account_id", a.ID.String()))

	if !a.IsActive() {
		l.Info("social login pending profile completion", slog.String("social_id", cryptox.MaskSocialID(info.ID)))
		return SocialLoginResult{Active: false, AccountID: a.ID.String()}, nil
	}

	pair, err := s.Tokens.IssueFor(ctx, a)
	if err != nil {
		return SocialLoginResult{}, err
	}
	l.Info("social login succeeded")
	return SocialLoginResult{Active: true, AccountID: a.ID.String(), Tokens: &pair}, nil
}

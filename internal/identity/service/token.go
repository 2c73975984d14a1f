package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"

	"github.com/aussiebroadwan/identity/internal/identity/apperr"
	"github.com/aussiebroadwan/identity/internal/identity/credstore"
	"github.com/aussiebroadwan/identity/internal/identity/domain"
	"github.com/aussiebroadwan/identity/pkg/cryptox"
	"github.com/aussiebroadwan/identity/pkg/idx"
	"github.com/aussiebroadwan/identity/pkg/jwtx"
	"github.com/aussiebroadwan/identity/pkg/otelx"
	"github.com/aussiebroadwan/identity/pkg/slogx"
)

// TokenService mints token pairs and rotates refresh tokens. Each account
// has at most one live refresh token: issuing a new pair overwrites it, so a
// previously issued refresh token stops working.
type TokenService struct {
	Engine   *jwtx.Engine
	Creds    credstore.Store
	Accounts *AccountService
}

// IssueFor mints a pair for an ACTIVE account and stores the refresh token.
func (s *TokenService) IssueFor(ctx context.Context, a domain.Account) (TokenPair, error) {
	l := slogx.FromContext(ctx)

	if !a.IsActive() {
		l.Warn("token issue refused, account not active",
			slog.String("account_id", a.ID.String()), slog.String("status", string(a.Status)))
		return TokenPair{}, apperr.AccountNotActive
	}

	access, err := s.Engine.IssueAccess(a.ID.String(), roleClaims(a))
	if err != nil {
		l.Error("access token signing failed", slog.String("account_id", a.ID.String()), slog.Any("error", err))
		return TokenPair{}, apperr.TokenSigningFailure.Wrap(err)
	}
	refresh, err := s.Engine.IssueRefresh(a.ID.String())
	if err != nil {
		l.Error("refresh token signing failed", slog.String("account_id", a.ID.String()), slog.Any("error", err))
		return TokenPair{}, apperr.TokenSigningFailure.Wrap(err)
	}

	if err := s.Creds.Set(ctx, credstore.RefreshKey(a.ID.String()), refresh, s.Engine.RefreshTTL()); err != nil {
		l.Error("refresh token store failed", slog.String("account_id", a.ID.String()), slog.Any("error", err))
		return TokenPair{}, apperr.RefreshTokenStoreFailure.Wrap(err)
	}

	return TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(s.Engine.AccessTTL().Seconds()),
	}, nil
}

// Refresh validates a presented refresh token against the stored one and
// issues a new pair. Two concurrent refreshes with the same token may both
// succeed; the last write decides which new refresh token stays valid.
func (s *TokenService) Refresh(ctx context.Context, token string) (pair TokenPair, err error) {
	ctx, span := otelx.Start(ctx, "token.refresh")
	defer func() { otelx.End(span, err) }()

	l := slogx.FromContext(ctx)

	claims, err := s.Engine.Verify(token)
	if err != nil {
		l.Info("refresh rejected, invalid token", slog.String("token", cryptox.MaskToken(token)))
		return TokenPair{}, apperr.TokenInvalid.Wrap(err)
	}
	if !claims.IsRefresh() {
		l.Info("refresh rejected, access token presented", slog.String("account_id", claims.Subject))
		return TokenPair{}, apperr.RefreshTokenInvalid
	}

	subject, err := s.Engine.SubjectOf(token)
	if err != nil {
		return TokenPair{}, apperr.RefreshTokenInvalid.Wrap(err)
	}
	accountID, err := idx.Parse(subject)
	if err != nil {
		l.Info("refresh rejected, malformed subject", slog.String("token", cryptox.MaskToken(token)))
		return TokenPair{}, apperr.RefreshTokenInvalid.Wrap(err)
	}
	ctx = slogx.With(ctx, slog.String("account_id", accountID.String()))
	l = slogx.FromContext(ctx)

	stored, err := s.Creds.Get(ctx, credstore.RefreshKey(accountID.String()))
	if errors.Is(err, credstore.ErrNotFound) {
		l.Info("refresh rejected, no stored token")
		return TokenPair{}, apperr.RefreshTokenNotFound
	}
	if err != nil {
		l.Error("refresh token lookup failed", slog.Any("error", err))
		return TokenPair{}, apperr.RefreshTokenStoreFailure.Wrap(err)
	}
	if subtle.ConstantTimeCompare([]byte(stored), []byte(token)) != 1 {
		l.Warn("refresh rejected, token mismatch")
		return TokenPair{}, apperr.RefreshTokenMismatch
	}

	a, err := s.Accounts.MustFindByID(ctx, accountID)
	if err != nil {
		return TokenPair{}, err
	}

	pair, err = s.IssueFor(ctx, a)
	if err != nil {
		return TokenPair{}, err
	}
	l.Info("refresh token rotated")
	return pair, nil
}

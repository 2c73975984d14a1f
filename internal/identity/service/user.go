package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/aussiebroadwan/identity/internal/identity/apperr"
	"github.com/aussiebroadwan/identity/internal/identity/domain"
	"github.com/aussiebroadwan/identity/internal/identity/profile"
	"github.com/aussiebroadwan/identity/pkg/idx"
	"github.com/aussiebroadwan/identity/pkg/otelx"
	"github.com/aussiebroadwan/identity/pkg/slogx"
)

type UserProfile struct {
	Name     string
	Phone    string
	FCMToken string
}

// UserService completes social sign-ups.
type UserService struct {
	Accounts *AccountService
	Tokens   *TokenService
	Profiles profile.UserClient
}

// CompleteProfile creates the remote user profile for an account waiting for
// it, activates the account and logs it in. A retry after a failure past the
// profile call reuses the user id already attached.
func (s *UserService) CompleteProfile(ctx context.Context, accountID idx.ID, p UserProfile) (pair TokenPair, err error) {
	ctx, span := otelx.Start(ctx, "user.complete_profile")
	defer func() { otelx.End(span, err) }()

	ctx = slogx.With(ctx, slog.String("account_id", accountID.String()))
	l := slogx.FromContext(ctx)

	a, err := s.Accounts.MustFindByID(ctx, accountID)
	if err != nil {
		return TokenPair{}, err
	}
	if a.Role != domain.RoleEndUser {
		l.Info("profile completion rejected, not an end user", slog.String("role", string(a.Role)))
		return TokenPair{}, apperr.AccountNotFound
	}
	if a.Status != domain.StatusWaitingProfileCompletion {
		l.Info("profile completion rejected, already completed")
		return TokenPair{}, apperr.ProfileAlreadyCompleted
	}

	if a.UserID == nil {
		userID, err := s.Profiles.Create(ctx, profile.CreateUserRequest{
			AccountID: a.ID.String(),
			Name:      p.Name,
			Phone:     p.Phone,
			FCMToken:  p.FCMToken,
		})
		if err != nil {
			l.Error("user profile create failed", slog.Any("error", err))
			return TokenPair{}, apperr.ExternalAPIFailure.Wrap(err)
		}
		if err := s.Accounts.AttachExternalID(ctx, a.ID, domain.ExternalUserID, userID); err != nil {
			return TokenPair{}, err
		}
	}

	err = s.Accounts.TransitionStatus(ctx, a.ID, ptr(domain.StatusWaitingProfileCompletion), domain.StatusActive)
	if errors.Is(err, domain.ErrUnexpectedStatus) {
		return TokenPair{}, apperr.ProfileAlreadyCompleted.Wrap(err)
	}
	if err != nil {
		return TokenPair{}, err
	}

	a, err = s.Accounts.MustFindByID(ctx, a.ID)
	if err != nil {
		return TokenPair{}, err
	}
	return s.Tokens.IssueFor(ctx, a)
}

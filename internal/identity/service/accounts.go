package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/identity/internal/identity/apperr"
	"github.com/aussiebroadwan/identity/internal/identity/domain"
	"github.com/aussiebroadwan/identity/internal/identity/store"
	"github.com/aussiebroadwan/identity/pkg/cryptox"
	"github.com/aussiebroadwan/identity/pkg/idx"
	"github.com/aussiebroadwan/identity/pkg/slogx"
)

// DefaultSignupGrace is how long an unverified partner signup blocks its
// login id.
const DefaultSignupGrace = 10 * time.Minute

// NewAccount describes a provisional account. Password is the plain text
// password for EMAIL and INTERNAL accounts, nil for social ones.
type NewAccount struct {
	Role      domain.Role
	Method    domain.AuthMethod
	LoginID   string
	Password  *string
	AdminRole *domain.AdminRole
}

// AccountService owns account rows and their lifecycle transitions.
type AccountService struct {
	Store store.Store
	Now   func() time.Time
}

func (s *AccountService) FindByLoginID(ctx context.Context, loginID string) (domain.Account, bool, error) {
	a, err := s.Store.Accounts().GetByLoginID(ctx, loginID)
	if errors.Is(err, store.ErrNotFound) {
		return domain.Account{}, false, nil
	}
	if err != nil {
		slogx.FromContext(ctx).Error("account lookup failed",
			slog.String("login_id", cryptox.MaskLoginID(loginID)), slog.Any("error", err))
		return domain.Account{}, false, apperr.DBRetrieveFailure.Wrap(err)
	}
	return a, true, nil
}

func (s *AccountService) FindByID(ctx context.Context, id idx.ID) (domain.Account, bool, error) {
	a, err := s.Store.Accounts().GetByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return domain.Account{}, false, nil
	}
	if err != nil {
		slogx.FromContext(ctx).Error("account lookup failed",
			slog.String("account_id", id.String()), slog.Any("error", err))
		return domain.Account{}, false, apperr.DBRetrieveFailure.Wrap(err)
	}
	return a, true, nil
}

// MustFindByID is FindByID with absence reported as AccountNotFound.
func (s *AccountService) MustFindByID(ctx context.Context, id idx.ID) (domain.Account, error) {
	a, ok, err := s.FindByID(ctx, id)
	if err != nil {
		return domain.Account{}, err
	}
	if !ok {
		return domain.Account{}, apperr.AccountNotFound
	}
	return a, nil
}

// CreateProvisional inserts a new account in the initial status of its role.
func (s *AccountService) CreateProvisional(ctx context.Context, req NewAccount) (domain.Account, error) {
	l := slogx.FromContext(ctx)
	now := clock(s.Now)

	a := domain.Account{
		ID:         idx.NewAt(now),
		AuthMethod: req.Method,
		LoginID:    req.LoginID,
		Role:       req.Role,
		Status:     domain.InitialStatus(req.Role),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if req.Role == domain.RoleAdmin {
		a.AdminRole = req.AdminRole
	}

	if req.Password != nil {
		hash, err := cryptox.HashPassword(*req.Password)
		if err != nil {
			l.Error("password hashing failed", slog.Any("error", err))
			return domain.Account{}, apperr.PasswordHashFailure.Wrap(err)
		}
		a.PasswordHash = &hash
	}

	err := s.Store.Accounts().Create(ctx, a)
	if errors.Is(err, store.ErrAlreadyExists) {
		l.Warn("duplicate login id", slog.String("login_id", cryptox.MaskLoginID(req.LoginID)))
		return domain.Account{}, apperr.DuplicateLoginID.Wrap(err)
	}
	if err != nil {
		l.Error("account insert failed",
			slog.String("login_id", cryptox.MaskLoginID(req.LoginID)), slog.Any("error", err))
		return domain.Account{}, apperr.DBSaveFailure.Wrap(err)
	}

	l.Info("account created",
		slog.String("account_id", a.ID.String()),
		slog.String("role", string(a.Role)),
		slog.String("status", string(a.Status)),
	)
	return a, nil
}

// AttachExternalID records the remote profile id of kind. The id is set
// once; a second attach is a contract violation and surfaces as Internal.
func (s *AccountService) AttachExternalID(ctx context.Context, id idx.ID, kind domain.ExternalIDKind, value int64) error {
	err := s.Store.Accounts().SetExternalID(ctx, id, kind, value)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return apperr.AccountNotFound.Wrap(err)
	case errors.Is(err, store.ErrConditionFailed):
		slogx.FromContext(ctx).Error("external id already set",
			slog.String("account_id", id.String()), slog.String("kind", string(kind)))
		return apperr.Internal.Wrap(domain.ErrExternalIDAlreadySet)
	default:
		slogx.FromContext(ctx).Error("external id attach failed",
			slog.String("account_id", id.String()), slog.Any("error", err))
		return apperr.DBSaveFailure.Wrap(err)
	}
}

// TransitionStatus moves the account to next. With expected set the write
// only happens while the account is still in expected, otherwise
// domain.ErrUnexpectedStatus is returned unwrapped for the caller to map.
func (s *AccountService) TransitionStatus(ctx context.Context, id idx.ID, expected *domain.Status, next domain.Status) error {
	l := slogx.FromContext(ctx)

	a, err := s.MustFindByID(ctx, id)
	if err != nil {
		return err
	}
	if expected != nil {
		if a.Status != *expected {
			return domain.ErrUnexpectedStatus
		}
	}
	if err := a.CanTransition(next); err != nil {
		l.Error("rejected status transition",
			slog.String("account_id", id.String()),
			slog.String("from", string(a.Status)),
			slog.String("to", string(next)),
			slog.Any("error", err),
		)
		return apperr.Internal.Wrap(err)
	}

	err = s.Store.Accounts().UpdateStatus(ctx, id, expected, next)
	switch {
	case err == nil:
		l.Info("account status changed",
			slog.String("account_id", id.String()),
			slog.String("from", string(a.Status)),
			slog.String("to", string(next)),
		)
		return nil
	case errors.Is(err, store.ErrNotFound):
		return apperr.AccountNotFound.Wrap(err)
	case errors.Is(err, store.ErrConditionFailed):
		return domain.ErrUnexpectedStatus
	default:
		l.Error("status update failed", slog.String("account_id", id.String()), slog.Any("error", err))
		return apperr.DBSaveFailure.Wrap(err)
	}
}

// RemoveWithHistory writes h and deletes the account in one transaction.
// With onlyIf set the delete is conditional on the account status and a miss
// returns domain.ErrUnexpectedStatus.
func (s *AccountService) RemoveWithHistory(ctx context.Context, h domain.WithdrawalHistory, onlyIf *domain.Status) error {
	l := slogx.FromContext(ctx)

	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.WithdrawalHistories().Create(ctx, h); err != nil {
			return apperr.DBSaveFailure.Wrap(err)
		}

		var err error
		if onlyIf != nil {
			err = tx.Accounts().DeleteIfStatus(ctx, h.AccountID, *onlyIf)
		} else {
			err = tx.Accounts().DeleteByID(ctx, h.AccountID)
		}
		switch {
		case err == nil:
			return nil
		case errors.Is(err, store.ErrNotFound):
			return apperr.AccountNotFound.Wrap(err)
		case errors.Is(err, store.ErrConditionFailed):
			return domain.ErrUnexpectedStatus
		default:
			return apperr.DBDeleteFailure.Wrap(err)
		}
	})
	if err != nil {
		if errors.Is(err, domain.ErrUnexpectedStatus) || apperr.IsBusiness(err) {
			return err
		}
		l.Error("account removal failed",
			slog.String("account_id", h.AccountID.String()), slog.Any("error", err))
		var ae *apperr.Error
		if errors.As(err, &ae) {
			return err
		}
		return apperr.DBDeleteFailure.Wrap(err)
	}

	l.Info("account removed",
		slog.String("account_id", h.AccountID.String()),
		slog.String("deleted_by", string(h.DeletedBy)),
	)
	return nil
}

// SweepStaleProvisional removes a partner signup that never verified its
// email within grace, freeing the login id. It returns the removed account
// so the caller can clean up the remote profile. No history is written.
func (s *AccountService) SweepStaleProvisional(ctx context.Context, loginID string, grace time.Duration) (domain.Account, bool, error) {
	a, ok, err := s.FindByLoginID(ctx, loginID)
	if err != nil || !ok {
		return domain.Account{}, false, err
	}
	if a.Role != domain.RolePartner || a.Status != domain.StatusWaitingEmailVerification {
		return domain.Account{}, false, nil
	}

	cutoff := clock(s.Now).Add(-grace)
	if !a.CreatedAt.Before(cutoff) {
		return domain.Account{}, false, nil
	}

	removed, err := s.Store.Accounts().DeleteIfCreatedBefore(ctx, a.ID, domain.StatusWaitingEmailVerification, cutoff)
	if err != nil {
		slogx.FromContext(ctx).Error("stale signup sweep failed",
			slog.String("account_id", a.ID.String()), slog.Any("error", err))
		return domain.Account{}, false, apperr.DBDeleteFailure.Wrap(err)
	}
	if removed {
		slogx.FromContext(ctx).Info("expired unverified signup removed",
			slog.String("account_id", a.ID.String()),
			slog.String("login_id", cryptox.MaskLoginID(loginID)),
		)
	}
	return a, removed, nil
}

// ResolveSocial finds or creates the END_USER account for a social identity.
// A concurrent first login for the same identity resolves to the same row.
func (s *AccountService) ResolveSocial(ctx context.Context, provider, providerUserID string) (domain.Account, error) {
	method, ok := domain.AuthMethodForProvider(provider)
	if !ok {
		return domain.Account{}, apperr.ProviderNotSupported
	}
	loginID := domain.SocialLoginID(provider, providerUserID)

	a, found, err := s.FindByLoginID(ctx, loginID)
	if err != nil {
		return domain.Account{}, err
	}
	if found {
		return a, nil
	}

	a, err = s.CreateProvisional(ctx, NewAccount{
		Role:    domain.RoleEndUser,
		Method:  method,
		LoginID: loginID,
	})
	if !errors.Is(err, apperr.DuplicateLoginID) {
		return a, err
	}

	a, found, err = s.FindByLoginID(ctx, loginID)
	if err != nil {
		return domain.Account{}, err
	}
	if !found {
		return domain.Account{}, apperr.AccountNotFound
	}
	return a, nil
}

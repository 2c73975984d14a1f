package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/aussiebroadwan/identity/internal/identity/apperr"
	"github.com/aussiebroadwan/identity/internal/identity/credstore"
	"github.com/aussiebroadwan/identity/internal/identity/domain"
	"github.com/aussiebroadwan/identity/internal/identity/notify"
	"github.com/aussiebroadwan/identity/internal/identity/profile"
	"github.com/aussiebroadwan/identity/pkg/cryptox"
	"github.com/aussiebroadwan/identity/pkg/idx"
	"github.com/aussiebroadwan/identity/pkg/otelx"
	"github.com/aussiebroadwan/identity/pkg/retry"
	"github.com/aussiebroadwan/identity/pkg/slogx"
)

// DefaultVerificationTTL matches the signup grace window: a link never
// outlives the account it verifies.
const DefaultVerificationTTL = 10 * time.Minute

// VerifyPath is where verification links point.
const VerifyPath = "/auth/partners/verify"

type PartnerSignup struct {
	LoginID  string
	Password string
	Profile  profile.PartnerProfile
}

type PendingPartner struct {
	AccountID idx.ID
	CreatedAt time.Time
	Profile   profile.PartnerProfile
}

// PartnerService runs partner onboarding: signup, email verification and the
// admin approval or rejection.
//
// Signup writes the local row before asking the profile service for a
// partner id. If that call fails the row stays behind without a partner id
// and is reclaimed by the stale signup sweep once the grace window passes.
type PartnerService struct {
	Accounts *AccountService
	Tokens   *TokenService
	Profiles profile.PartnerClient
	Creds    credstore.Store
	Mailer   notify.Mailer
	Notices  Notifier

	BaseURL         string
	VerificationTTL time.Duration
	SignupGrace     time.Duration
	MailPolicy      retry.Policy // verification mail, defaults to retry.Outbound
	Now             func() time.Time
}

func (s *PartnerService) grace() time.Duration {
	if s.SignupGrace <= 0 {
		return DefaultSignupGrace
	}
	return s.SignupGrace
}

func (s *PartnerService) verificationTTL() time.Duration {
	if s.VerificationTTL <= 0 {
		return DefaultVerificationTTL
	}
	return s.VerificationTTL
}

// Register creates a partner account waiting for email verification and
// mails the verification link.
func (s *PartnerService) Register(ctx context.Context, req PartnerSignup) (accountID idx.ID, err error) {
	ctx, span := otelx.Start(ctx, "partner.register")
	defer func() { otelx.End(span, err) }()

	l := slogx.FromContext(ctx).With(slog.String("login_id", cryptox.MaskLoginID(req.LoginID)))

	// 1. Reclaim an abandoned signup for the same login id.
	swept, ok, err := s.Accounts.SweepStaleProvisional(ctx, req.LoginID, s.grace())
	if err != nil {
		return idx.Zero, err
	}
	if ok && swept.PartnerID != nil {
		if err := s.Profiles.Delete(ctx, *swept.PartnerID); err != nil && !errors.Is(err, profile.ErrNotFound) {
			l.Warn("stale partner profile cleanup failed",
				slog.Int64("partner_id", *swept.PartnerID), slog.Any("error", err))
		}
	}

	// 2. Duplicate check. The unique index still decides a concurrent race.
	if _, exists, err := s.Accounts.FindByLoginID(ctx, req.LoginID); err != nil {
		return idx.Zero, err
	} else if exists {
		l.Warn("partner signup rejected, duplicate login id")
		return idx.Zero, apperr.DuplicateLoginID
	}

	// 3. Local row.
	a, err := s.Accounts.CreateProvisional(ctx, NewAccount{
		Role:     domain.RolePartner,
		Method:   domain.AuthMethodEmail,
		LoginID:  req.LoginID,
		Password: &req.Password,
	})
	if err != nil {
		return idx.Zero, err
	}
	ctx = slogx.With(ctx, slog.String("account_id", a.ID.String()))
	l = l.With(slog.String("account_id", a.ID.String()))

	// 4. Remote profile.
	partnerID, err := s.Profiles.Create(ctx, profile.CreatePartnerRequest{
		AccountID:      a.ID.String(),
		PartnerProfile: req.Profile,
	})
	if errors.Is(err, profile.ErrDuplicateBusinessNumber) {
		l.Warn("partner signup rejected, duplicate business number")
		return idx.Zero, apperr.DuplicateBusinessNumber.Wrap(err)
	}
	if err != nil {
		l.Error("partner profile create failed", slog.Any("error", err))
		return idx.Zero, apperr.ExternalAPIFailure.Wrap(err)
	}

	// 5. Attach.
	if err := s.Accounts.AttachExternalID(ctx, a.ID, domain.ExternalPartnerID, partnerID); err != nil {
		return idx.Zero, err
	}

	// 6. Verification token.
	token := uuid.NewString()
	if err := s.Creds.Set(ctx, credstore.VerificationKey(token), a.ID.String(), s.verificationTTL()); err != nil {
		l.Error("verification token store failed", slog.Any("error", err))
		return idx.Zero, apperr.VerificationTokenStoreFailure.Wrap(err)
	}

	// 7. Mail.
	link := strings.TrimSuffix(s.BaseURL, "/") + VerifyPath + "?token=" + url.QueryEscape(token)
	policy := s.MailPolicy
	if policy.Attempts <= 0 {
		policy = retry.Outbound
	}
	if err := retry.Do(ctx, policy, func(ctx context.Context) error {
		return s.Mailer.SendVerification(ctx, req.LoginID, link)
	}); err != nil {
		l.Error("verification mail failed", slog.Any("error", err))
		return idx.Zero, apperr.EmailSendFailure.Wrap(err)
	}

	l.Info("partner signup accepted", slog.Int64("partner_id", partnerID))
	return a.ID, nil
}

// VerifyEmail consumes a verification token and moves the account to
// PENDING_ADMIN_APPROVAL. A token works at most once.
func (s *PartnerService) VerifyEmail(ctx context.Context, token string) (err error) {
	ctx, span := otelx.Start(ctx, "partner.verify_email")
	defer func() { otelx.End(span, err) }()

	l := slogx.FromContext(ctx)

	value, err := s.Creds.GetDel(ctx, credstore.VerificationKey(token))
	if errors.Is(err, credstore.ErrNotFound) {
		l.Info("verification rejected, unknown token", slog.String("token", cryptox.MaskToken(token)))
		return apperr.InvalidVerificationToken
	}
	if err != nil {
		l.Error("verification token lookup failed", slog.String("token", cryptox.MaskToken(token)), slog.Any("error", err))
		return apperr.VerificationTokenStoreFailure.Wrap(err)
	}

	accountID, err := idx.Parse(value)
	if err != nil {
		l.Error("verification token holds malformed account id", slog.Any("error", err))
		return apperr.InvalidVerificationToken.Wrap(err)
	}

	err = s.Accounts.TransitionStatus(ctx, accountID,
		ptr(domain.StatusWaitingEmailVerification), domain.StatusPendingAdminApproval)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrUnexpectedStatus), errors.Is(err, apperr.AccountNotFound):
		l.Info("verification rejected, account not awaiting verification",
			slog.String("account_id", accountID.String()))
		return apperr.InvalidVerificationToken.Wrap(err)
	default:
		return err
	}
}

// Login authenticates an ACTIVE partner by email and password.
func (s *PartnerService) Login(ctx context.Context, loginID, password string) (TokenPair, error) {
	l := slogx.FromContext(ctx).With(slog.String("login_id", cryptox.MaskLoginID(loginID)))

	a, ok, err := s.Accounts.FindByLoginID(ctx, loginID)
	if err != nil {
		return TokenPair{}, err
	}
	if !ok || a.Role != domain.RolePartner || a.AuthMethod != domain.AuthMethodEmail || a.PasswordHash == nil {
		l.Info("partner login rejected, unknown account")
		return TokenPair{}, apperr.InvalidCredentials
	}
	if err := checkPassword(ctx, password, *a.PasswordHash); err != nil {
		return TokenPair{}, err
	}
	if !a.IsActive() {
		l.Info("partner login rejected, account not active", slog.String("status", string(a.Status)))
		return TokenPair{}, apperr.AccountNotActive
	}

	pair, err := s.Tokens.IssueFor(ctx, a)
	if err != nil {
		return TokenPair{}, err
	}
	l.Info("partner login succeeded", slog.String("account_id", a.ID.String()))
	return pair, nil
}

// pendingPartner loads a partner account. Non-partner ids are reported as
// AccountNotFound.
func (s *PartnerService) pendingPartner(ctx context.Context, accountID idx.ID) (domain.Account, error) {
	a, ok, err := s.Accounts.FindByID(ctx, accountID)
	if err != nil {
		return domain.Account{}, err
	}
	if !ok || a.Role != domain.RolePartner {
		slogx.FromContext(ctx).Info("partner review rejected, account not found",
			slog.String("account_id", accountID.String()))
		return domain.Account{}, apperr.AccountNotFound
	}
	if a.Status != domain.StatusPendingAdminApproval {
		slogx.FromContext(ctx).Info("partner review rejected, not pending",
			slog.String("account_id", accountID.String()), slog.String("status", string(a.Status)))
		return domain.Account{}, apperr.PendingAdminApprovalRequired
	}
	return a, nil
}

// Approve activates a partner waiting for approval and queues the notice.
func (s *PartnerService) Approve(ctx context.Context, accountID idx.ID) (err error) {
	ctx, span := otelx.Start(ctx, "partner.approve")
	defer func() { otelx.End(span, err) }()

	a, err := s.pendingPartner(ctx, accountID)
	if err != nil {
		return err
	}

	err = s.Accounts.TransitionStatus(ctx, a.ID,
		ptr(domain.StatusPendingAdminApproval), domain.StatusActive)
	if errors.Is(err, domain.ErrUnexpectedStatus) {
		return apperr.PendingAdminApprovalRequired.Wrap(err)
	}
	if err != nil {
		return err
	}

	s.Notices.Approval(a.LoginID)
	slogx.FromContext(ctx).Info("partner approved", slog.String("account_id", a.ID.String()))
	return nil
}

// Reject removes a partner waiting for approval, keeping a withdrawal
// history row with a snapshot of the remote profile.
func (s *PartnerService) Reject(ctx context.Context, accountID idx.ID, reason string, adminID *int64) (err error) {
	ctx, span := otelx.Start(ctx, "partner.reject")
	defer func() { otelx.End(span, err) }()

	l := slogx.FromContext(ctx).With(slog.String("account_id", accountID.String()))
	if adminID != nil {
		l = l.With(slog.Int64("admin_id", *adminID))
	}

	a, err := s.pendingPartner(ctx, accountID)
	if err != nil {
		return err
	}
	if a.PartnerID == nil {
		l.Error("pending partner without partner id")
		return apperr.Internal.Wrap(domain.ErrProfileIDRequired)
	}

	p, err := s.Profiles.Get(ctx, *a.PartnerID)
	if err != nil {
		l.Error("partner profile snapshot failed", slog.Any("error", err))
		return apperr.ExternalAPIFailure.Wrap(err)
	}
	snapshot, err := json.Marshal(p.Snapshot())
	if err != nil {
		return apperr.Internal.Wrap(err)
	}

	h := domain.NewWithdrawalHistory(a, snapshot, reason, domain.DeletedByAdmin, clock(s.Now))
	err = s.Accounts.RemoveWithHistory(ctx, h, ptr(domain.StatusPendingAdminApproval))
	switch {
	case errors.Is(err, domain.ErrUnexpectedStatus):
		return apperr.PendingAdminApprovalRequired.Wrap(err)
	case err != nil:
		return err
	}

	// The account is gone; the remote profile is cleaned up best-effort.
	if err := s.Profiles.Delete(ctx, *a.PartnerID); err != nil {
		l.Error("partner profile delete failed after rejection",
			slog.String("alert", "operational_alert"),
			slog.Int64("partner_id", *a.PartnerID),
			slog.Any("error", err),
		)
	}

	s.Notices.Rejection(a.LoginID, reason)
	l.Info("partner rejected")
	return nil
}

// ListPending pages partners waiting for approval, oldest first, each joined
// with its remote profile. page is zero based.
func (s *PartnerService) ListPending(ctx context.Context, page, size int) ([]PendingPartner, int64, error) {
	l := slogx.FromContext(ctx)
	accounts := s.Accounts.Store.Accounts()

	// The offset must fit a SQLite integer without wrapping negative
	if page < 0 || size < 1 || page > math.MaxInt32/size {
		return nil, 0, apperr.InvalidRequest.WithMessage("page out of range")
	}

	total, err := accounts.CountByRoleAndStatus(ctx, domain.RolePartner, domain.StatusPendingAdminApproval)
	if err != nil {
		l.Error("pending partner count failed", slog.Any("error", err))
		return nil, 0, apperr.DBRetrieveFailure.Wrap(err)
	}

	rows, err := accounts.ListByRoleAndStatus(ctx, domain.RolePartner, domain.StatusPendingAdminApproval, size, page*size)
	if err != nil {
		l.Error("pending partner list failed", slog.Any("error", err))
		return nil, 0, apperr.DBRetrieveFailure.Wrap(err)
	}

	out := make([]PendingPartner, 0, len(rows))
	for _, a := range rows {
		if a.PartnerID == nil {
			l.Error("pending partner without partner id", slog.String("account_id", a.ID.String()))
			return nil, 0, apperr.ExternalAPIFailure.Wrap(domain.ErrProfileIDRequired)
		}
		p, err := s.Profiles.Get(ctx, *a.PartnerID)
		if err != nil {
			l.Error("partner profile fetch failed",
				slog.String("account_id", a.ID.String()), slog.Any("error", err))
			return nil, 0, apperr.ExternalAPIFailure.Wrap(err)
		}
		out = append(out, PendingPartner{AccountID: a.ID, CreatedAt: a.CreatedAt, Profile: p})
	}
	return out, total, nil
}

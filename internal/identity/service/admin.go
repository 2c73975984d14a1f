package service

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"

	"github.com/aussiebroadwan/identity/internal/identity/apperr"
	"github.com/aussiebroadwan/identity/internal/identity/domain"
	"github.com/aussiebroadwan/identity/internal/identity/profile"
	"github.com/aussiebroadwan/identity/pkg/cryptox"
	"github.com/aussiebroadwan/identity/pkg/idx"
	"github.com/aussiebroadwan/identity/pkg/slogx"
)

type AdminSignup struct {
	LoginID    string
	Password   string
	Name       string
	Department string
	Phone      string
	AdminRole  domain.AdminRole
}

type TOTPEnrollment struct {
	Secret string
	URL    string
}

// AdminService manages back-office accounts. Admins authenticate with an
// internal login id and password, plus a TOTP code once enrolled.
type AdminService struct {
	Accounts       *AccountService
	Tokens         *TokenService
	Profiles       profile.AdminClient
	BootstrapToken string
	TOTPIssuer     string
	Now            func() time.Time
}

// Bootstrap creates the first SUPER_ADMIN. It only works while no admin
// exists and token matches the configured bootstrap token.
func (s *AdminService) Bootstrap(ctx context.Context, token string, req AdminSignup) (idx.ID, error) {
	l := slogx.FromContext(ctx)

	if s.BootstrapToken == "" || subtle.ConstantTimeCompare([]byte(token), []byte(s.BootstrapToken)) != 1 {
		l.Warn("unauthorized bootstrap attempt")
		return idx.Zero, apperr.Unauthorized
	}

	n, err := s.Accounts.Store.Accounts().CountByRole(ctx, domain.RoleAdmin)
	if err != nil {
		l.Error("admin count failed", slog.Any("error", err))
		return idx.Zero, apperr.DBRetrieveFailure.Wrap(err)
	}
	if n > 0 {
		l.Warn("attempted bootstrap on already-bootstrapped system")
		return idx.Zero, apperr.AlreadyBootstrapped
	}

	req.AdminRole = domain.AdminRoleSuper
	id, err := s.Register(ctx, req)
	if err != nil {
		return idx.Zero, err
	}
	l.Info("system bootstrapped", slog.String("account_id", id.String()))
	return id, nil
}

// Register creates an ACTIVE admin account and its remote admin profile.
// Authorisation of the caller happens at the HTTP layer.
func (s *AdminService) Register(ctx context.Context, req AdminSignup) (idx.ID, error) {
	l := slogx.FromContext(ctx).With(slog.String("login_id", cryptox.MaskLoginID(req.LoginID)))

	if !req.AdminRole.Valid() {
		return idx.Zero, apperr.InvalidRequest.WithMessage("Unknown admin role")
	}

	if _, exists, err := s.Accounts.FindByLoginID(ctx, req.LoginID); err != nil {
		return idx.Zero, err
	} else if exists {
		l.Warn("admin signup rejected, duplicate login id")
		return idx.Zero, apperr.DuplicateLoginID
	}

	a, err := s.Accounts.CreateProvisional(ctx, NewAccount{
		Role:      domain.RoleAdmin,
		Method:    domain.AuthMethodInternal,
		LoginID:   req.LoginID,
		Password:  &req.Password,
		AdminRole: &req.AdminRole,
	})
	if err != nil {
		return idx.Zero, err
	}

	adminID, err := s.Profiles.Create(ctx, profile.CreateAdminRequest{
		AccountID:  a.ID.String(),
		Name:       req.Name,
		Department: req.Department,
		Phone:      req.Phone,
	})
	if err != nil {
		l.Error("admin profile create failed", slog.String("account_id", a.ID.String()), slog.Any("error", err))
		return idx.Zero, apperr.ExternalAPIFailure.Wrap(err)
	}
	if err := s.Accounts.AttachExternalID(ctx, a.ID, domain.ExternalAdminID, adminID); err != nil {
		return idx.Zero, err
	}

	l.Info("admin account created",
		slog.String("account_id", a.ID.String()), slog.String("admin_role", string(req.AdminRole)))
	return a.ID, nil
}

// Login authenticates an admin. Once TOTP is enrolled the code is required.
func (s *AdminService) Login(ctx context.Context, loginID, password, code string) (TokenPair, error) {
	l := slogx.FromContext(ctx).With(slog.String("login_id", cryptox.MaskLoginID(loginID)))

	a, ok, err := s.Accounts.FindByLoginID(ctx, loginID)
	if err != nil {
		return TokenPair{}, err
	}
	if !ok || a.Role != domain.RoleAdmin || a.AuthMethod != domain.AuthMethodInternal || a.PasswordHash == nil {
		l.Info("admin login rejected, unknown account")
		return TokenPair{}, apperr.InvalidCredentials
	}
	if err := checkPassword(ctx, password, *a.PasswordHash); err != nil {
		return TokenPair{}, err
	}

	if a.TOTPEnabled() {
		if code == "" {
			return TokenPair{}, apperr.OTPRequired
		}
		if !s.validate(code, *a.TOTPSecret) {
			l.Warn("admin login rejected, invalid otp", slog.String("account_id", a.ID.String()))
			return TokenPair{}, apperr.InvalidOTP
		}
	}

	pair, err := s.Tokens.IssueFor(ctx, a)
	if err != nil {
		return TokenPair{}, err
	}
	l.Info("admin login succeeded", slog.String("account_id", a.ID.String()))
	return pair, nil
}

func (s *AdminService) validate(code, secret string) bool {
	ok, err := totp.ValidateCustom(code, secret, clock(s.Now), totp.ValidateOpts{
		Period:    30,
		Skew:      1,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	return err == nil && ok
}

func (s *AdminService) admin(ctx context.Context, accountID idx.ID) (domain.Account, error) {
	a, err := s.Accounts.MustFindByID(ctx, accountID)
	if err != nil {
		return domain.Account{}, err
	}
	if a.Role != domain.RoleAdmin {
		return domain.Account{}, apperr.Forbidden
	}
	return a, nil
}

// EnrollTOTP generates a TOTP secret for the admin. It is not enforced until
// ConfirmTOTP accepts a first code.
func (s *AdminService) EnrollTOTP(ctx context.Context, accountID idx.ID) (TOTPEnrollment, error) {
	l := slogx.FromContext(ctx).With(slog.String("account_id", accountID.String()))

	a, err := s.admin(ctx, accountID)
	if err != nil {
		return TOTPEnrollment{}, err
	}
	if a.TOTPEnabled() {
		return TOTPEnrollment{}, apperr.InvalidRequest.WithMessage("Two-factor authentication already enabled")
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      s.TOTPIssuer,
		AccountName: a.LoginID,
		Period:      30,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		l.Error("totp key generation failed", slog.Any("error", err))
		return TOTPEnrollment{}, apperr.Internal.Wrap(err)
	}

	if err := s.Accounts.Store.Accounts().SetTOTPSecret(ctx, a.ID, key.Secret()); err != nil {
		l.Error("totp secret store failed", slog.Any("error", err))
		return TOTPEnrollment{}, apperr.DBSaveFailure.Wrap(err)
	}
	return TOTPEnrollment{Secret: key.Secret(), URL: key.URL()}, nil
}

// ConfirmTOTP enables the enrolled secret once code checks out.
func (s *AdminService) ConfirmTOTP(ctx context.Context, accountID idx.ID, code string) error {
	l := slogx.FromContext(ctx).With(slog.String("account_id", accountID.String()))

	a, err := s.admin(ctx, accountID)
	if err != nil {
		return err
	}
	if a.TOTPSecret == nil {
		return apperr.InvalidRequest.WithMessage("Two-factor authentication not enrolled")
	}
	if a.TOTPEnabled() {
		return apperr.InvalidRequest.WithMessage("Two-factor authentication already enabled")
	}
	if !s.validate(code, *a.TOTPSecret) {
		l.Info("totp confirmation rejected")
		return apperr.InvalidOTP
	}

	if err := s.Accounts.Store.Accounts().EnableTOTP(ctx, a.ID, clock(s.Now)); err != nil {
		l.Error("totp enable failed", slog.Any("error", err))
		return apperr.DBSaveFailure.Wrap(err)
	}
	l.Info("totp enabled")
	return nil
}

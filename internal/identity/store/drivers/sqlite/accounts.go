package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/aussiebroadwan/identity/internal/identity/domain"
	"github.com/aussiebroadwan/identity/internal/identity/store"
	"github.com/aussiebroadwan/identity/pkg/idx"
)

const accountColumns = `id, auth_method, login_id, password_hash, role, admin_role,
	user_id, partner_id, admin_id, status, totp_secret, totp_enabled_at, created_at, updated_at`

type accountsRepo struct {
	q *queries
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (domain.Account, error) {
	var (
		a                             domain.Account
		passwordHash, adminRole, totp sql.NullString
		userID, partnerID, adminID    sql.NullInt64
		totpEnabledAt                 sql.NullTime
		authMethod, role, status      string
	)
	err := row.Scan(
		&a.ID, &authMethod, &a.LoginID, &passwordHash, &role, &adminRole,
		&userID, &partnerID, &adminID, &status, &totp, &totpEnabledAt,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return domain.Account{}, err
	}

	a.AuthMethod = domain.AuthMethod(authMethod)
	a.Role = domain.Role(role)
	a.Status = domain.Status(status)
	a.PasswordHash = mapNullStringPtr(passwordHash)
	if adminRole.Valid {
		r := domain.AdminRole(adminRole.String)
		a.AdminRole = &r
	}
	a.UserID = mapNullInt64Ptr(userID)
	a.PartnerID = mapNullInt64Ptr(partnerID)
	a.AdminID = mapNullInt64Ptr(adminID)
	a.TOTPSecret = mapNullStringPtr(totp)
	a.TOTPEnabledAt = mapNullTimePtr(totpEnabledAt)
	a.CreatedAt = a.CreatedAt.UTC()
	a.UpdatedAt = a.UpdatedAt.UTC()
	return a, nil
}

func (r *accountsRepo) GetByID(ctx context.Context, id idx.ID) (domain.Account, error) {
	row := r.q.db.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM auth_account WHERE id = ?`, id)
	a, err := scanAccount(row)
	if err != nil {
		return domain.Account{}, mapNotFound(err)
	}
	return a, nil
}

func (r *accountsRepo) GetByLoginID(ctx context.Context, loginID string) (domain.Account, error) {
	row := r.q.db.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM auth_account WHERE login_id = ?`, loginID)
	a, err := scanAccount(row)
	if err != nil {
		return domain.Account{}, mapNotFound(err)
	}
	return a, nil
}

func (r *accountsRepo) Create(ctx context.Context, a domain.Account) error {
	var adminRole sql.NullString
	if a.AdminRole != nil {
		adminRole = sql.NullString{String: string(*a.AdminRole), Valid: true}
	}

	_, err := r.q.db.ExecContext(ctx, `
		INSERT INTO auth_account (`+accountColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, string(a.AuthMethod), a.LoginID, mapOptionalString(a.PasswordHash),
		string(a.Role), adminRole,
		mapOptionalInt64(a.UserID), mapOptionalInt64(a.PartnerID), mapOptionalInt64(a.AdminID),
		string(a.Status), mapOptionalString(a.TOTPSecret), mapOptionalTime(a.TOTPEnabledAt),
		a.CreatedAt.UTC(), a.UpdatedAt.UTC(),
	)
	return mapUniqueViolation(err)
}

func externalIDColumn(kind domain.ExternalIDKind) (string, error) {
	switch kind {
	case domain.ExternalUserID, domain.ExternalPartnerID, domain.ExternalAdminID:
		return string(kind), nil
	}
	return "", fmt.Errorf("sqlite: unknown external id kind %q", kind)
}

func (r *accountsRepo) SetExternalID(ctx context.Context, id idx.ID, kind domain.ExternalIDKind, value int64) error {
	col, err := externalIDColumn(kind)
	if err != nil {
		return err
	}

	n, err := r.q.execAffected(ctx,
		`UPDATE auth_account SET `+col+` = ?, updated_at = ? WHERE id = ? AND `+col+` IS NULL`,
		value, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	if n == 0 {
		return r.missOrConflict(ctx, id)
	}
	return nil
}

func (r *accountsRepo) UpdateStatus(ctx context.Context, id idx.ID, expected *domain.Status, next domain.Status) error {
	var (
		n   int64
		err error
	)
	now := time.Now().UTC()
	if expected != nil {
		n, err = r.q.execAffected(ctx,
			`UPDATE auth_account SET status = ?, updated_at = ? WHERE id = ? AND status = ?`,
			string(next), now, id, string(*expected))
	} else {
		n, err = r.q.execAffected(ctx,
			`UPDATE auth_account SET status = ?, updated_at = ? WHERE id = ?`,
			string(next), now, id)
	}
	if err != nil {
		return err
	}
	if n == 0 {
		return r.missOrConflict(ctx, id)
	}
	return nil
}

func (r *accountsRepo) DeleteByID(ctx context.Context, id idx.ID) error {
	n, err := r.q.execAffected(ctx, `DELETE FROM auth_account WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *accountsRepo) DeleteIfStatus(ctx context.Context, id idx.ID, status domain.Status) error {
	n, err := r.q.execAffected(ctx, `DELETE FROM auth_account WHERE id = ? AND status = ?`, id, string(status))
	if err != nil {
		return err
	}
	if n == 0 {
		return r.missOrConflict(ctx, id)
	}
	return nil
}

func (r *accountsRepo) DeleteIfCreatedBefore(
	ctx context.Context,
	id idx.ID,
	status domain.Status,
	cutoff time.Time,
) (bool, error) {
	n, err := r.q.execAffected(ctx,
		`DELETE FROM auth_account WHERE id = ? AND status = ? AND created_at < ?`,
		id, string(status), cutoff.UTC())
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *accountsRepo) ListByRoleAndStatus(
	ctx context.Context,
	role domain.Role,
	status domain.Status,
	limit, offset int,
) ([]domain.Account, error) {
	rows, err := r.q.db.QueryContext(ctx, `
		SELECT `+accountColumns+` FROM auth_account
		WHERE role = ? AND status = ?
		ORDER BY created_at ASC, id ASC
		LIMIT ? OFFSET ?`,
		string(role), string(status), limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *accountsRepo) CountByRoleAndStatus(ctx context.Context, role domain.Role, status domain.Status) (int64, error) {
	var n int64
	err := r.q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM auth_account WHERE role = ? AND status = ?`,
		string(role), string(status)).Scan(&n)
	return n, err
}

func (r *accountsRepo) CountByRole(ctx context.Context, role domain.Role) (int64, error) {
	var n int64
	err := r.q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM auth_account WHERE role = ?`, string(role)).Scan(&n)
	return n, err
}

func (r *accountsRepo) SetTOTPSecret(ctx context.Context, id idx.ID, secret string) error {
	n, err := r.q.execAffected(ctx,
		`UPDATE auth_account SET totp_secret = ?, totp_enabled_at = NULL, updated_at = ? WHERE id = ?`,
		secret, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *accountsRepo) EnableTOTP(ctx context.Context, id idx.ID, at time.Time) error {
	n, err := r.q.execAffected(ctx,
		`UPDATE auth_account SET totp_enabled_at = ?, updated_at = ? WHERE id = ? AND totp_secret IS NOT NULL`,
		at.UTC(), time.Now().UTC(), id)
	if err != nil {
		return err
	}
	if n == 0 {
		return r.missOrConflict(ctx, id)
	}
	return nil
}

// missOrConflict explains a conditional write that touched no rows.
func (r *accountsRepo) missOrConflict(ctx context.Context, id idx.ID) error {
	ok, err := r.q.exists(ctx, `SELECT 1 FROM auth_account WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if !ok {
		return store.ErrNotFound
	}
	return store.ErrConditionFailed
}

package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/aussiebroadwan/identity/internal/identity/domain"
	"github.com/aussiebroadwan/identity/pkg/idx"
)

type withdrawalsRepo struct {
	q *queries
}

func (r *withdrawalsRepo) Create(ctx context.Context, h domain.WithdrawalHistory) error {
	var adminRole, snapshot sql.NullString
	if h.AdminRole != nil {
		adminRole = sql.NullString{String: string(*h.AdminRole), Valid: true}
	}
	if len(h.ProfileSnapshot) > 0 {
		snapshot = sql.NullString{String: string(h.ProfileSnapshot), Valid: true}
	}

	_, err := r.q.db.ExecContext(ctx, `
		INSERT INTO withdrawal_history (
			id, account_id, auth_method, login_id, role, admin_role,
			user_id, partner_id, admin_id, profile_snapshot, reason, deleted_by,
			joined_at, withdrawn_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		h.ID, h.AccountID, string(h.AuthMethod), h.LoginID, string(h.Role), adminRole,
		mapOptionalInt64(h.UserID), mapOptionalInt64(h.PartnerID), mapOptionalInt64(h.AdminID),
		snapshot, h.Reason, string(h.DeletedBy),
		h.JoinedAt.UTC(), h.WithdrawnAt.UTC(),
	)
	return mapUniqueViolation(err)
}

func (r *withdrawalsRepo) ListByAccountID(ctx context.Context, accountID idx.ID) ([]domain.WithdrawalHistory, error) {
	rows, err := r.q.db.QueryContext(ctx, `
		SELECT id, account_id, auth_method, login_id, role, admin_role,
			user_id, partner_id, admin_id, profile_snapshot, reason, deleted_by,
			joined_at, withdrawn_at
		FROM withdrawal_history
		WHERE account_id = ?
		ORDER BY withdrawn_at ASC`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.WithdrawalHistory
	for rows.Next() {
		var (
			h                          domain.WithdrawalHistory
			adminRole, snapshot        sql.NullString
			userID, partnerID, adminID sql.NullInt64
			authMethod, role, by       string
		)
		if err := rows.Scan(
			&h.ID, &h.AccountID, &authMethod, &h.LoginID, &role, &adminRole,
			&userID, &partnerID, &adminID, &snapshot, &h.Reason, &by,
			&h.JoinedAt, &h.WithdrawnAt,
		); err != nil {
			return nil, err
		}

		h.AuthMethod = domain.AuthMethod(authMethod)
		h.Role = domain.Role(role)
		h.DeletedBy = domain.DeletedBy(by)
		if adminRole.Valid {
			ar := domain.AdminRole(adminRole.String)
			h.AdminRole = &ar
		}
		h.UserID = mapNullInt64Ptr(userID)
		h.PartnerID = mapNullInt64Ptr(partnerID)
		h.AdminID = mapNullInt64Ptr(adminID)
		if snapshot.Valid {
			h.ProfileSnapshot = json.RawMessage(snapshot.String)
		}
		h.JoinedAt = h.JoinedAt.UTC()
		h.WithdrawnAt = h.WithdrawnAt.UTC()
		out = append(out, h)
	}
	return out, rows.Err()
}

package domain

import (
	"encoding/json"
	"time"

	"github.com/aussiebroadwan/identity/pkg/idx"
)

type DeletedBy string

const (
	DeletedBySelf   DeletedBy = "SELF"
	DeletedByAdmin  DeletedBy = "ADMIN"
	DeletedBySystem DeletedBy = "SYSTEM"
)

// WithdrawalHistory is the append-only audit record written when an account
// leaves the system. It keeps the account's identity fields and a snapshot of
// the remote profile as it was at deletion time.
type WithdrawalHistory struct {
	ID         idx.ID
	AccountID  idx.ID
	AuthMethod AuthMethod
	LoginID    string
	Role       Role
	AdminRole  *AdminRole
	UserID     *int64
	PartnerID  *int64
	AdminID    *int64

	ProfileSnapshot json.RawMessage
	Reason          string
	DeletedBy       DeletedBy

	JoinedAt    time.Time
	WithdrawnAt time.Time
}

// NewWithdrawalHistory snapshots a for deletion at now.
func NewWithdrawalHistory(a Account, snapshot json.RawMessage, reason string, by DeletedBy, now time.Time) WithdrawalHistory {
	return WithdrawalHistory{
		ID:              idx.NewAt(now),
		AccountID:       a.ID,
		AuthMethod:      a.AuthMethod,
		LoginID:         a.LoginID,
		Role:            a.Role,
		AdminRole:       a.AdminRole,
		UserID:          a.UserID,
		PartnerID:       a.PartnerID,
		AdminID:         a.AdminID,
		ProfileSnapshot: snapshot,
		Reason:          reason,
		DeletedBy:       by,
		JoinedAt:        a.CreatedAt,
		WithdrawnAt:     now,
	}
}

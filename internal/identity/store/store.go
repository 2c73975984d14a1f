package store

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/identity/internal/identity/domain"
	"github.com/aussiebroadwan/identity/pkg/idx"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
	// ErrConditionFailed means a conditional write matched no row because the
	// row exists but its current state did not satisfy the condition.
	ErrConditionFailed = errors.New("store: condition failed")
)

// Store is the root data access interface. Sub-repositories are reached
// through methods so a transaction can hand out the same repositories bound
// to itself, and nested transactions are refused.
type Store interface {
	Accounts() Accounts
	WithdrawalHistories() WithdrawalHistories

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx runs fn in a transaction, committing when fn returns nil and
	// rolling back otherwise.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Accounts interface {
	GetByID(ctx context.Context, id idx.ID) (domain.Account, error)
	GetByLoginID(ctx context.Context, loginID string) (domain.Account, error)

	// Create inserts a new account. A login id collision, including one lost
	// to a concurrent insert, returns ErrAlreadyExists.
	Create(ctx context.Context, a domain.Account) error

	// SetExternalID writes the remote profile id of kind only while it is
	// still NULL. ErrConditionFailed when already set, ErrNotFound when the
	// account is gone.
	SetExternalID(ctx context.Context, id idx.ID, kind domain.ExternalIDKind, value int64) error

	// UpdateStatus moves the account to next. With expected set the write is
	// conditional on the current status and fails with ErrConditionFailed.
	UpdateStatus(ctx context.Context, id idx.ID, expected *domain.Status, next domain.Status) error

	DeleteByID(ctx context.Context, id idx.ID) error

	// DeleteIfStatus deletes the account only while it is in status.
	DeleteIfStatus(ctx context.Context, id idx.ID, status domain.Status) error

	// DeleteIfCreatedBefore removes an account still in status and created
	// before cutoff. It reports whether a row was removed.
	DeleteIfCreatedBefore(ctx context.Context, id idx.ID, status domain.Status, cutoff time.Time) (bool, error)

	// ListByRoleAndStatus pages accounts oldest first.
	ListByRoleAndStatus(ctx context.Context, role domain.Role, status domain.Status, limit, offset int) ([]domain.Account, error)
	CountByRoleAndStatus(ctx context.Context, role domain.Role, status domain.Status) (int64, error)
	CountByRole(ctx context.Context, role domain.Role) (int64, error)

	// SetTOTPSecret stores a pending secret and clears any previous enrolment.
	SetTOTPSecret(ctx context.Context, id idx.ID, secret string) error
	EnableTOTP(ctx context.Context, id idx.ID, at time.Time) error
}

// WithdrawalHistories is append-only.
type WithdrawalHistories interface {
	Create(ctx context.Context, h domain.WithdrawalHistory) error
	ListByAccountID(ctx context.Context, accountID idx.ID) ([]domain.WithdrawalHistory, error)
}

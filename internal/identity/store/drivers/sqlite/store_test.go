package sqlite_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/identity/internal/identity/domain"
	"github.com/aussiebroadwan/identity/internal/identity/store"
	"github.com/aussiebroadwan/identity/internal/identity/store/drivers/sqlite"
	"github.com/aussiebroadwan/identity/pkg/idx"
)

func newStore(t *testing.T) *sqlite.Store {
	t.Helper()

	s, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.ApplyMigrations())
	return s
}

func partner(loginID string, created time.Time) domain.Account {
	hash := "$argon2id$stub"
	return domain.Account{
		ID:           idx.NewAt(created),
		AuthMethod:   domain.AuthMethodEmail,
		LoginID:      loginID,
		PasswordHash: &hash,
		Role:         domain.RolePartner,
		Status:       domain.StatusWaitingEmailVerification,
		CreatedAt:    created,
		UpdatedAt:    created,
	}
}

func TestAccounts_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	now := time.Now().UTC().Truncate(time.Millisecond)
	a := partner("a@b.com", now)
	require.NoError(t, s.Accounts().Create(ctx, a))

	got, err := s.Accounts().GetByID(ctx, a.ID)
	require.NoError(t, err)
	require.Equal(t, a.LoginID, got.LoginID)
	require.Equal(t, domain.RolePartner, got.Role)
	require.Equal(t, domain.StatusWaitingEmailVerification, got.Status)
	require.Nil(t, got.PartnerID)
	require.Nil(t, got.AdminRole)
	require.True(t, now.Equal(got.CreatedAt))

	got, err = s.Accounts().GetByLoginID(ctx, "a@b.com")
	require.NoError(t, err)
	require.Equal(t, a.ID, got.ID)

	_, err = s.Accounts().GetByLoginID(ctx, "missing@b.com")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestAccounts_DuplicateLoginID(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	now := time.Now().UTC()
	require.NoError(t, s.Accounts().Create(ctx, partner("dup@b.com", now)))
	err := s.Accounts().Create(ctx, partner("dup@b.com", now))
	require.ErrorIs(t, err, store.ErrAlreadyExists)
}

func TestAccounts_SetExternalIDOnce(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	a := partner("p@b.com", time.Now().UTC())
	require.NoError(t, s.Accounts().Create(ctx, a))

	require.NoError(t, s.Accounts().SetExternalID(ctx, a.ID, domain.ExternalPartnerID, 42))
	err := s.Accounts().SetExternalID(ctx, a.ID, domain.ExternalPartnerID, 43)
	require.ErrorIs(t, err, store.ErrConditionFailed)

	got, err := s.Accounts().GetByID(ctx, a.ID)
	require.NoError(t, err)
	require.Equal(t, int64(42), *got.PartnerID)

	err = s.Accounts().SetExternalID(ctx, idx.New(), domain.ExternalPartnerID, 1)
	require.ErrorIs(t, err, store.ErrNotFound)

	err = s.Accounts().SetExternalID(ctx, a.ID, domain.ExternalIDKind("nope"), 1)
	require.Error(t, err)
}

func TestAccounts_ConditionalStatus(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	a := partner("c@b.com", time.Now().UTC())
	require.NoError(t, s.Accounts().Create(ctx, a))

	wrong := domain.StatusPendingAdminApproval
	err := s.Accounts().UpdateStatus(ctx, a.ID, &wrong, domain.StatusActive)
	require.ErrorIs(t, err, store.ErrConditionFailed)

	expected := domain.StatusWaitingEmailVerification
	require.NoError(t, s.Accounts().UpdateStatus(ctx, a.ID, &expected, domain.StatusPendingAdminApproval))

	// second identical attempt loses
	err = s.Accounts().UpdateStatus(ctx, a.ID, &expected, domain.StatusPendingAdminApproval)
	require.ErrorIs(t, err, store.ErrConditionFailed)

	err = s.Accounts().UpdateStatus(ctx, idx.New(), nil, domain.StatusActive)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestAccounts_DeleteIfStatus(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	a := partner("d@b.com", time.Now().UTC())
	require.NoError(t, s.Accounts().Create(ctx, a))

	err := s.Accounts().DeleteIfStatus(ctx, a.ID, domain.StatusPendingAdminApproval)
	require.ErrorIs(t, err, store.ErrConditionFailed)

	require.NoError(t, s.Accounts().DeleteIfStatus(ctx, a.ID, domain.StatusWaitingEmailVerification))
	err = s.Accounts().DeleteIfStatus(ctx, a.ID, domain.StatusWaitingEmailVerification)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestAccounts_DeleteIfCreatedBefore(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	created := time.Now().UTC().Add(-11 * time.Minute)
	a := partner("old@b.com", created)
	require.NoError(t, s.Accounts().Create(ctx, a))

	removed, err := s.Accounts().DeleteIfCreatedBefore(ctx, a.ID, domain.StatusWaitingEmailVerification, created.Add(-time.Minute))
	require.NoError(t, err)
	require.False(t, removed)

	removed, err = s.Accounts().DeleteIfCreatedBefore(ctx, a.ID, domain.StatusWaitingEmailVerification, time.Now().Add(-10*time.Minute))
	require.NoError(t, err)
	require.True(t, removed)
}

func TestAccounts_ListPendingOldestFirst(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	pending := domain.StatusPendingAdminApproval
	for i, login := range []string{"third@b.com", "first@b.com", "second@b.com"} {
		offsets := []time.Duration{3 * time.Hour, time.Hour, 2 * time.Hour}
		a := partner(login, base.Add(offsets[i]))
		a.Status = pending
		require.NoError(t, s.Accounts().Create(ctx, a))
	}
	other := partner("waiting@b.com", base)
	require.NoError(t, s.Accounts().Create(ctx, other))

	page, err := s.Accounts().ListByRoleAndStatus(ctx, domain.RolePartner, pending, 2, 0)
	require.NoError(t, err)
	require.Len(t, page, 2)
	require.Equal(t, "first@b.com", page[0].LoginID)
	require.Equal(t, "second@b.com", page[1].LoginID)

	page, err = s.Accounts().ListByRoleAndStatus(ctx, domain.RolePartner, pending, 2, 2)
	require.NoError(t, err)
	require.Len(t, page, 1)
	require.Equal(t, "third@b.com", page[0].LoginID)

	n, err := s.Accounts().CountByRoleAndStatus(ctx, domain.RolePartner, pending)
	require.NoError(t, err)
	require.EqualValues(t, 3, n)

	n, err = s.Accounts().CountByRole(ctx, domain.RolePartner)
	require.NoError(t, err)
	require.EqualValues(t, 4, n)
}

func TestAccounts_TOTP(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	role := domain.AdminRoleSuper
	a := domain.Account{
		ID:         idx.New(),
		AuthMethod: domain.AuthMethodInternal,
		LoginID:    "root",
		Role:       domain.RoleAdmin,
		AdminRole:  &role,
		Status:     domain.StatusActive,
		CreatedAt:  time.Now().UTC(),
		UpdatedAt:  time.Now().UTC(),
	}
	require.NoError(t, s.Accounts().Create(ctx, a))

	err := s.Accounts().EnableTOTP(ctx, a.ID, time.Now())
	require.ErrorIs(t, err, store.ErrConditionFailed)

	require.NoError(t, s.Accounts().SetTOTPSecret(ctx, a.ID, "JBSWY3DPEHPK3PXP"))
	require.NoError(t, s.Accounts().EnableTOTP(ctx, a.ID, time.Now()))

	got, err := s.Accounts().GetByID(ctx, a.ID)
	require.NoError(t, err)
	require.True(t, got.TOTPEnabled())
	require.Equal(t, domain.AdminRoleSuper, *got.AdminRole)
}

func TestWithTx_HistoryAndDeleteAtomic(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	a := partner("r@b.com", time.Now().UTC())
	a.Status = domain.StatusPendingAdminApproval
	require.NoError(t, s.Accounts().Create(ctx, a))

	h := domain.NewWithdrawalHistory(a, json.RawMessage(`{"name":"Kim"}`), "duplicate business", domain.DeletedByAdmin, time.Now().UTC())

	// a failing second step rolls back the history write
	boom := errors.New("boom")
	err := s.WithTx(ctx, func(tx store.Tx) error {
		require.NoError(t, tx.WithdrawalHistories().Create(ctx, h))
		return boom
	})
	require.ErrorIs(t, err, boom)

	rows, err := s.WithdrawalHistories().ListByAccountID(ctx, a.ID)
	require.NoError(t, err)
	require.Empty(t, rows)

	err = s.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.WithdrawalHistories().Create(ctx, h); err != nil {
			return err
		}
		return tx.Accounts().DeleteIfStatus(ctx, a.ID, domain.StatusPendingAdminApproval)
	})
	require.NoError(t, err)

	rows, err = s.WithdrawalHistories().ListByAccountID(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, domain.DeletedByAdmin, rows[0].DeletedBy)
	require.Equal(t, "duplicate business", rows[0].Reason)
	require.JSONEq(t, `{"name":"Kim"}`, string(rows[0].ProfileSnapshot))

	_, err = s.Accounts().GetByID(ctx, a.ID)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestTxStore_RefusesNesting(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	err := s.WithTx(ctx, func(tx store.Tx) error {
		return tx.WithTx(ctx, func(store.Tx) error { return nil })
	})
	require.Error(t, err)
}

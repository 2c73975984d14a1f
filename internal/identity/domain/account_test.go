package domain_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/identity/internal/identity/domain"
	"github.com/aussiebroadwan/identity/pkg/idx"
)

func ptr[T any](v T) *T { return &v }

func TestInitialStatus(t *testing.T) {
	require.Equal(t, domain.StatusWaitingProfileCompletion, domain.InitialStatus(domain.RoleEndUser))
	require.Equal(t, domain.StatusWaitingEmailVerification, domain.InitialStatus(domain.RolePartner))
	require.Equal(t, domain.StatusActive, domain.InitialStatus(domain.RoleAdmin))
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name string
		acc  domain.Account
		next domain.Status
		want error
	}{
		{
			name: "partner verified with profile",
			acc:  domain.Account{Role: domain.RolePartner, Status: domain.StatusWaitingEmailVerification, PartnerID: ptr(int64(7))},
			next: domain.StatusPendingAdminApproval,
		},
		{
			name: "partner pending without profile id",
			acc:  domain.Account{Role: domain.RolePartner, Status: domain.StatusWaitingEmailVerification},
			next: domain.StatusPendingAdminApproval,
			want: domain.ErrProfileIDRequired,
		},
		{
			name: "partner approved",
			acc:  domain.Account{Role: domain.RolePartner, Status: domain.StatusPendingAdminApproval, PartnerID: ptr(int64(7))},
			next: domain.StatusActive,
		},
		{
			name: "partner skips verification",
			acc:  domain.Account{Role: domain.RolePartner, Status: domain.StatusWaitingEmailVerification, PartnerID: ptr(int64(7))},
			next: domain.StatusActive,
			want: domain.ErrInvalidTransition,
		},
		{
			name: "end user completes profile",
			acc:  domain.Account{Role: domain.RoleEndUser, Status: domain.StatusWaitingProfileCompletion, UserID: ptr(int64(1))},
			next: domain.StatusActive,
		},
		{
			name: "admin has no transitions",
			acc:  domain.Account{Role: domain.RoleAdmin, Status: domain.StatusActive, AdminID: ptr(int64(1))},
			next: domain.StatusPendingAdminApproval,
			want: domain.ErrInvalidTransition,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.acc.CanTransition(tt.next)
			if tt.want == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestSocialLoginID(t *testing.T) {
	require.Equal(t, "kakao|12345", domain.SocialLoginID("KAKAO", "12345"))

	m, ok := domain.AuthMethodForProvider("Naver")
	require.True(t, ok)
	require.Equal(t, domain.AuthMethodNaver, m)

	_, ok = domain.AuthMethodForProvider("github")
	require.False(t, ok)
}

func TestNewWithdrawalHistory(t *testing.T) {
	joined := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	now := joined.Add(48 * time.Hour)
	acc := domain.Account{
		ID:         idx.NewAt(joined),
		AuthMethod: domain.AuthMethodEmail,
		LoginID:    "a@b.com",
		Role:       domain.RolePartner,
		PartnerID:  ptr(int64(9)),
		CreatedAt:  joined,
	}

	h := domain.NewWithdrawalHistory(acc, json.RawMessage(`{"name":"Kim"}`), "duplicate business", domain.DeletedByAdmin, now)
	require.Equal(t, acc.ID, h.AccountID)
	require.Equal(t, joined, h.JoinedAt)
	require.Equal(t, now, h.WithdrawnAt)
	require.Equal(t, domain.DeletedByAdmin, h.DeletedBy)
	require.Equal(t, int64(9), *h.PartnerID)
	require.False(t, h.ID.IsZero())
}

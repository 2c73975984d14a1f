package jwtx_test

import (
	"testing"
	"time"

	"github.com/aussiebroadwan/identity/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

func ptr(v int64) *int64 { return &v }

func TestNewAccessClaims_RoleScoping(t *testing.T) {
	now := time.Unix(1700000000, 0).UTC()
	all := jwtx.RoleClaims{
		UserID:    ptr(1),
		PartnerID: ptr(2),
		AdminID:   ptr(3),
		AdminRole: "SUPER_ADMIN",
	}

	t.Run("end user carries only userId", func(t *testing.T) {
		rc := all
		rc.Role = jwtx.RoleEndUser
		c := jwtx.NewAccessClaims("acc", rc, "identity", time.Minute, now)

		require.Equal(t, ptr(1), c.UserID)
		require.Nil(t, c.PartnerID)
		require.Nil(t, c.AdminID)
		require.Empty(t, c.AdminRole)
	})

	t.Run("partner carries only partnerId", func(t *testing.T) {
		rc := all
		rc.Role = jwtx.RolePartner
		c := jwtx.NewAccessClaims("acc", rc, "identity", time.Minute, now)

		require.Nil(t, c.UserID)
		require.Equal(t, ptr(2), c.PartnerID)
		require.Nil(t, c.AdminID)
		require.Empty(t, c.AdminRole)
	})

	t.Run("admin carries adminId and adminRole", func(t *testing.T) {
		rc := all
		rc.Role = jwtx.RoleAdmin
		c := jwtx.NewAccessClaims("acc", rc, "identity", time.Minute, now)

		require.Nil(t, c.UserID)
		require.Nil(t, c.PartnerID)
		require.Equal(t, ptr(3), c.AdminID)
		require.Equal(t, "SUPER_ADMIN", c.AdminRole)
	})

	t.Run("expiry is now plus ttl", func(t *testing.T) {
		c := jwtx.NewAccessClaims("acc", jwtx.RoleClaims{Role: jwtx.RoleEndUser}, "identity", time.Minute, now)
		require.Equal(t, now.Add(time.Minute), c.ExpiresAt.Time)
		require.Equal(t, "acc", c.Subject)
	})
}

func TestNewRefreshClaims_IsClaimLight(t *testing.T) {
	c := jwtx.NewRefreshClaims("acc", "identity", time.Hour, time.Now())

	require.True(t, c.IsRefresh())
	require.Nil(t, c.UserID)
	require.Nil(t, c.PartnerID)
	require.Nil(t, c.AdminID)
	require.NotEmpty(t, c.ID)
}

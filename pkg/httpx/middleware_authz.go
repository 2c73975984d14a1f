package httpx

import (
	"net/http"
	"slices"

	"github.com/aussiebroadwan/identity/pkg/jwtx"
)

// RequireRole rejects callers without an identity (401) or whose role is not
// one of roles (403).
func RequireRole(roles ...string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := IdentityFrom(r.Context())
			if !ok {
				WriteError(w, http.StatusUnauthorized, CodeUnauthorized, "Authentication required")
				return
			}
			if !slices.Contains(roles, id.Role) {
				WriteError(w, http.StatusForbidden, CodeForbidden, "Access denied")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdminRole narrows RequireRole("ADMIN") further to specific admin sub-roles.
func RequireAdminRole(adminRoles ...string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := IdentityFrom(r.Context())
			if !ok {
				WriteError(w, http.StatusUnauthorized, CodeUnauthorized, "Authentication required")
				return
			}
			if id.Role != jwtx.RoleAdmin || !slices.Contains(adminRoles, id.AdminRole) {
				WriteError(w, http.StatusForbidden, CodeForbidden, "Access denied")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

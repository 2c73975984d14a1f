package httpx

import (
	"net/http"
	"strings"

	"github.com/aussiebroadwan/identity/pkg/jwtx"
	"github.com/aussiebroadwan/identity/pkg/slogx"
)

// BearerToken extracts the token from an "Authorization: Bearer" header.
func BearerToken(r *http.Request) (string, bool) {
	authz := r.Header.Get("Authorization")
	if !strings.HasPrefix(authz, "Bearer ") {
		return "", false
	}
	raw := strings.TrimSpace(strings.TrimPrefix(authz, "Bearer "))
	return raw, raw != ""
}

// AuthnMiddleware verifies a bearer access token itself, for deployments
// that do not sit behind the gateway. An identity already placed in the
// context by GatewayIdentity wins.
func AuthnMiddleware(v jwtx.Verifier) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if _, ok := IdentityFrom(ctx); ok {
				next.ServeHTTP(w, r)
				return
			}

			raw, ok := BearerToken(r)
			if !ok {
				writeBearerError(w, "missing bearer token")
				return
			}

			claims, err := v.Verify(raw)
			if err != nil || claims.IsRefresh() {
				slogx.FromContext(ctx).Warn("jwt verify failed", "err", err)
				writeBearerError(w, "token verification failed")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(ctx, identityFromClaims(claims))))
		})
	}
}

func identityFromClaims(c jwtx.Claims) Identity {
	return Identity{
		AccountID: c.Subject,
		Role:      c.Role,
		UserID:    c.UserID,
		PartnerID: c.PartnerID,
		AdminID:   c.AdminID,
		AdminRole: c.AdminRole,
	}
}

// RFC 6750-compliant challenge plus the service envelope.
func writeBearerError(w http.ResponseWriter, desc string) {
	w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token", error_description="`+desc+`"`)
	WriteError(w, http.StatusUnauthorized, CodeUnauthorized, "Authentication required")
}

package httpx

import (
	"context"
	"net/http"
	"strconv"
	"strings"
)

// Headers forwarded by the upstream gateway after it has validated the
// caller's access token.
const (
	HeaderAccountID = "X-Account-Id"
	HeaderRole      = "X-Role"
	HeaderUserID    = "X-User-Id"
	HeaderPartnerID = "X-Partner-Id"
	HeaderAdminID   = "X-Admin-Id"
	HeaderAdminRole = "X-Admin-Role"
)

// Identity is the authenticated caller as seen by handlers.
type Identity struct {
	AccountID string
	Role      string
	UserID    *int64
	PartnerID *int64
	AdminID   *int64
	AdminRole string
}

type ctxKey string

const ctxKeyIdentity ctxKey = "identity"

// WithIdentity stores id in ctx.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKeyIdentity, id)
}

// IdentityFrom returns the caller identity, if any middleware established one.
func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ctxKeyIdentity).(Identity)
	return id, ok && id.AccountID != ""
}

// IdentityFromHeaders builds an Identity from gateway headers. ok is false
// when the account id or role header is missing. Malformed numeric ids are
// treated as absent.
func IdentityFromHeaders(h http.Header) (Identity, bool) {
	id := Identity{
		AccountID: strings.TrimSpace(h.Get(HeaderAccountID)),
		Role:      strings.TrimSpace(h.Get(HeaderRole)),
		UserID:    parseInt64(h.Get(HeaderUserID)),
		PartnerID: parseInt64(h.Get(HeaderPartnerID)),
		AdminID:   parseInt64(h.Get(HeaderAdminID)),
		AdminRole: strings.TrimSpace(h.Get(HeaderAdminRole)),
	}
	if id.AccountID == "" || id.Role == "" {
		return Identity{}, false
	}
	return id, true
}

// GatewayIdentity trusts the gateway headers and places the caller identity
// in the request context. Requests whose path starts with one of skip are
// passed through untouched; those routes are reachable anonymously and must
// not pick up identity from spoofable headers.
func GatewayIdentity(skip ...string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, prefix := range skip {
				if strings.HasPrefix(r.URL.Path, prefix) {
					next.ServeHTTP(w, r)
					return
				}
			}

			if id, ok := IdentityFromHeaders(r.Header); ok {
				r = r.WithContext(WithIdentity(r.Context(), id))
			}
			next.ServeHTTP(w, r)
		})
	}
}

func parseInt64(s string) *int64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil
	}
	return &v
}

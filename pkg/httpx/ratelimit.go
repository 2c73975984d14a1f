package httpx

import (
	"bytes"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/aussiebroadwan/identity/pkg/slogx"
)

// RateLimitConfig allows Requests per Window with bursts up to Burst.
type RateLimitConfig struct {
	Requests int
	Window   time.Duration
	Burst    int
}

// Route classes. Each can be overridden with
// RATELIMIT_<CLASS>_REQUESTS, RATELIMIT_<CLASS>_WINDOW_SEC and
// RATELIMIT_<CLASS>_BURST, read once at startup.
var (
	// StrictLimit guards credential checks: 5 attempts a minute.
	StrictLimit = RateLimitConfig{Requests: 5, Window: time.Minute, Burst: 5}
	// ModerateLimit covers signups and authenticated admin operations.
	ModerateLimit = RateLimitConfig{Requests: 20, Window: time.Minute, Burst: 20}
	// PublicLimit covers cheap public reads.
	PublicLimit = RateLimitConfig{Requests: 1000, Window: time.Minute, Burst: 1000}
)

func init() {
	StrictLimit = StrictLimit.FromEnv("STRICT")
	ModerateLimit = ModerateLimit.FromEnv("MODERATE")
	PublicLimit = PublicLimit.FromEnv("PUBLIC")
}

// FromEnv returns c with any RATELIMIT_<class>_* overrides applied.
// Unparseable or non-positive values are ignored.
func (c RateLimitConfig) FromEnv(class string) RateLimitConfig {
	prefix := "RATELIMIT_" + class + "_"
	if n, ok := positiveEnv(prefix + "REQUESTS"); ok {
		c.Requests = n
	}
	if n, ok := positiveEnv(prefix + "WINDOW_SEC"); ok {
		c.Window = time.Duration(n) * time.Second
	}
	if n, ok := positiveEnv(prefix + "BURST"); ok {
		c.Burst = n
	}
	return c
}

func positiveEnv(name string) (int, bool) {
	n, err := strconv.Atoi(os.Getenv(name))
	return n, err == nil && n > 0
}

// ClientIP returns the caller address. The first X-Forwarded-For hop wins
// because the service runs behind the gateway, then X-Real-IP, then the
// socket peer.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// loginBodyLimit bounds how much of a login body is buffered to find the
// login id. Login forms are tiny.
const loginBodyLimit = 8 << 10

// LoginID peeks at the JSON "loginId" of a login request and restores the
// body for the handler. The id is lower-cased so case variants of one
// account share a bucket. Returns "" when the body has no usable id.
func LoginID(r *http.Request) string {
	if r.Body == nil {
		return ""
	}
	raw, err := io.ReadAll(io.LimitReader(r.Body, loginBodyLimit))
	rest := r.Body
	r.Body = struct {
		io.Reader
		io.Closer
	}{io.MultiReader(bytes.NewReader(raw), rest), rest}
	if err != nil {
		return ""
	}

	var form struct {
		LoginID string `json:"loginId"`
	}
	if json.Unmarshal(raw, &form) != nil {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(form.LoginID))
}

type bucket struct {
	lim  *rate.Limiter
	seen time.Time
}

// buckets is a keyed set of token buckets. Buckets idle for longer than
// idle are dropped on the next sweep; an idle bucket is full again anyway.
type buckets struct {
	every rate.Limit
	burst int
	idle  time.Duration
	now   func() time.Time

	mu        sync.Mutex
	byKey     map[string]*bucket
	lastSweep time.Time
}

func newBuckets(c RateLimitConfig) *buckets {
	return &buckets{
		every: rate.Limit(float64(c.Requests) / c.Window.Seconds()),
		burst: c.Burst,
		idle:  max(c.Window, time.Minute),
		now:   time.Now,
		byKey: make(map[string]*bucket),
	}
}

// take spends one token for key. When none is left it reports how long until
// the next one.
func (b *buckets) take(key string) (bool, time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	if now.Sub(b.lastSweep) > b.idle {
		for k, v := range b.byKey {
			if now.Sub(v.seen) > b.idle {
				delete(b.byKey, k)
			}
		}
		b.lastSweep = now
	}

	bk, ok := b.byKey[key]
	if !ok {
		bk = &bucket{lim: rate.NewLimiter(b.every, b.burst)}
		b.byKey[key] = bk
	}
	bk.seen = now

	if bk.lim.AllowN(now, 1) {
		return true, 0
	}
	r := bk.lim.ReserveN(now, 1)
	wait := r.DelayFrom(now)
	r.CancelAt(now)
	return false, wait
}

// RateLimit limits requests per key. Requests for which key returns "" pass
// through unlimited.
func RateLimit(c RateLimitConfig, key func(*http.Request) string) Middleware {
	set := newBuckets(c)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			k := key(r)
			if k == "" {
				next.ServeHTTP(w, r)
				return
			}

			ok, wait := set.take(k)
			if !ok {
				retryAfter := max(int(wait.Round(time.Second)/time.Second), 1)
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))

				slogx.FromContext(r.Context()).Warn("rate limit exceeded",
					"path", r.URL.Path,
					"client_ip", ClientIP(r),
					"retry_after", retryAfter,
				)
				WriteError(w, http.StatusTooManyRequests, CodeTooManyRequests,
					"Too many requests. Please try again later.")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RateLimitByIP limits each client address.
func RateLimitByIP(c RateLimitConfig) Middleware {
	return RateLimit(c, ClientIP)
}

// RateLimitByAccount limits each authenticated account, and anonymous
// callers by address.
func RateLimitByAccount(c RateLimitConfig) Middleware {
	return RateLimit(c, func(r *http.Request) string {
		if id, ok := IdentityFrom(r.Context()); ok && id.AccountID != "" {
			return "account:" + id.AccountID
		}
		return "ip:" + ClientIP(r)
	})
}

// RateLimitLogin limits password attempts against one login id from one
// address. Requests without a login id fall back to the address alone so a
// malformed body cannot dodge the limit.
func RateLimitLogin(c RateLimitConfig) Middleware {
	return RateLimit(c, func(r *http.Request) string {
		ip := ClientIP(r)
		if login := LoginID(r); login != "" {
			return ip + "|" + login
		}
		return ip
	})
}

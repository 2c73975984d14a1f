package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/identity/internal/identity/domain"
	"github.com/aussiebroadwan/identity/internal/identity/service"
	"github.com/aussiebroadwan/identity/pkg/httpx"
	"github.com/aussiebroadwan/identity/pkg/jwtx"
	"github.com/aussiebroadwan/identity/pkg/slogx"

	_ "github.com/aussiebroadwan/identity/api/identity" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	verifier     jwtx.Verifier
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger
	ready        map[string]Pinger

	// TrustGateway accepts the identity headers set by the upstream gateway.
	// Leave it off when the service is reachable without the gateway.
	TrustGateway bool

	TokenService   *service.TokenService
	OAuthService   *service.OAuthService
	UserService    *service.UserService
	PartnerService *service.PartnerService
	AdminService   *service.AdminService
}

func NewRouter(
	verifier jwtx.Verifier,
	buildVersion string,
	ready map[string]Pinger,
	logger *slog.Logger,
) *Router {
	return &Router{
		Mux:          http.NewServeMux(),
		verifier:     verifier,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		logger:       logger,
		ready:        ready,
	}
}

// ApplyRoutes registers every route. Call it after the services are set.
func (r *Router) ApplyRoutes() {
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}
	if r.TrustGateway {
		r.middlewares = append(r.middlewares, httpx.GatewayIdentity(publicPrefixes...))
	}

	r.registerSocial()
	r.registerToken()
	r.registerPartner()
	r.registerAdmin()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			Identity Service API
//	@version		0.1.0
//	@description	Account identity, social login, partner onboarding and JWT issuance for the platform.
//	@description
//	@description				Every response is wrapped in {code, message, data, meta}. code 0 means success.
//
//	@contact.name				AussieBroadWAN Team
//	@contact.url				https://github.com/aussiebroadwan/identity
//
//	@license.name				MIT
//	@license.url				https://opensource.org/licenses/MIT
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				JWT access token. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

// publicPrefixes never read gateway identity headers.
var publicPrefixes = []string{
	"/auth/oauth2/",
	"/auth/users/profile/complete",
	"/auth/partners/",
	"/auth/token/refresh",
	"/auth/admins/bootstrap",
	"/auth/admins/login",
	"/livez",
	"/readyz",
	"/swagger/",
}

func (r *Router) registerSocial() {
	h := &SocialHandler{OAuthService: r.OAuthService, UserService: r.UserService}

	r.Mux.Handle("GET /auth/oauth2/authorize/{provider}",
		httpx.Chain(http.HandlerFunc(h.HandleAuthorize),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("GET /auth/oauth2/callback/{provider}",
		httpx.Chain(http.HandlerFunc(h.HandleCallback),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)

	// Profile completion is a signup step: strict limit by IP
	r.Mux.Handle("POST /auth/users/profile/complete",
		httpx.Chain(http.HandlerFunc(h.HandleCompleteProfile),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
}

func (r *Router) registerToken() {
	r.Mux.Handle("POST /auth/token/refresh",
		httpx.Chain(&RefreshHandler{TokenService: r.TokenService},
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerPartner() {
	h := &PartnerHandler{PartnerService: r.PartnerService}

	r.Mux.Handle("POST /auth/partners/signup",
		httpx.Chain(http.HandlerFunc(h.HandleSignup),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	// Password guessing is limited per login id, spraying per address
	r.Mux.Handle("POST /auth/partners/login",
		httpx.Chain(http.HandlerFunc(h.HandleLogin),
			httpx.RateLimitByIP(httpx.ModerateLimit),
			httpx.RateLimitLogin(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("GET /auth/partners/verify",
		httpx.Chain(http.HandlerFunc(h.HandleVerify),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerAdmin() {
	h := &AdminHandler{AdminService: r.AdminService, PartnerService: r.PartnerService}

	// Bootstrap only exists while a token is configured
	if r.AdminService.BootstrapToken != "" {
		r.Mux.Handle("POST /auth/admins/bootstrap",
			httpx.Chain(http.HandlerFunc(h.HandleBootstrap),
				httpx.RateLimitByIP(httpx.StrictLimit),
			),
		)
	}

	r.Mux.Handle("POST /auth/admins/login",
		httpx.Chain(http.HandlerFunc(h.HandleLogin),
			httpx.RateLimitByIP(httpx.ModerateLimit),
			httpx.RateLimitLogin(httpx.StrictLimit),
		),
	)

	superAdmin := func(next http.HandlerFunc) http.Handler {
		return httpx.Chain(next,
			httpx.AuthnMiddleware(r.verifier),
			httpx.RequireAdminRole(string(domain.AdminRoleSuper)),
			httpx.RateLimitByAccount(httpx.ModerateLimit),
		)
	}
	anyAdmin := func(next http.HandlerFunc, limit httpx.RateLimitConfig) http.Handler {
		return httpx.Chain(next,
			httpx.AuthnMiddleware(r.verifier),
			httpx.RequireRole(jwtx.RoleAdmin),
			httpx.RateLimitByAccount(limit),
		)
	}

	r.Mux.Handle("POST /auth/admins/signup", superAdmin(h.HandleSignup))
	r.Mux.Handle("POST /auth/admins/partners/{accountId}/approval", superAdmin(h.HandleApprove))
	r.Mux.Handle("POST /auth/admins/partners/{accountId}/rejection", superAdmin(h.HandleReject))
	r.Mux.Handle("GET /auth/admins/partners/pending", anyAdmin(h.HandlePending, httpx.ModerateLimit))

	r.Mux.Handle("POST /auth/admins/mfa/enroll", anyAdmin(h.HandleEnrollTOTP, httpx.ModerateLimit))
	// Strict by account to slow down code guessing
	r.Mux.Handle("POST /auth/admins/mfa/confirm", anyAdmin(h.HandleConfirmTOTP, httpx.StrictLimit))
}

func (r *Router) registerSystem() {
	// Health checks - public limit (monitoring systems may poll frequently)
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.ready),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)
}

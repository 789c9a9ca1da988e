package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/openbridgehq/hubconsole/internal/console/service"
	"github.com/openbridgehq/hubconsole/pkg/httpx"
	"github.com/openbridgehq/hubconsole/pkg/slogx"
)

// loginAttempts / loginWindow throttle sign-in attempts per username. The
// window is wide enough that a fat-fingered password never locks a real
// user out, but tight enough to make brute forcing a 6-digit code useless.
const (
	loginAttempts = 10
	loginWindow   = time.Minute
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	logger       *slog.Logger
	loginLimiter *httpx.KeyedLimiter

	AuthService  *service.AuthService
	UserService  *service.UserService
	OtpService   *service.OtpService
	TokenService *service.TokenService
}

func NewRouter(logger *slog.Logger) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		logger:       logger,
		loginLimiter: httpx.NewKeyedLimiter(loginAttempts, loginWindow),
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerSetup()
	r.registerUsers()
	r.registerOtp()
}

// ServeHTTP implements http.Handler for Router and applies the global
// middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerAuth() {
	h := &AuthHandler{
		AuthService:  r.AuthService,
		TokenService: r.TokenService,
		LoginLimiter: r.loginLimiter,
	}

	r.Mux.Handle("POST /api/auth/login", http.HandlerFunc(h.HandleLogin))
	r.Mux.Handle("POST /api/auth/noauth", http.HandlerFunc(h.HandleNoAuth))
	r.Mux.Handle("GET /api/auth/check",
		httpx.Chain(http.HandlerFunc(h.HandleCheck),
			BearerAuth(r.TokenService),
		),
	)
	r.Mux.Handle("POST /api/auth/refresh",
		httpx.Chain(http.HandlerFunc(h.HandleRefresh),
			BearerAuth(r.TokenService),
		),
	)
}

func (r *Router) registerSetup() {
	h := &SetupHandler{AuthService: r.AuthService}

	r.Mux.Handle("GET /api/setup/status", http.HandlerFunc(h.HandleStatus))
	r.Mux.Handle("POST /api/setup/first-user", http.HandlerFunc(h.HandleFirstUser))
	r.Mux.Handle("GET /api/setup/token", http.HandlerFunc(h.HandleWizardToken))
}

func (r *Router) registerUsers() {
	h := &UsersHandler{UserService: r.UserService}

	securedAdmin := func(next http.HandlerFunc) http.Handler {
		return httpx.Chain(next,
			BearerAuth(r.TokenService),
			RequireAdmin,
		)
	}

	r.Mux.Handle("GET /api/users", securedAdmin(h.HandleList))
	r.Mux.Handle("POST /api/users", securedAdmin(h.HandleAdd))
	r.Mux.Handle("PATCH /api/users/{id}", securedAdmin(h.HandleUpdate))
	r.Mux.Handle("DELETE /api/users/{id}", securedAdmin(h.HandleDelete))

	// Any authenticated user may rotate their own password.
	r.Mux.Handle("POST /api/users/change-password",
		httpx.Chain(http.HandlerFunc(h.HandleChangePassword),
			BearerAuth(r.TokenService),
		),
	)
}

func (r *Router) registerOtp() {
	h := &OtpHandler{OtpService: r.OtpService}

	secured := func(next http.HandlerFunc) http.Handler {
		return httpx.Chain(next,
			BearerAuth(r.TokenService),
		)
	}

	r.Mux.Handle("POST /api/users/otp/setup", secured(h.HandleSetup))
	r.Mux.Handle("POST /api/users/otp/activate", secured(h.HandleActivate))
	r.Mux.Handle("POST /api/users/otp/deactivate", secured(h.HandleDeactivate))
}

package http

import (
	"encoding/json"
	"net/http"

	"github.com/openbridgehq/hubconsole/internal/console/service"
	"github.com/openbridgehq/hubconsole/pkg/httpx"
	"github.com/openbridgehq/hubconsole/pkg/slogx"
)

// AuthHandler handles sign-in, no-auth bootstrap, and session checks.
type AuthHandler struct {
	AuthService  *service.AuthService
	TokenService *service.TokenService
	LoginLimiter *httpx.KeyedLimiter
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Otp      string `json:"otp,omitempty"`
}

// HandleLogin handles POST /api/auth/login.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteErrorJSON(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.Username == "" || req.Password == "" {
		httpx.WriteErrorJSON(w, http.StatusBadRequest, "invalid_request", "username and password are required")
		return
	}

	if !h.LoginLimiter.Allow(req.Username) {
		log.Warn("login rate limited", "username", req.Username)
		httpx.WriteErrorJSON(w, http.StatusTooManyRequests, "rate_limited", "too many login attempts")
		return
	}

	session, err := h.AuthService.SignIn(ctx, req.Username, req.Password, req.Otp)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, session)
}

// HandleNoAuth handles POST /api/auth/noauth. It only succeeds when the
// instance runs with authentication disabled.
func (h *AuthHandler) HandleNoAuth(w http.ResponseWriter, r *http.Request) {
	session, err := h.AuthService.GenerateNoAuthToken(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, session)
}

// HandleCheck handles GET /api/auth/check. BearerAuth has already verified
// the token; reaching here means the session is valid.
func (h *AuthHandler) HandleCheck(w http.ResponseWriter, r *http.Request) {
	claims, _ := ClaimsFromContext(r.Context())
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"status":   "OK",
		"username": claims.Username,
		"admin":    claims.Admin,
	})
}

// HandleRefresh handles POST /api/auth/refresh, re-issuing the presented
// session with a fresh expiry.
func (h *AuthHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		httpx.WriteErrorJSON(w, http.StatusUnauthorized, "unauthorized", "missing session")
		return
	}

	token, err := h.TokenService.Refresh(r.Context(), claims)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"access_token": token,
		"token_type":   "Bearer",
		"expires_in":   h.TokenService.SessionTTLSeconds(),
	})
}

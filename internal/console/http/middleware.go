package http

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/openbridgehq/hubconsole/internal/console/domain"
	"github.com/openbridgehq/hubconsole/internal/console/service"
	"github.com/openbridgehq/hubconsole/pkg/httpx"
	"github.com/openbridgehq/hubconsole/pkg/jwtx"
	"github.com/openbridgehq/hubconsole/pkg/slogx"
)

type claimsCtxKey struct{}

// BearerAuth verifies the Authorization bearer token and stashes its claims
// in the request context. Requests without a valid token never reach the
// wrapped handler.
func BearerAuth(tokens *service.TokenService) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := bearerToken(r)
			if raw == "" {
				httpx.WriteErrorJSON(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
				return
			}

			claims, err := tokens.Verify(raw)
			if err != nil {
				slogx.FromContext(r.Context()).Warn("token rejected", "err", err)
				httpx.WriteErrorJSON(w, http.StatusUnauthorized, "unauthorized", "invalid or expired token")
				return
			}
			if claims, err = tokens.Validate(claims); err != nil {
				httpx.WriteErrorJSON(w, http.StatusUnauthorized, "unauthorized", "invalid token")
				return
			}

			ctx := context.WithValue(r.Context(), claimsCtxKey{}, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin rejects requests whose session claims lack the admin flag.
// Must sit inside BearerAuth.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		if !ok || !claims.Admin {
			httpx.WriteErrorJSON(w, http.StatusForbidden, "forbidden", "administrator access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ClaimsFromContext returns the session claims injected by BearerAuth.
func ClaimsFromContext(ctx context.Context) (jwtx.Claims, bool) {
	claims, ok := ctx.Value(claimsCtxKey{}).(jwtx.Claims)
	return claims, ok
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(h) <= len(prefix) || !strings.EqualFold(h[:len(prefix)], prefix) {
		return ""
	}
	return h[len(prefix):]
}

// writeDomainError maps the service error taxonomy onto HTTP statuses. The
// authentication failures deliberately map to 403, not 401: a 401 on the
// login endpoint would make browsers pop their basic-auth dialog.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrAuthenticationFailed):
		httpx.WriteErrorJSON(w, http.StatusForbidden, "authentication_failed", err.Error())
	case errors.Is(err, domain.ErrTwoFactorRequired):
		httpx.WriteErrorJSON(w, http.StatusForbidden, "2fa_required", err.Error())
	case errors.Is(err, domain.ErrTwoFactorInvalid):
		httpx.WriteErrorJSON(w, http.StatusForbidden, "2fa_invalid", err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		httpx.WriteErrorJSON(w, http.StatusUnauthorized, "unauthorized", err.Error())
	case errors.Is(err, domain.ErrConflict):
		httpx.WriteErrorJSON(w, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, domain.ErrNotFound):
		httpx.WriteErrorJSON(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, domain.ErrInvalidRequest):
		httpx.WriteErrorJSON(w, http.StatusBadRequest, "invalid_request", err.Error())
	default:
		httpx.WriteErrorJSON(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

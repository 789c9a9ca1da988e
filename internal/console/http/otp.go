package http

import (
	"encoding/json"
	"net/http"

	"github.com/openbridgehq/hubconsole/internal/console/service"
	"github.com/openbridgehq/hubconsole/pkg/httpx"
	"github.com/openbridgehq/hubconsole/pkg/jwtx"
	"github.com/openbridgehq/hubconsole/pkg/slogx"
)

// OtpHandler handles second-factor enrolment for the session owner.
type OtpHandler struct {
	OtpService *service.OtpService
}

// HandleSetup handles POST /api/users/otp/setup, generating an inactive
// secret and the provisioning URI for the authenticator app.
func (h *OtpHandler) HandleSetup(w http.ResponseWriter, r *http.Request) {
	claims, ok := sessionClaims(w, r)
	if !ok {
		return
	}

	resp, err := h.OtpService.Setup(r.Context(), claims.Username)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

type otpActivateRequest struct {
	Code string `json:"code"`
}

// HandleActivate handles POST /api/users/otp/activate.
func (h *OtpHandler) HandleActivate(w http.ResponseWriter, r *http.Request) {
	claims, ok := sessionClaims(w, r)
	if !ok {
		return
	}

	var req otpActivateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteErrorJSON(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if err := h.OtpService.Activate(r.Context(), claims.Username, req.Code); err != nil {
		writeDomainError(w, err)
		return
	}

	slogx.FromContext(r.Context()).Info("2fa activated", "username", claims.Username)
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "OK"})
}

type otpDeactivateRequest struct {
	Password string `json:"password"`
}

// HandleDeactivate handles POST /api/users/otp/deactivate. Requires the
// account password, not just the session.
func (h *OtpHandler) HandleDeactivate(w http.ResponseWriter, r *http.Request) {
	claims, ok := sessionClaims(w, r)
	if !ok {
		return
	}

	var req otpDeactivateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteErrorJSON(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if err := h.OtpService.Deactivate(r.Context(), claims.Username, req.Password); err != nil {
		writeDomainError(w, err)
		return
	}

	slogx.FromContext(r.Context()).Info("2fa deactivated", "username", claims.Username)
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "OK"})
}

func sessionClaims(w http.ResponseWriter, r *http.Request) (jwtx.Claims, bool) {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		httpx.WriteErrorJSON(w, http.StatusUnauthorized, "unauthorized", "missing session")
	}
	return claims, ok
}

package http

import (
	"encoding/json"
	"net/http"

	"github.com/openbridgehq/hubconsole/internal/console/domain"
	"github.com/openbridgehq/hubconsole/internal/console/service"
	"github.com/openbridgehq/hubconsole/pkg/httpx"
	"github.com/openbridgehq/hubconsole/pkg/slogx"
)

// SetupHandler serves the first-run setup wizard. None of these endpoints
// require a session: they exist precisely because no account does yet, and
// each refuses once setup is complete.
type SetupHandler struct {
	AuthService *service.AuthService
}

// HandleStatus handles GET /api/setup/status. It re-reads the auth file so
// an out-of-band restore or delete is picked up without a restart.
func (h *SetupHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	complete, err := h.AuthService.CheckAuthFile(r.Context())
	if err != nil {
		slogx.FromContext(r.Context()).Error("auth file check failed", "err", err)
		httpx.WriteErrorJSON(w, http.StatusInternalServerError, "internal_error", "could not read auth file")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]bool{"setupComplete": complete})
}

// HandleFirstUser handles POST /api/setup/first-user.
func (h *SetupHandler) HandleFirstUser(w http.ResponseWriter, r *http.Request) {
	var req domain.NewUser
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteErrorJSON(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	user, err := h.AuthService.SetupFirstUser(r.Context(), req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, user)
}

// HandleWizardToken handles GET /api/setup/token, minting the short-lived
// token the wizard uses to drive the remaining setup calls.
func (h *SetupHandler) HandleWizardToken(w http.ResponseWriter, r *http.Request) {
	token, err := h.AuthService.GenerateSetupWizardToken(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]string{
		"access_token": token,
		"token_type":   "Bearer",
	})
}

package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/openbridgehq/hubconsole/internal/console/domain"
	"github.com/openbridgehq/hubconsole/internal/console/service"
	"github.com/openbridgehq/hubconsole/pkg/httpx"
	"github.com/openbridgehq/hubconsole/pkg/slogx"
)

// UsersHandler handles account administration. All methods except
// HandleChangePassword sit behind the admin guard.
type UsersHandler struct {
	UserService *service.UserService
}

// HandleList handles GET /api/users. Records are always desensitized on the
// way out.
func (h *UsersHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	users, err := h.UserService.List(r.Context(), true)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, users)
}

// HandleAdd handles POST /api/users.
func (h *UsersHandler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	var req domain.NewUser
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteErrorJSON(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.Username == "" {
		httpx.WriteErrorJSON(w, http.StatusBadRequest, "invalid_request", "username is required")
		return
	}

	user, err := h.UserService.Add(r.Context(), req)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	slogx.FromContext(r.Context()).Info("user created",
		"username", user.Username, "admin", user.Admin)
	httpx.WriteJSON(w, http.StatusCreated, user)
}

// HandleUpdate handles PATCH /api/users/{id}.
func (h *UsersHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var patch domain.UserPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		httpx.WriteErrorJSON(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	user, err := h.UserService.Update(r.Context(), id, patch)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, user)
}

// HandleDelete handles DELETE /api/users/{id}.
func (h *UsersHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.UserService.Delete(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}

	slogx.FromContext(r.Context()).Info("user deleted", "id", id)
	w.WriteHeader(http.StatusNoContent)
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// HandleChangePassword handles POST /api/users/change-password. The subject
// is always the session owner, never a request field.
func (h *UsersHandler) HandleChangePassword(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		httpx.WriteErrorJSON(w, http.StatusUnauthorized, "unauthorized", "missing session")
		return
	}

	var req changePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteErrorJSON(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.NewPassword == "" {
		httpx.WriteErrorJSON(w, http.StatusBadRequest, "invalid_request", "new password is required")
		return
	}

	err := h.UserService.ChangePassword(r.Context(), claims.Username, req.CurrentPassword, req.NewPassword)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "OK"})
}

func pathID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		httpx.WriteErrorJSON(w, http.StatusBadRequest, "invalid_request", "invalid user id")
		return 0, false
	}
	return id, true
}

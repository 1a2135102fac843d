package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/erazemk/oprema/internal/model"
	"github.com/erazemk/oprema/internal/users"
)

// UsersHandler handles user management endpoints.
type UsersHandler struct {
	Users  *users.Service
	Logger *zap.Logger
}

type createUserRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type changeRoleRequest struct {
	Role string `json:"role"`
}

type resetPasswordRequest struct {
	Password string `json:"password"`
}

// List handles GET /api/users.
func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.Users.ListUsers(r.Context())
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	if list == nil {
		list = []model.User{}
	}
	jsonResponse(w, http.StatusOK, map[string]any{"users": list})
}

// Create handles POST /api/users.
func (h *UsersHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid request body")
		return
	}

	user, err := h.Users.CreateUser(r.Context(), GetUser(r.Context()), req.Username, req.Password, req.Role)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	jsonResponse(w, http.StatusCreated, map[string]any{"user": user})
}

// ChangeRole handles PUT /api/users/{user}/role where {user} is the user ID.
func (h *UsersHandler) ChangeRole(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "user"), 10, 64)
	if err != nil {
		badRequest(w, "invalid user id")
		return
	}

	var req changeRoleRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid request body")
		return
	}

	user, err := h.Users.ChangeRole(r.Context(), GetUser(r.Context()), id, req.Role)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]any{"user": user})
}

// ResetPassword handles PUT /api/users/{user}/reset-password where {user} is
// the username.
func (h *UsersHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid request body")
		return
	}

	if err := h.Users.ResetPassword(r.Context(), GetUser(r.Context()), chi.URLParam(r, "user"), req.Password); err != nil {
		writeError(w, h.Logger, err)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"message": "password reset"})
}

// AuditLogs handles GET /api/user-audit-logs.
func (h *UsersHandler) AuditLogs(w http.ResponseWriter, r *http.Request) {
	logs, err := h.Users.ListAuditLogs(r.Context(), GetUser(r.Context()))
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	if logs == nil {
		logs = []model.UserAuditLog{}
	}
	jsonResponse(w, http.StatusOK, map[string]any{"logs": logs})
}

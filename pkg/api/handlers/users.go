package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/JyotirmoyBhowmik/PowerShellEndPointv2-sub001/internal/logger"
	"github.com/JyotirmoyBhowmik/PowerShellEndPointv2-sub001/pkg/api/middleware"
	"github.com/JyotirmoyBhowmik/PowerShellEndPointv2-sub001/pkg/auth"
	"github.com/JyotirmoyBhowmik/PowerShellEndPointv2-sub001/pkg/platform/models"
	"github.com/JyotirmoyBhowmik/PowerShellEndPointv2-sub001/pkg/platform/store"
)

// UserHandler handles user management API endpoints.
//
// All mutating endpoints are admin-only (enforced by router middleware)
// and write an audit event describing the change.
type UserHandler struct {
	store  store.Store
	hasher *auth.Hasher
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(st store.Store, hasher *auth.Hasher) *UserHandler {
	return &UserHandler{store: st, hasher: hasher}
}

// CreateUserRequest is the request body for POST /api/v1/users.
type CreateUserRequest struct {
	Username    string `json:"username"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name,omitempty"`
	Email       string `json:"email,omitempty"`
	Role        string `json:"role,omitempty"`
}

// UpdateRoleRequest is the request body for PUT /api/v1/users/{username}/role.
type UpdateRoleRequest struct {
	Role string `json:"role"`
}

// UpdateActiveRequest is the request body for PUT /api/v1/users/{username}/active.
type UpdateActiveRequest struct {
	Active bool `json:"active"`
}

// ResetPasswordRequest is the request body for POST /api/v1/users/{username}/password.
type ResetPasswordRequest struct {
	Password string `json:"password"`
}

// List handles GET /api/v1/users.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.store.ListUsers(r.Context())
	if err != nil {
		InternalServerError(w, "Failed to list users")
		return
	}

	responses := make([]UserResponse, 0, len(users))
	for _, user := range users {
		responses = append(responses, userToResponse(user))
	}
	WriteJSONOK(w, responses)
}

// Get handles GET /api/v1/users/{username}.
// Users can read their own record; everything else is admin-only.
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")

	claims := middleware.GetClaimsFromContext(r.Context())
	if claims == nil {
		Unauthorized(w, "Authentication required")
		return
	}
	if claims.Subject != username && !claims.IsAdmin() {
		Forbidden(w, "Admin access required")
		return
	}

	user, ok := getUserOrError(r.Context(), w, h.store, username)
	if !ok {
		return
	}
	WriteJSONOK(w, userToResponse(user))
}

// Create handles POST /api/v1/users.
// Creates a local user with a hashed password.
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	if req.Username == "" || req.Password == "" {
		BadRequest(w, "Username and password are required")
		return
	}

	role := req.Role
	if role == "" {
		role = string(models.RoleViewer)
	}
	if !models.UserRole(role).IsValid() {
		BadRequest(w, "Invalid role")
		return
	}

	hash, err := h.hasher.Hash(req.Password)
	if err != nil {
		InternalServerError(w, "Failed to hash password")
		return
	}

	user := &models.User{
		Username:     req.Username,
		AuthProvider: "local",
		DisplayName:  req.DisplayName,
		Email:        req.Email,
		Role:         role,
		Active:       true,
		PasswordHash: hash,
	}
	if err := h.store.CreateUser(r.Context(), user); err != nil {
		if errors.Is(err, models.ErrDuplicateUser) {
			Conflict(w, "Username already exists")
			return
		}
		InternalServerError(w, "Failed to create user")
		return
	}

	h.recordAudit(r, "user.create", req.Username, models.RiskMedium, "role="+role)
	WriteJSONCreated(w, userToResponse(user))
}

// UpdateRole handles PUT /api/v1/users/{username}/role.
func (h *UserHandler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")

	var req UpdateRoleRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	if !models.UserRole(req.Role).IsValid() {
		BadRequest(w, "Invalid role")
		return
	}

	if err := h.store.UpdateUserRole(r.Context(), username, models.UserRole(req.Role)); err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			NotFound(w, "User not found")
			return
		}
		InternalServerError(w, "Failed to update role")
		return
	}

	risk := models.RiskMedium
	if req.Role == string(models.RoleAdmin) {
		risk = models.RiskHigh
	}
	h.recordAudit(r, "user.role_change", username, risk, "role="+req.Role)
	WriteNoContent(w)
}

// UpdateActive handles PUT /api/v1/users/{username}/active.
// Deactivated users fail credential checks on their next login; their
// outstanding tokens stay valid until expiry.
func (h *UserHandler) UpdateActive(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")

	var req UpdateActiveRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	claims := middleware.GetClaimsFromContext(r.Context())
	if claims != nil && claims.Subject == username && !req.Active {
		BadRequest(w, "Cannot deactivate your own account")
		return
	}

	if err := h.store.SetUserActive(r.Context(), username, req.Active); err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			NotFound(w, "User not found")
			return
		}
		InternalServerError(w, "Failed to update user")
		return
	}

	action := "user.deactivate"
	if req.Active {
		action = "user.activate"
	}
	h.recordAudit(r, action, username, models.RiskMedium, "")
	WriteNoContent(w)
}

// ResetPassword handles POST /api/v1/users/{username}/password.
// Only local users carry a password; externally owned users are rejected.
func (h *UserHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")

	var req ResetPasswordRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	if req.Password == "" {
		BadRequest(w, "Password is required")
		return
	}

	user, ok := getUserOrError(r.Context(), w, h.store, username)
	if !ok {
		return
	}
	if !user.IsLocal() {
		Conflict(w, "Password resets only apply to local users")
		return
	}

	hash, err := h.hasher.Hash(req.Password)
	if err != nil {
		InternalServerError(w, "Failed to hash password")
		return
	}
	if err := h.store.UpdatePassword(r.Context(), username, hash); err != nil {
		InternalServerError(w, "Failed to update password")
		return
	}

	h.recordAudit(r, "user.password_reset", username, models.RiskMedium, "")
	WriteNoContent(w)
}

// recordAudit writes one user-management audit event. Failures are logged
// and swallowed; auditing never fails the request.
func (h *UserHandler) recordAudit(r *http.Request, action, target, risk, detail string) {
	actor := ""
	if claims := middleware.GetClaimsFromContext(r.Context()); claims != nil {
		actor = claims.Subject
	}

	d := "target=" + target
	if detail != "" {
		d += " " + detail
	}
	event := &models.AuditEvent{
		Action:    action,
		Actor:     actor,
		Outcome:   "success",
		RiskLevel: risk,
		Detail:    d,
	}
	if err := h.store.RecordAuditEvent(r.Context(), event); err != nil {
		logger.WarnCtx(r.Context(), "failed to record audit event",
			"action", action, "target", target, "error", err)
	}
}

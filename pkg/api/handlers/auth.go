package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/JyotirmoyBhowmik/PowerShellEndPointv2-sub001/internal/logger"
	"github.com/JyotirmoyBhowmik/PowerShellEndPointv2-sub001/pkg/api/middleware"
	"github.com/JyotirmoyBhowmik/PowerShellEndPointv2-sub001/pkg/auth"
	"github.com/JyotirmoyBhowmik/PowerShellEndPointv2-sub001/pkg/platform/models"
	"github.com/JyotirmoyBhowmik/PowerShellEndPointv2-sub001/pkg/platform/store"
)

// AuthHandler handles authentication-related API endpoints.
type AuthHandler struct {
	authenticator *auth.Authenticator
	reconciler    *auth.Reconciler
	tokens        *auth.TokenService
	store         store.Store
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authenticator *auth.Authenticator, reconciler *auth.Reconciler, tokens *auth.TokenService, st store.Store) *AuthHandler {
	return &AuthHandler{
		authenticator: authenticator,
		reconciler:    reconciler,
		tokens:        tokens,
		store:         st,
	}
}

// LoginRequest is the request body for POST /api/v1/auth/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`

	// Provider optionally narrows authentication to a single configured
	// provider instead of walking the fallback chain.
	Provider string `json:"provider,omitempty"`
}

// LoginResponse is the response body for POST /api/v1/auth/login.
type LoginResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresIn   int64        `json:"expires_in"`
	ExpiresAt   time.Time    `json:"expires_at"`
	User        UserResponse `json:"user"`
}

// UserResponse is a sanitized user representation for API responses.
type UserResponse struct {
	ID           int64      `json:"id"`
	Username     string     `json:"username"`
	AuthProvider string     `json:"auth_provider"`
	DisplayName  string     `json:"display_name,omitempty"`
	Email        string     `json:"email,omitempty"`
	Role         string     `json:"role"`
	Active       bool       `json:"active"`
	LastLogin    *time.Time `json:"last_login,omitempty"`
}

// Login handles POST /api/v1/auth/login.
// Authenticates user credentials against the provider chain and returns a
// bearer token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	if req.Username == "" || req.Password == "" {
		BadRequest(w, "Username and password are required")
		return
	}

	result, err := h.authenticator.Authenticate(r.Context(), req.Username, req.Password, req.Provider)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrProviderNotFound):
			BadRequest(w, "Requested authentication provider is not configured")
		case errors.Is(err, auth.ErrAuthenticationFailed):
			Unauthorized(w, "Invalid username or password")
		default:
			ServiceUnavailable(w, "Authentication backend unavailable")
		}
		return
	}

	user, err := h.reconciler.Reconcile(r.Context(), result)
	if err != nil {
		InternalServerError(w, "Failed to reconcile user identity")
		return
	}

	// A disabled account must be indistinguishable from any other
	// credential failure at the HTTP layer; the audit trail keeps the
	// distinguishing detail.
	if !user.Active {
		h.recordDisabledLogin(r.Context(), user)
		Unauthorized(w, "Invalid username or password")
		return
	}

	accessToken, err := h.tokens.Issue(user.Username, user.ID, user.Role)
	if err != nil {
		InternalServerError(w, "Failed to generate token")
		return
	}

	ttl := h.tokens.TTL()
	response := LoginResponse{
		AccessToken: accessToken,
		TokenType:   "Bearer",
		ExpiresIn:   int64(ttl.Seconds()),
		ExpiresAt:   time.Now().Add(ttl),
		User:        userToResponse(user),
	}

	WriteJSONOK(w, response)
}

// Me handles GET /api/v1/auth/me.
// Returns the current authenticated user's information.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaimsFromContext(r.Context())
	if claims == nil {
		Unauthorized(w, "Authentication required")
		return
	}

	// Fetch fresh user data; the token may outlive role changes
	user, ok := getUserOrUnauthorized(r.Context(), w, h.store, claims.Subject)
	if !ok {
		return
	}

	WriteJSONOK(w, userToResponse(user))
}

// recordDisabledLogin writes the audit event for a login denied on the
// account's active flag after the provider accepted the credentials.
// Sink failures are logged and swallowed.
func (h *AuthHandler) recordDisabledLogin(ctx context.Context, user *models.User) {
	event := &models.AuditEvent{
		Action:    "auth.login",
		Actor:     user.Username,
		Outcome:   "denied",
		RiskLevel: models.RiskMedium,
		Detail:    fmt.Sprintf("provider=%s account disabled", user.AuthProvider),
	}
	if err := h.store.RecordAuditEvent(ctx, event); err != nil {
		logger.WarnCtx(ctx, "failed to record audit event",
			"action", event.Action, "actor", user.Username, "error", err)
	}
}

// userToResponse converts a User to a UserResponse for API output.
func userToResponse(user *models.User) UserResponse {
	return UserResponse{
		ID:           user.ID,
		Username:     user.Username,
		AuthProvider: user.AuthProvider,
		DisplayName:  user.DisplayName,
		Email:        user.Email,
		Role:         user.Role,
		Active:       user.Active,
		LastLogin:    user.LastLogin,
	}
}

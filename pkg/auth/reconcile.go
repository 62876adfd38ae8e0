package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/JyotirmoyBhowmik/PowerShellEndPointv2-sub001/internal/logger"
	"github.com/JyotirmoyBhowmik/PowerShellEndPointv2-sub001/pkg/platform/models"
)

// Reconciler maps a successful provider result onto the durable user
// record, creating the record on first external login.
type Reconciler struct {
	store UserStore
}

// NewReconciler creates a reconciler over the given user store.
func NewReconciler(store UserStore) *Reconciler {
	return &Reconciler{store: store}
}

// Reconcile returns the user record for an authenticated identity.
//
// Existing users keep their role and provider ownership; only the external
// ID is refreshed (or backfilled) when the provider reports a different
// one, and the last-login timestamp is touched. Unknown users are created
// with the fixed non-elevated default role — role elevation is an
// administrative operation, never a reconciliation side effect.
func (r *Reconciler) Reconcile(ctx context.Context, result *Result) (*models.User, error) {
	user, err := r.store.GetUserByUsername(ctx, result.Username)
	switch {
	case err == nil:
		if result.ExternalID != "" && result.ExternalID != user.ExternalID {
			if err := r.store.UpdateExternalIdentity(ctx, user.Username, result.Provider, result.ExternalID); err != nil {
				return nil, fmt.Errorf("failed to update external identity: %w", err)
			}
		}

	case errors.Is(err, models.ErrUserNotFound):
		newUser := &models.User{
			Username:     result.Username,
			AuthProvider: result.Provider,
			ExternalID:   result.ExternalID,
			DisplayName:  result.DisplayName,
			Email:        result.Email,
			Role:         string(models.DefaultExternalRole),
			Active:       true,
		}
		if err := r.store.CreateUser(ctx, newUser); err != nil {
			// A concurrent first login may have won the insert; fall
			// through to the re-fetch either way.
			if !errors.Is(err, models.ErrDuplicateUser) {
				return nil, fmt.Errorf("failed to create user: %w", err)
			}
		}

	default:
		return nil, fmt.Errorf("user lookup failed: %w", err)
	}

	if err := r.store.TouchLastLogin(ctx, result.Username, time.Now()); err != nil {
		logger.WarnCtx(ctx, "failed to update last login time",
			"username", result.Username, "error", err)
	}

	user, err = r.store.GetUserByUsername(ctx, result.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to load reconciled user: %w", err)
	}
	return user, nil
}

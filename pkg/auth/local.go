package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/JyotirmoyBhowmik/PowerShellEndPointv2-sub001/internal/logger"
	"github.com/JyotirmoyBhowmik/PowerShellEndPointv2-sub001/pkg/platform/models"
)

// LocalProvider authenticates users against the platform's own user table.
type LocalProvider struct {
	name   string
	store  UserStore
	hasher *Hasher
}

// NewLocalProvider creates a provider backed by the given user store.
func NewLocalProvider(name string, store UserStore, hasher *Hasher) *LocalProvider {
	return &LocalProvider{
		name:   name,
		store:  store,
		hasher: hasher,
	}
}

// Name returns the configured provider name.
func (p *LocalProvider) Name() string { return p.name }

// PasswordBased returns true.
func (p *LocalProvider) PasswordBased() bool { return true }

// Verify checks the secret against the stored salt:digest hash.
//
// Only users owned by the local provider are considered; an LDAP-owned user
// with the same username is a credential failure here, not a hit. A secret
// mismatch increments the user's failed-login counter as a side effect.
func (p *LocalProvider) Verify(ctx context.Context, username, secret string) (*Result, error) {
	user, err := p.store.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			return nil, fmt.Errorf("unknown user: %w", ErrInvalidCredentials)
		}
		return nil, fmt.Errorf("user lookup failed: %w", err)
	}

	if !user.IsLocal() {
		return nil, fmt.Errorf("user is owned by provider %q: %w", user.AuthProvider, ErrInvalidCredentials)
	}
	if !user.Active {
		return nil, fmt.Errorf("%w: %w", models.ErrUserDisabled, ErrInvalidCredentials)
	}

	if !p.hasher.Verify(secret, user.PasswordHash) {
		if incErr := p.store.IncrementFailedLogins(ctx, username); incErr != nil {
			logger.WarnCtx(ctx, "failed to increment failed-login counter",
				"username", username, "error", incErr)
		}
		return nil, fmt.Errorf("secret mismatch: %w", ErrInvalidCredentials)
	}

	return &Result{
		Username:    user.Username,
		Provider:    p.name,
		ExternalID:  strconv.FormatInt(user.ID, 10),
		DisplayName: user.GetDisplayName(),
		Email:       user.Email,
	}, nil
}

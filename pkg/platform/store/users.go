package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"gorm.io/gorm"

	"github.com/JyotirmoyBhowmik/PowerShellEndPointv2-sub001/pkg/platform/models"
)

// ============================================
// USER OPERATIONS
// ============================================

func (s *GORMStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return getByField[models.User](s.db, ctx, "username", username, models.ErrUserNotFound)
}

func (s *GORMStore) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	return getByField[models.User](s.db, ctx, "id", id, models.ErrUserNotFound)
}

func (s *GORMStore) ListUsers(ctx context.Context) ([]*models.User, error) {
	return listAll[models.User](s.db, ctx, "username ASC")
}

func (s *GORMStore) CreateUser(ctx context.Context, user *models.User) error {
	if err := user.Validate(); err != nil {
		return err
	}
	return create(s.db, ctx, user, models.ErrDuplicateUser)
}

// UpdateExternalIdentity refreshes the provider tag and external ID stored
// for a user after a successful external authentication.
func (s *GORMStore) UpdateExternalIdentity(ctx context.Context, username, provider, externalID string) error {
	result := s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("username = ?", username).
		Updates(map[string]any{
			"auth_provider": provider,
			"external_id":   externalID,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return models.ErrUserNotFound
	}
	return nil
}

// IncrementFailedLogins atomically bumps the failed-login counter.
// The increment happens in a single UPDATE so concurrent failed attempts
// against the same user never lose a count to read-modify-write races.
func (s *GORMStore) IncrementFailedLogins(ctx context.Context, username string) error {
	result := s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("username = ?", username).
		Update("failed_logins", gorm.Expr("failed_logins + 1"))

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return models.ErrUserNotFound
	}
	return nil
}

// TouchLastLogin records a successful login and resets the failed counter.
func (s *GORMStore) TouchLastLogin(ctx context.Context, username string, timestamp time.Time) error {
	result := s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("username = ?", username).
		Updates(map[string]any{
			"last_login":    timestamp,
			"failed_logins": 0,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return models.ErrUserNotFound
	}
	return nil
}

// SetUserActive flips the active flag. Deactivation is the platform's
// deletion primitive; user rows are never hard-deleted by the auth subsystem.
func (s *GORMStore) SetUserActive(ctx context.Context, username string, active bool) error {
	result := s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("username = ?", username).
		Update("active", active)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return models.ErrUserNotFound
	}
	return nil
}

func (s *GORMStore) UpdateUserRole(ctx context.Context, username string, role models.UserRole) error {
	if !role.IsValid() {
		return fmt.Errorf("invalid role %q", role)
	}

	result := s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("username = ?", username).
		Update("role", string(role))

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return models.ErrUserNotFound
	}
	return nil
}

func (s *GORMStore) UpdatePassword(ctx context.Context, username, passwordHash string) error {
	result := s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("username = ? AND auth_provider = ?", username, "local").
		Update("password_hash", passwordHash)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return models.ErrUserNotFound
	}
	return nil
}

// ============================================
// ADMIN INITIALIZATION
// ============================================

// EnvAdminInitialPassword lets deployments pin the bootstrap admin password.
const EnvAdminInitialPassword = "EPMON_ADMIN_INITIAL_PASSWORD"

// AdminUsername is the default bootstrap administrator account name.
const AdminUsername = "admin"

// EnsureAdminUser creates the initial local admin account if no admin
// exists yet. An empty username falls back to AdminUsername. Returns the
// generated password (empty if the admin already existed or the password
// came from the environment).
func (s *GORMStore) EnsureAdminUser(ctx context.Context, username, email string, hashPassword func(string) (string, error), generatePassword func() (string, error)) (string, error) {
	if username == "" {
		username = AdminUsername
	}

	_, err := s.GetUserByUsername(ctx, username)
	if err == nil {
		return "", nil // Admin already exists
	}
	if !errors.Is(err, models.ErrUserNotFound) {
		return "", err
	}

	password := ""
	fromEnv := false
	if env := os.Getenv(EnvAdminInitialPassword); env != "" {
		password = env
		fromEnv = true
	} else {
		password, err = generatePassword()
		if err != nil {
			return "", fmt.Errorf("failed to generate password: %w", err)
		}
	}

	hash, err := hashPassword(password)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	admin := &models.User{
		Username:     username,
		AuthProvider: "local",
		Email:        email,
		DisplayName:  "Administrator",
		Role:         string(models.RoleAdmin),
		Active:       true,
		PasswordHash: hash,
	}

	if err := s.CreateUser(ctx, admin); err != nil {
		return "", fmt.Errorf("failed to create admin user: %w", err)
	}

	if fromEnv {
		return "", nil
	}
	return password, nil
}

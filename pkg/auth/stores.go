package auth

import (
	"context"
	"time"

	"github.com/JyotirmoyBhowmik/PowerShellEndPointv2-sub001/pkg/platform/models"
)

// UserStore is the slice of the platform store the auth subsystem needs.
// Every operation is individually atomic; the auth flow never wraps them
// in a multi-statement transaction.
type UserStore interface {
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	CreateUser(ctx context.Context, user *models.User) error
	UpdateExternalIdentity(ctx context.Context, username, provider, externalID string) error
	IncrementFailedLogins(ctx context.Context, username string) error
	TouchLastLogin(ctx context.Context, username string, timestamp time.Time) error
}

// Sink receives audit events. It is write-only and fire-and-forget from
// the auth subsystem's perspective: a sink failure is logged, never
// surfaced to the caller.
type Sink interface {
	RecordAuditEvent(ctx context.Context, event *models.AuditEvent) error
}

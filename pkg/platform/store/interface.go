// Package store provides the platform persistence layer.
//
// This package implements the Store interface for managing platform data
// including users, endpoints, metric samples, and audit events.
//
// Two backends are supported:
//   - SQLite (single-node, default)
//   - PostgreSQL (HA-capable)
package store

import (
	"context"
	"time"

	"github.com/JyotirmoyBhowmik/PowerShellEndPointv2-sub001/pkg/platform/models"
)

// Store provides the platform persistence interface.
//
// Thread Safety: Implementations must be safe for concurrent use from
// multiple goroutines. Every operation is individually atomic; callers do
// not get multi-statement transactions.
type Store interface {
	// User operations. Each returns models.ErrUserNotFound when no row
	// matches; CreateUser returns models.ErrDuplicateUser on username
	// collision.
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	ListUsers(ctx context.Context) ([]*models.User, error)
	CreateUser(ctx context.Context, user *models.User) error
	UpdateExternalIdentity(ctx context.Context, username, provider, externalID string) error
	IncrementFailedLogins(ctx context.Context, username string) error
	TouchLastLogin(ctx context.Context, username string, timestamp time.Time) error
	SetUserActive(ctx context.Context, username string, active bool) error
	UpdateUserRole(ctx context.Context, username string, role models.UserRole) error
	UpdatePassword(ctx context.Context, username, passwordHash string) error

	// Endpoint and metric operations.
	GetEndpoint(ctx context.Context, id string) (*models.Endpoint, error)
	GetEndpointByHostname(ctx context.Context, hostname string) (*models.Endpoint, error)
	ListEndpoints(ctx context.Context) ([]*models.Endpoint, error)
	UpsertEndpoint(ctx context.Context, endpoint *models.Endpoint) (*models.Endpoint, error)
	InsertMetricSamples(ctx context.Context, samples []*models.MetricSample) error
	QueryMetricSamples(ctx context.Context, endpointID, name string, since, until time.Time) ([]*models.MetricSample, error)

	// Audit operations.
	RecordAuditEvent(ctx context.Context, event *models.AuditEvent) error
	ListAuditEvents(ctx context.Context, limit int) ([]*models.AuditEvent, error)
	PruneAuditEvents(ctx context.Context, olderThan time.Time) (int64, error)

	// Healthcheck pings the underlying database connection.
	Healthcheck(ctx context.Context) error

	// Close releases the underlying database connection.
	Close() error
}

// compile-time check
var _ Store = (*GORMStore)(nil)

package store

import (
	"context"
	"time"

	"github.com/JyotirmoyBhowmik/PowerShellEndPointv2-sub001/pkg/platform/models"
)

// ============================================
// AUDIT OPERATIONS
// ============================================

// RecordAuditEvent persists a single audit event. Callers treat the audit
// trail as a write-only sink; a persistence failure must never fail the
// operation being audited, so callers log and move on.
func (s *GORMStore) RecordAuditEvent(ctx context.Context, event *models.AuditEvent) error {
	return s.db.WithContext(ctx).Create(event).Error
}

// ListAuditEvents returns the most recent audit events, newest first.
func (s *GORMStore) ListAuditEvents(ctx context.Context, limit int) ([]*models.AuditEvent, error) {
	if limit <= 0 {
		limit = 100
	}
	var events []*models.AuditEvent
	if err := s.db.WithContext(ctx).Order("created_at DESC").Limit(limit).Find(&events).Error; err != nil {
		return nil, err
	}
	if events == nil {
		events = []*models.AuditEvent{}
	}
	return events, nil
}

// PruneAuditEvents deletes audit events older than the retention window.
func (s *GORMStore) PruneAuditEvents(ctx context.Context, olderThan time.Time) (int64, error) {
	result := s.db.WithContext(ctx).
		Where("created_at < ?", olderThan).
		Delete(&models.AuditEvent{})
	return result.RowsAffected, result.Error
}

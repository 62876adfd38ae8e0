package models

import "time"

// Audit risk levels, coarse by design. The auth subsystem only ever
// reports low (routine success) or medium (failed attempt); anything
// higher is assigned by consumers of the audit trail.
const (
	RiskLow    = "low"
	RiskMedium = "medium"
	RiskHigh   = "high"
)

// AuditEvent is a write-only record of a security-relevant action.
//
// Login attempts keep the provider-specific failure detail here while the
// API returns a single generic failure to the caller.
type AuditEvent struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Action    string    `gorm:"index;not null;size:100" json:"action"`
	Actor     string    `gorm:"index;size:255" json:"actor"`
	Outcome   string    `gorm:"not null;size:50" json:"outcome"`
	RiskLevel string    `gorm:"size:20" json:"risk_level"`
	Detail    string    `gorm:"size:1024" json:"detail,omitempty"`
	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

// TableName returns the table name for AuditEvent.
func (AuditEvent) TableName() string {
	return "audit_events"
}

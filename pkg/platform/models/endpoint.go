package models

import "time"

// Endpoint represents a monitored machine.
//
// Endpoints are registered implicitly: the first scan an agent pushes for a
// hostname creates the row, subsequent scans refresh LastSeen and the
// inventory fields.
type Endpoint struct {
	ID           string     `gorm:"primaryKey;size:36" json:"id"`
	Hostname     string     `gorm:"uniqueIndex;not null;size:255" json:"hostname"`
	Domain       string     `gorm:"size:255" json:"domain,omitempty"`
	OSCaption    string     `gorm:"size:255" json:"os_caption,omitempty"`
	OSVersion    string     `gorm:"size:100" json:"os_version,omitempty"`
	AgentVersion string     `gorm:"size:50" json:"agent_version,omitempty"`
	LastSeen     *time.Time `json:"last_seen,omitempty"`
	CreatedAt    time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

// TableName returns the table name for Endpoint.
func (Endpoint) TableName() string {
	return "endpoints"
}

// MetricSample is a single instrumentation reading collected from an
// endpoint (cpu_pct, mem_used_mb, disk_free_gb, uptime_s, ...).
type MetricSample struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	EndpointID  string    `gorm:"index;not null;size:36" json:"endpoint_id"`
	Name        string    `gorm:"index;not null;size:100" json:"name"`
	Value       float64   `gorm:"not null" json:"value"`
	CollectedAt time.Time `gorm:"index;not null" json:"collected_at"`
}

// TableName returns the table name for MetricSample.
func (MetricSample) TableName() string {
	return "metric_samples"
}

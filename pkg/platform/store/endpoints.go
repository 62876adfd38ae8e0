package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/JyotirmoyBhowmik/PowerShellEndPointv2-sub001/pkg/platform/models"
)

// ============================================
// ENDPOINT OPERATIONS
// ============================================

func (s *GORMStore) GetEndpoint(ctx context.Context, id string) (*models.Endpoint, error) {
	return getByField[models.Endpoint](s.db, ctx, "id", id, models.ErrEndpointNotFound)
}

func (s *GORMStore) GetEndpointByHostname(ctx context.Context, hostname string) (*models.Endpoint, error) {
	return getByField[models.Endpoint](s.db, ctx, "hostname", hostname, models.ErrEndpointNotFound)
}

func (s *GORMStore) ListEndpoints(ctx context.Context) ([]*models.Endpoint, error) {
	return listAll[models.Endpoint](s.db, ctx, "hostname ASC")
}

// UpsertEndpoint registers a scanned endpoint or refreshes its inventory
// fields and last-seen timestamp. Upsert keys on hostname so repeated agent
// scans never create duplicate rows.
func (s *GORMStore) UpsertEndpoint(ctx context.Context, endpoint *models.Endpoint) (*models.Endpoint, error) {
	now := time.Now()
	endpoint.LastSeen = &now

	existing, err := s.GetEndpointByHostname(ctx, endpoint.Hostname)
	if err == nil {
		updates := map[string]any{
			"last_seen": now,
		}
		if endpoint.Domain != "" {
			updates["domain"] = endpoint.Domain
		}
		if endpoint.OSCaption != "" {
			updates["os_caption"] = endpoint.OSCaption
		}
		if endpoint.OSVersion != "" {
			updates["os_version"] = endpoint.OSVersion
		}
		if endpoint.AgentVersion != "" {
			updates["agent_version"] = endpoint.AgentVersion
		}
		if err := s.db.WithContext(ctx).Model(existing).Updates(updates).Error; err != nil {
			return nil, err
		}
		return s.GetEndpoint(ctx, existing.ID)
	}

	if endpoint.ID == "" {
		endpoint.ID = uuid.New().String()
	}
	if err := s.db.WithContext(ctx).Create(endpoint).Error; err != nil {
		return nil, err
	}
	return endpoint, nil
}

// ============================================
// METRIC SAMPLE OPERATIONS
// ============================================

func (s *GORMStore) InsertMetricSamples(ctx context.Context, samples []*models.MetricSample) error {
	if len(samples) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Create(samples).Error
}

// QueryMetricSamples returns samples for an endpoint collected in
// [since, until), newest first. An empty name matches all metrics.
func (s *GORMStore) QueryMetricSamples(ctx context.Context, endpointID, name string, since, until time.Time) ([]*models.MetricSample, error) {
	q := s.db.WithContext(ctx).
		Where("endpoint_id = ? AND collected_at >= ? AND collected_at < ?", endpointID, since, until)
	if name != "" {
		q = q.Where("name = ?", name)
	}

	var samples []*models.MetricSample
	if err := q.Order("collected_at DESC").Find(&samples).Error; err != nil {
		return nil, err
	}
	if samples == nil {
		samples = []*models.MetricSample{}
	}
	return samples, nil
}

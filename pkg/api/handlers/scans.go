package handlers

import (
	"net/http"
	"time"

	"github.com/JyotirmoyBhowmik/PowerShellEndPointv2-sub001/internal/logger"
	"github.com/JyotirmoyBhowmik/PowerShellEndPointv2-sub001/pkg/platform/models"
	"github.com/JyotirmoyBhowmik/PowerShellEndPointv2-sub001/pkg/platform/store"
)

// ScanHandler handles scan report ingestion from monitoring agents.
type ScanHandler struct {
	store store.Store
}

// NewScanHandler creates a new ScanHandler.
func NewScanHandler(st store.Store) *ScanHandler {
	return &ScanHandler{store: st}
}

// ScanReport is the request body for POST /api/v1/scans.
//
// Agents push one report per collection cycle. The endpoint is registered
// on first sight and its inventory refreshed on every report.
type ScanReport struct {
	Hostname     string       `json:"hostname"`
	Domain       string       `json:"domain,omitempty"`
	OSCaption    string       `json:"os_caption,omitempty"`
	OSVersion    string       `json:"os_version,omitempty"`
	AgentVersion string       `json:"agent_version,omitempty"`
	CollectedAt  time.Time    `json:"collected_at,omitempty"`
	Metrics      []ScanMetric `json:"metrics"`
}

// ScanMetric is a single reading inside a scan report.
type ScanMetric struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// ScanResponse is the response body for POST /api/v1/scans.
type ScanResponse struct {
	EndpointID string `json:"endpoint_id"`
	Samples    int    `json:"samples"`
}

// Ingest handles POST /api/v1/scans.
func (h *ScanHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	var report ScanReport
	if !decodeJSONBody(w, r, &report) {
		return
	}

	if report.Hostname == "" {
		BadRequest(w, "Hostname is required")
		return
	}
	collectedAt := report.CollectedAt
	if collectedAt.IsZero() {
		collectedAt = time.Now()
	}

	endpoint, err := h.store.UpsertEndpoint(r.Context(), &models.Endpoint{
		Hostname:     report.Hostname,
		Domain:       report.Domain,
		OSCaption:    report.OSCaption,
		OSVersion:    report.OSVersion,
		AgentVersion: report.AgentVersion,
	})
	if err != nil {
		InternalServerError(w, "Failed to register endpoint")
		return
	}

	samples := make([]*models.MetricSample, 0, len(report.Metrics))
	for _, m := range report.Metrics {
		if m.Name == "" {
			continue
		}
		samples = append(samples, &models.MetricSample{
			EndpointID:  endpoint.ID,
			Name:        m.Name,
			Value:       m.Value,
			CollectedAt: collectedAt,
		})
	}
	if len(samples) > 0 {
		if err := h.store.InsertMetricSamples(r.Context(), samples); err != nil {
			InternalServerError(w, "Failed to store metric samples")
			return
		}
	}

	logger.DebugCtx(r.Context(), "scan ingested",
		"endpoint", report.Hostname, "samples", len(samples))

	WriteJSONCreated(w, ScanResponse{
		EndpointID: endpoint.ID,
		Samples:    len(samples),
	})
}

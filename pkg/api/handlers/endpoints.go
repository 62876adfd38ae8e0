package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/JyotirmoyBhowmik/PowerShellEndPointv2-sub001/pkg/platform/models"
	"github.com/JyotirmoyBhowmik/PowerShellEndPointv2-sub001/pkg/platform/store"
)

// EndpointHandler handles endpoint inventory and metric query endpoints.
type EndpointHandler struct {
	store store.Store
}

// NewEndpointHandler creates a new EndpointHandler.
func NewEndpointHandler(st store.Store) *EndpointHandler {
	return &EndpointHandler{store: st}
}

// List handles GET /api/v1/endpoints.
func (h *EndpointHandler) List(w http.ResponseWriter, r *http.Request) {
	endpoints, err := h.store.ListEndpoints(r.Context())
	if err != nil {
		InternalServerError(w, "Failed to list endpoints")
		return
	}
	WriteJSONOK(w, endpoints)
}

// Get handles GET /api/v1/endpoints/{id}.
func (h *EndpointHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	endpoint, err := h.store.GetEndpoint(r.Context(), id)
	if err != nil {
		if errors.Is(err, models.ErrEndpointNotFound) {
			NotFound(w, "Endpoint not found")
			return
		}
		InternalServerError(w, "Failed to get endpoint")
		return
	}
	WriteJSONOK(w, endpoint)
}

// Metrics handles GET /api/v1/endpoints/{id}/metrics.
//
// Query parameters:
//   - name: metric name filter (optional)
//   - since, until: RFC 3339 time bounds (optional; since defaults to 24h ago)
func (h *EndpointHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if _, err := h.store.GetEndpoint(r.Context(), id); err != nil {
		if errors.Is(err, models.ErrEndpointNotFound) {
			NotFound(w, "Endpoint not found")
			return
		}
		InternalServerError(w, "Failed to get endpoint")
		return
	}

	name := r.URL.Query().Get("name")

	since := time.Now().Add(-24 * time.Hour)
	if raw := r.URL.Query().Get("since"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			BadRequest(w, "Invalid 'since' timestamp, expected RFC 3339")
			return
		}
		since = parsed
	}

	until := time.Now()
	if raw := r.URL.Query().Get("until"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			BadRequest(w, "Invalid 'until' timestamp, expected RFC 3339")
			return
		}
		until = parsed
	}

	samples, err := h.store.QueryMetricSamples(r.Context(), id, name, since, until)
	if err != nil {
		InternalServerError(w, "Failed to query metric samples")
		return
	}
	WriteJSONOK(w, samples)
}

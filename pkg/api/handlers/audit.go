package handlers

import (
	"net/http"
	"strconv"

	"github.com/JyotirmoyBhowmik/PowerShellEndPointv2-sub001/pkg/platform/store"
)

// AuditHandler exposes the audit trail to administrators.
type AuditHandler struct {
	store store.Store
}

// NewAuditHandler creates a new AuditHandler.
func NewAuditHandler(st store.Store) *AuditHandler {
	return &AuditHandler{store: st}
}

// List handles GET /api/v1/audit.
//
// Query parameters:
//   - limit: maximum number of events, newest first (default 100, max 1000)
func (h *AuditHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			BadRequest(w, "Invalid 'limit' parameter")
			return
		}
		if parsed > 1000 {
			parsed = 1000
		}
		limit = parsed
	}

	events, err := h.store.ListAuditEvents(r.Context(), limit)
	if err != nil {
		InternalServerError(w, "Failed to list audit events")
		return
	}
	WriteJSONOK(w, events)
}

package api

import (
	"net/http"
	"strings"

	"github.com/erazemk/kristalball/internal/inventory"
)

// ReportsHandler serves the read-only summaries and the audit log.
type ReportsHandler struct {
	Inventory *inventory.Service
}

// ListInventory handles GET /api/inventory.
func (h *ReportsHandler) ListInventory(w http.ResponseWriter, r *http.Request) {
	baseID, err := queryID(r, "base_id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	items, err := h.Inventory.Inventory(r.Context(), GetPrincipal(r.Context()), baseID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	listResponse(w, r, items)
}

// Dashboard handles GET /api/dashboard/metrics.
func (h *ReportsHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	baseID, err := queryID(r, "base_id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	q := r.URL.Query()

	m, err := h.Inventory.DashboardMetrics(r.Context(), GetPrincipal(r.Context()), inventory.MetricsQuery{
		BaseID:    baseID,
		StartDate: strings.TrimSpace(q.Get("start_date")),
		EndDate:   strings.TrimSpace(q.Get("end_date")),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, r, http.StatusOK, m)
}

// Audit handles GET /api/audit.
func (h *ReportsHandler) Audit(w http.ResponseWriter, r *http.Request) {
	entityID, err := queryID(r, "entity_id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	userID, err := queryID(r, "user_id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	limit, err := queryInt(r, "limit", 0, 0, 5000)
	if err != nil {
		writeError(w, r, err)
		return
	}

	entries, err := h.Inventory.ListAudit(r.Context(), GetPrincipal(r.Context()), inventory.AuditQuery{
		EntityType: strings.TrimSpace(r.URL.Query().Get("entity_type")),
		EntityID:   valueOr(entityID),
		UserID:     valueOr(userID),
		Limit:      limit,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	listResponse(w, r, entries)
}

// AssetDistribution handles GET /api/dashboard/asset-distribution.
func (h *ReportsHandler) AssetDistribution(w http.ResponseWriter, r *http.Request) {
	baseID, err := queryID(r, "base_id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	dist, err := h.Inventory.AssetDistribution(r.Context(), GetPrincipal(r.Context()), baseID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	listResponse(w, r, dist)
}

// Activities handles GET /api/dashboard/activities.
func (h *ReportsHandler) Activities(w http.ResponseWriter, r *http.Request) {
	baseID, err := queryID(r, "base_id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	limit, err := queryInt(r, "limit", inventory.DefaultActivityLimit, 1, 100)
	if err != nil {
		writeError(w, r, err)
		return
	}

	activities, err := h.Inventory.RecentActivities(r.Context(), GetPrincipal(r.Context()), baseID, limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	listResponse(w, r, activities)
}

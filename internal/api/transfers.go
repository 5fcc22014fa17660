package api

import (
	"net/http"

	"github.com/erazemk/kristalball/internal/inventory"
)

// LedgerHandler serves purchases, transfers, assignments and expenditures.
type LedgerHandler struct {
	Inventory *inventory.Service
}

// ListTransfers handles GET /api/transfers.
func (h *LedgerHandler) ListTransfers(w http.ResponseWriter, r *http.Request) {
	q, err := listQuery(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	transfers, err := h.Inventory.ListTransfers(r.Context(), GetPrincipal(r.Context()), q)
	if err != nil {
		writeError(w, r, err)
		return
	}
	listResponse(w, r, transfers)
}

// ListAssignments handles GET /api/assignments.
func (h *LedgerHandler) ListAssignments(w http.ResponseWriter, r *http.Request) {
	q, err := listQuery(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	personnelID, err := queryID(r, "personnel_id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	assignments, err := h.Inventory.ListAssignments(r.Context(), GetPrincipal(r.Context()), q, valueOr(personnelID))
	if err != nil {
		writeError(w, r, err)
		return
	}
	listResponse(w, r, assignments)
}

// ListPurchases handles GET /api/purchases.
func (h *LedgerHandler) ListPurchases(w http.ResponseWriter, r *http.Request) {
	q, err := listQuery(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	purchases, err := h.Inventory.ListPurchases(r.Context(), GetPrincipal(r.Context()), q)
	if err != nil {
		writeError(w, r, err)
		return
	}
	listResponse(w, r, purchases)
}

// ListExpenditures handles GET /api/expenditures.
func (h *LedgerHandler) ListExpenditures(w http.ResponseWriter, r *http.Request) {
	q, err := listQuery(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	expenditures, err := h.Inventory.ListExpenditures(r.Context(), GetPrincipal(r.Context()), q)
	if err != nil {
		writeError(w, r, err)
		return
	}
	listResponse(w, r, expenditures)
}

// PurchaseSummary handles GET /api/purchases/stats/summary.
func (h *LedgerHandler) PurchaseSummary(w http.ResponseWriter, r *http.Request) {
	q, err := listQuery(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	summary, err := h.Inventory.PurchaseSummary(r.Context(), GetPrincipal(r.Context()), q)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, r, http.StatusOK, summary)
}

// ListMaintenance handles GET /api/maintenance.
func (h *LedgerHandler) ListMaintenance(w http.ResponseWriter, r *http.Request) {
	q, err := listQuery(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	records, err := h.Inventory.ListMaintenance(r.Context(), GetPrincipal(r.Context()), q)
	if err != nil {
		writeError(w, r, err)
		return
	}
	listResponse(w, r, records)
}

// AssetMaintenance handles GET /api/maintenance/asset/{id}.
func (h *LedgerHandler) AssetMaintenance(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	records, err := h.Inventory.AssetMaintenance(r.Context(), GetPrincipal(r.Context()), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	listResponse(w, r, records)
}

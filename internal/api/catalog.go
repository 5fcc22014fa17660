package api

import (
	"net/http"
	"strings"

	"github.com/erazemk/kristalball/internal/inventory"
)

// CatalogHandler serves bases, asset types, assets and personnel.
type CatalogHandler struct {
	Inventory *inventory.Service
}

// listQuery reads the common list filters.
func listQuery(r *http.Request) (inventory.ListQuery, error) {
	baseID, err := queryID(r, "base_id")
	if err != nil {
		return inventory.ListQuery{}, err
	}
	assetID, err := queryID(r, "asset_id")
	if err != nil {
		return inventory.ListQuery{}, err
	}
	q := r.URL.Query()
	return inventory.ListQuery{
		BaseID:    baseID,
		AssetID:   assetID,
		Status:    strings.TrimSpace(q.Get("status")),
		StartDate: strings.TrimSpace(q.Get("start_date")),
		EndDate:   strings.TrimSpace(q.Get("end_date")),
	}, nil
}

// ListBases handles GET /api/bases.
func (h *CatalogHandler) ListBases(w http.ResponseWriter, r *http.Request) {
	bases, err := h.Inventory.ListBases(r.Context(), GetPrincipal(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	listResponse(w, r, bases)
}

// ListAssetTypes handles GET /api/asset-types.
func (h *CatalogHandler) ListAssetTypes(w http.ResponseWriter, r *http.Request) {
	types, err := h.Inventory.ListAssetTypes(r.Context(), GetPrincipal(r.Context()), strings.TrimSpace(r.URL.Query().Get("category")))
	if err != nil {
		writeError(w, r, err)
		return
	}
	listResponse(w, r, types)
}

// ListAssets handles GET /api/assets.
func (h *CatalogHandler) ListAssets(w http.ResponseWriter, r *http.Request) {
	q, err := listQuery(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	typeID, err := queryID(r, "asset_type_id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	assets, err := h.Inventory.ListAssets(r.Context(), GetPrincipal(r.Context()), q, valueOr(typeID))
	if err != nil {
		writeError(w, r, err)
		return
	}
	listResponse(w, r, assets)
}

// ListPersonnel handles GET /api/personnel.
func (h *CatalogHandler) ListPersonnel(w http.ResponseWriter, r *http.Request) {
	q, err := listQuery(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	personnel, err := h.Inventory.ListPersonnel(r.Context(), GetPrincipal(r.Context()), q)
	if err != nil {
		writeError(w, r, err)
		return
	}
	listResponse(w, r, personnel)
}

// BaseAssets handles GET /api/bases/{id}/assets, the asset list of one base.
func (h *CatalogHandler) BaseAssets(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	q, err := listQuery(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	q.BaseID = &id

	assets, err := h.Inventory.ListAssets(r.Context(), GetPrincipal(r.Context()), q, 0)
	if err != nil {
		writeError(w, r, err)
		return
	}
	listResponse(w, r, assets)
}

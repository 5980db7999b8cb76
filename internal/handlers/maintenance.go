package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/assettrack/apiserver/internal/services"
	"github.com/assettrack/apiserver/types"
)

// MaintenanceHandler provides HTTP handlers for maintenance records.
type MaintenanceHandler struct {
	maintenanceService *services.MaintenanceService
	errors             ErrorPolicy
}

func NewMaintenanceHandler(maintenanceService *services.MaintenanceService, policy ErrorPolicy) *MaintenanceHandler {
	return &MaintenanceHandler{maintenanceService: maintenanceService, errors: policy}
}

// AssetMaintenanceRouter registers the routes nested under one asset. The
// router must carry the {assetID} parameter.
func AssetMaintenanceRouter(r chi.Router, handler *MaintenanceHandler) {
	r.Get("/", handler.ListForAsset)
	r.Post("/", handler.Create)
}

// MaintenanceRouter registers routes addressing a record directly.
func MaintenanceRouter(r chi.Router, handler *MaintenanceHandler) {
	r.Get("/{maintenanceID}", handler.Get)
	r.Put("/{maintenanceID}", handler.Update)
	r.Delete("/{maintenanceID}", handler.Delete)
}

func (h *MaintenanceHandler) ListForAsset(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	assetID, err := parseUUIDParam(r, "assetID")
	if err != nil {
		h.errors.Write(w, r, err)
		return
	}
	views, err := h.maintenanceService.ListForAsset(r.Context(), identity.ID, assetID)
	if err != nil {
		h.errors.Write(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *MaintenanceHandler) Create(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	assetID, err := parseUUIDParam(r, "assetID")
	if err != nil {
		h.errors.Write(w, r, err)
		return
	}
	var req types.MaintenanceInput
	if err := decodeJSON(w, r, &req); err != nil {
		h.errors.Write(w, r, err)
		return
	}
	view, err := h.maintenanceService.Create(r.Context(), identity.ID, assetID, req)
	if err != nil {
		h.errors.Write(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

func (h *MaintenanceHandler) Get(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	id, err := parseUUIDParam(r, "maintenanceID")
	if err != nil {
		h.errors.Write(w, r, err)
		return
	}
	view, err := h.maintenanceService.Get(r.Context(), identity.ID, id)
	if err != nil {
		h.errors.Write(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *MaintenanceHandler) Update(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	id, err := parseUUIDParam(r, "maintenanceID")
	if err != nil {
		h.errors.Write(w, r, err)
		return
	}
	var patch types.MaintenancePatch
	if err := decodeJSON(w, r, &patch); err != nil {
		h.errors.Write(w, r, err)
		return
	}
	view, err := h.maintenanceService.Update(r.Context(), identity.ID, id, patch)
	if err != nil {
		h.errors.Write(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *MaintenanceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	id, err := parseUUIDParam(r, "maintenanceID")
	if err != nil {
		h.errors.Write(w, r, err)
		return
	}
	if err := h.maintenanceService.Delete(r.Context(), identity.ID, id); err != nil {
		h.errors.Write(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/assettrack/apiserver/internal/services"
	"github.com/assettrack/apiserver/types"
)

// AssetHandler provides HTTP handlers for assets.
type AssetHandler struct {
	assetService *services.AssetService
	errors       ErrorPolicy
}

func NewAssetHandler(assetService *services.AssetService, policy ErrorPolicy) *AssetHandler {
	return &AssetHandler{assetService: assetService, errors: policy}
}

// AssetRouter registers asset routes on the given router. Callers must
// install RequireAuth first.
func AssetRouter(r chi.Router, handler *AssetHandler) {
	r.Get("/", handler.ListAssets)
	r.Post("/", handler.CreateAsset)
	r.Get("/{assetID}", handler.GetAsset)
	r.Put("/{assetID}", handler.UpdateAsset)
	r.Delete("/{assetID}", handler.DeleteAsset)
}

func (h *AssetHandler) ListAssets(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	assets, err := h.assetService.ListByOwner(r.Context(), identity.ID)
	if err != nil {
		h.errors.Write(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, assets)
}

func (h *AssetHandler) CreateAsset(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	var req types.AssetInput
	if err := decodeJSON(w, r, &req); err != nil {
		h.errors.Write(w, r, err)
		return
	}
	asset, err := h.assetService.Create(r.Context(), identity.ID, req)
	if err != nil {
		h.errors.Write(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, asset)
}

func (h *AssetHandler) GetAsset(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	id, err := parseUUIDParam(r, "assetID")
	if err != nil {
		h.errors.Write(w, r, err)
		return
	}
	asset, err := h.assetService.Get(r.Context(), identity.ID, id)
	if err != nil {
		h.errors.Write(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, asset)
}

func (h *AssetHandler) UpdateAsset(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	id, err := parseUUIDParam(r, "assetID")
	if err != nil {
		h.errors.Write(w, r, err)
		return
	}
	var patch types.AssetPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		h.errors.Write(w, r, err)
		return
	}
	asset, err := h.assetService.Update(r.Context(), identity.ID, id, patch)
	if err != nil {
		h.errors.Write(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, asset)
}

func (h *AssetHandler) DeleteAsset(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	id, err := parseUUIDParam(r, "assetID")
	if err != nil {
		h.errors.Write(w, r, err)
		return
	}
	if err := h.assetService.Delete(r.Context(), identity.ID, id); err != nil {
		h.errors.Write(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func requireIdentity(w http.ResponseWriter, r *http.Request) (types.Identity, bool) {
	identity, ok := IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
	}
	return identity, ok
}

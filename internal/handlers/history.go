package handlers

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/assettrack/apiserver/internal/services"
)

// HistoryHandler serves asset histories and their stored exports.
type HistoryHandler struct {
	historyService *services.HistoryService
	errors         ErrorPolicy
}

func NewHistoryHandler(historyService *services.HistoryService, policy ErrorPolicy) *HistoryHandler {
	return &HistoryHandler{historyService: historyService, errors: policy}
}

// HistoryRouter registers the routes nested under one asset's history. The
// router must carry the {assetID} parameter.
func HistoryRouter(r chi.Router, handler *HistoryHandler) {
	r.Get("/", handler.Get)
	r.Route("/exports", func(r chi.Router) {
		r.Get("/", handler.ListExports)
		r.Post("/", handler.Export)
		r.Get("/{name}", handler.Download)
	})
}

func (h *HistoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	assetID, err := parseUUIDParam(r, "assetID")
	if err != nil {
		h.errors.Write(w, r, err)
		return
	}
	history, err := h.historyService.Build(r.Context(), identity.ID, assetID)
	if err != nil {
		h.errors.Write(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, history)
}

func (h *HistoryHandler) Export(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	assetID, err := parseUUIDParam(r, "assetID")
	if err != nil {
		h.errors.Write(w, r, err)
		return
	}
	export, err := h.historyService.Export(r.Context(), identity.ID, assetID)
	if err != nil {
		h.errors.Write(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, export)
}

func (h *HistoryHandler) ListExports(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	assetID, err := parseUUIDParam(r, "assetID")
	if err != nil {
		h.errors.Write(w, r, err)
		return
	}
	exports, err := h.historyService.ListExports(r.Context(), identity.ID, assetID)
	if err != nil {
		h.errors.Write(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, exports)
}

func (h *HistoryHandler) Download(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	assetID, err := parseUUIDParam(r, "assetID")
	if err != nil {
		h.errors.Write(w, r, err)
		return
	}
	name := chi.URLParam(r, "name")
	reader, err := h.historyService.OpenExport(r.Context(), identity.ID, assetID, name)
	if err != nil {
		h.errors.Write(w, r, err)
		return
	}
	defer reader.Close()

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = io.Copy(w, reader)
}

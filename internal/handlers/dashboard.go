package handlers

import (
	"net/http"

	"github.com/assettrack/apiserver/internal/services"
	"github.com/assettrack/apiserver/types"
)

// DashboardHandler serves the pending maintenance overview.
type DashboardHandler struct {
	dashboardService *services.DashboardService
	errors           ErrorPolicy
}

func NewDashboardHandler(dashboardService *services.DashboardService, policy ErrorPolicy) *DashboardHandler {
	return &DashboardHandler{dashboardService: dashboardService, errors: policy}
}

// Get answers GET /dashboard?sort=urgency|name_asc|name_desc.
func (h *DashboardHandler) Get(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	mode, err := types.ParseDashboardSort(r.URL.Query().Get("sort"))
	if err != nil {
		h.errors.Write(w, r, &services.ValidationError{Field: "sort", Message: err.Error()})
		return
	}
	items, err := h.dashboardService.Build(r.Context(), identity.ID, mode)
	if err != nil {
		h.errors.Write(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

package handlers

import (
	"net/http"

	"github.com/ternarybob/arbor"
)

// DashboardHandler serves the market dashboard bundle.
type DashboardHandler struct {
	dashboard DashboardService
	logger    arbor.ILogger
}

// NewDashboardHandler creates a dashboard handler.
func NewDashboardHandler(dashboardSvc DashboardService, logger arbor.ILogger) *DashboardHandler {
	return &DashboardHandler{
		dashboard: dashboardSvc,
		logger:    logger,
	}
}

// HandleDashboard handles GET /api/dashboard. The service degrades to
// stale or empty data itself, so this only fails on internal errors.
func (h *DashboardHandler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	bundle, err := h.dashboard.Fetch(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("Dashboard fetch failed")
		WriteError(w, http.StatusInternalServerError, "dashboard fetch failed")
		return
	}

	WriteJSON(w, http.StatusOK, bundle)
}

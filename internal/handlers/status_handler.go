package handlers

import (
	"net/http"
	"time"

	"github.com/stockwinner/stockwinner/internal/common"
	"github.com/ternarybob/arbor"
)

// StatusHandler serves health and version endpoints.
type StatusHandler struct {
	logger    arbor.ILogger
	startedAt time.Time
}

// NewStatusHandler creates a status handler.
func NewStatusHandler(logger arbor.ILogger) *StatusHandler {
	return &StatusHandler{
		logger:    logger,
		startedAt: time.Now(),
	}
}

// HandleHealth handles GET /api/health.
func (h *StatusHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"uptime": time.Since(h.startedAt).String(),
	})
}

// HandleVersion handles GET /api/version.
func (h *StatusHandler) HandleVersion(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{
		"version": common.GetVersion(),
		"build":   common.Build,
		"commit":  common.GitCommit,
	})
}

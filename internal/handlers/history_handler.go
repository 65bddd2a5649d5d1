package handlers

import (
	"net/http"

	"github.com/ternarybob/arbor"
)

// HistoryHandler serves search history and session endpoints.
type HistoryHandler struct {
	history HistoryService
	logger  arbor.ILogger
}

// NewHistoryHandler creates a history handler.
func NewHistoryHandler(historySvc HistoryService, logger arbor.ILogger) *HistoryHandler {
	return &HistoryHandler{
		history: historySvc,
		logger:  logger,
	}
}

// HandleHistory handles GET and DELETE on /api/history.
func (h *HistoryHandler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		entries, err := h.history.List(r.Context())
		if err != nil {
			h.logger.Error().Err(err).Msg("Failed to list search history")
			WriteError(w, http.StatusInternalServerError, "failed to list history")
			return
		}
		WriteJSON(w, http.StatusOK, entries)

	case http.MethodDelete:
		if err := h.history.Clear(r.Context()); err != nil {
			h.logger.Error().Err(err).Msg("Failed to clear search history")
			WriteError(w, http.StatusInternalServerError, "failed to clear history")
			return
		}
		WriteSuccess(w, "history cleared")

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// HandleSession handles GET and DELETE on /api/session. GET restores
// the last analysis for the UI reload path; 404 when none is saved.
func (h *HistoryHandler) HandleSession(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		result, ok, err := h.history.Session(r.Context())
		if err != nil {
			h.logger.Error().Err(err).Msg("Failed to load session")
			WriteError(w, http.StatusInternalServerError, "failed to load session")
			return
		}
		if !ok {
			WriteError(w, http.StatusNotFound, "no saved session")
			return
		}
		WriteJSON(w, http.StatusOK, result)

	case http.MethodDelete:
		if err := h.history.ClearSession(r.Context()); err != nil {
			h.logger.Error().Err(err).Msg("Failed to clear session")
			WriteError(w, http.StatusInternalServerError, "failed to clear session")
			return
		}
		WriteSuccess(w, "session cleared")

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

package handlers

import (
	"net/http"
	"strconv"

	"github.com/ternarybob/arbor"
)

// SuggestHandler serves local symbol autocomplete.
type SuggestHandler struct {
	suggest SuggestService
	logger  arbor.ILogger
}

// NewSuggestHandler creates a suggest handler.
func NewSuggestHandler(suggestSvc SuggestService, logger arbor.ILogger) *SuggestHandler {
	return &SuggestHandler{
		suggest: suggestSvc,
		logger:  logger,
	}
}

// HandleSuggest handles GET /api/suggest?q=&limit=.
func (h *SuggestHandler) HandleSuggest(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			limit = parsed
		}
	}

	results := h.suggest.Search(r.URL.Query().Get("q"), limit)
	WriteJSON(w, http.StatusOK, results)
}

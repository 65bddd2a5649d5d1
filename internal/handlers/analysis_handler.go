package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/stockwinner/stockwinner/internal/common"
	"github.com/stockwinner/stockwinner/internal/models"
	"github.com/stockwinner/stockwinner/internal/services/analysis"
	"github.com/ternarybob/arbor"
)

// AnalysisHandler serves per-stock analysis requests.
type AnalysisHandler struct {
	analysis AnalysisService
	history  HistoryService
	tracker  RefreshTracker
	logger   arbor.ILogger
}

// NewAnalysisHandler creates an analysis handler.
func NewAnalysisHandler(analysisSvc AnalysisService, historySvc HistoryService, tracker RefreshTracker, logger arbor.ILogger) *AnalysisHandler {
	return &AnalysisHandler{
		analysis: analysisSvc,
		history:  historySvc,
		tracker:  tracker,
		logger:   logger,
	}
}

// HandleAnalyze handles GET /api/analysis?query=&mode=&background=.
// A foreground request records history, saves the session and marks
// the pair for background refresh; a background request only returns
// the regenerated result.
func (h *AnalysisHandler) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	query := r.URL.Query().Get("query")
	mode, err := models.ParseAnalysisMode(r.URL.Query().Get("mode"))
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	background, _ := strconv.ParseBool(r.URL.Query().Get("background"))

	var result *models.AnalysisResult
	if background {
		result, err = h.analysis.Refresh(r.Context(), query, mode)
	} else {
		result, err = h.analysis.Analyze(r.Context(), query, mode)
	}
	if err != nil {
		if errors.Is(err, analysis.ErrEmptyQuery) {
			WriteError(w, http.StatusBadRequest, "query is required")
			return
		}
		h.logger.Error().Str("query", query).Str("mode", string(mode)).Err(err).Msg("Analysis failed")
		WriteError(w, http.StatusBadGateway, "analysis failed: "+err.Error())
		return
	}

	if !background {
		h.recordSideEffects(r, result, mode)
	}

	WriteJSON(w, http.StatusOK, result)
}

// recordSideEffects updates history, session and the refresh target.
// Failures here never fail the request.
func (h *AnalysisHandler) recordSideEffects(r *http.Request, result *models.AnalysisResult, mode models.AnalysisMode) {
	symbol := common.NormalizeSymbol(result.Symbol)

	entry := models.HistoryEntry{
		Symbol:        symbol,
		Name:          result.Name,
		Price:         result.CurrentPrice,
		ChangePercent: result.ChangePercent,
		Mode:          mode,
	}
	if err := h.history.Record(r.Context(), entry); err != nil {
		h.logger.Warn().Str("symbol", symbol).Err(err).Msg("Failed to record search history")
	}

	if err := h.history.SaveSession(r.Context(), result); err != nil {
		h.logger.Warn().Str("symbol", symbol).Err(err).Msg("Failed to save session")
	}

	if h.tracker != nil {
		h.tracker.Track(symbol, mode)
	}
}

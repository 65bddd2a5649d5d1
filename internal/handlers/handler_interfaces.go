package handlers

import (
	"context"

	"github.com/stockwinner/stockwinner/internal/models"
)

// AnalysisService produces stock analyses.
type AnalysisService interface {
	Analyze(ctx context.Context, query string, mode models.AnalysisMode) (*models.AnalysisResult, error)
	Refresh(ctx context.Context, query string, mode models.AnalysisMode) (*models.AnalysisResult, error)
}

// DashboardService fetches the market dashboard bundle.
type DashboardService interface {
	Fetch(ctx context.Context) (*models.DashboardBundle, error)
}

// SuggestService answers local autocomplete queries.
type SuggestService interface {
	Search(query string, limit int) []models.SymbolInfo
}

// HistoryService manages search history and the restorable session.
type HistoryService interface {
	Record(ctx context.Context, entry models.HistoryEntry) error
	List(ctx context.Context) ([]models.HistoryEntry, error)
	Clear(ctx context.Context) error
	SaveSession(ctx context.Context, result *models.AnalysisResult) error
	Session(ctx context.Context) (*models.AnalysisResult, bool, error)
	ClearSession(ctx context.Context) error
}

// RefreshTracker marks the analysis pair targeted by background refresh.
type RefreshTracker interface {
	Track(symbol string, mode models.AnalysisMode)
}

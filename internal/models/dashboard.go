package models

import "time"

// StockPreview is a compact stock entry used in ranked lists,
// strategy groups and search history.
type StockPreview struct {
	Symbol        string `json:"symbol"`
	Name          string `json:"name"`
	Price         string `json:"price"`
	ChangePercent string `json:"changePercent"`
	Reason        string `json:"reason"`
}

// StrategyGroup is a themed stock selection produced by the model.
type StrategyGroup struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Source      string         `json:"source"`
	Stocks      []StockPreview `json:"stocks"`
}

// DashboardData is the full market dashboard payload: five ranked
// lists plus strategy groups.
type DashboardData struct {
	Trending    []StockPreview  `json:"trending"`
	Fundamental []StockPreview  `json:"fundamental"`
	Technical   []StockPreview  `json:"technical"`
	Chips       []StockPreview  `json:"chips"`
	Dividend    []StockPreview  `json:"dividend"`
	Strategies  []StrategyGroup `json:"strategies"`
}

// Normalize replaces nil slices with empty ones so the JSON payload
// always carries arrays.
func (d *DashboardData) Normalize() {
	if d.Trending == nil {
		d.Trending = []StockPreview{}
	}
	if d.Fundamental == nil {
		d.Fundamental = []StockPreview{}
	}
	if d.Technical == nil {
		d.Technical = []StockPreview{}
	}
	if d.Chips == nil {
		d.Chips = []StockPreview{}
	}
	if d.Dividend == nil {
		d.Dividend = []StockPreview{}
	}
	if d.Strategies == nil {
		d.Strategies = []StrategyGroup{}
	}
}

// EmptyDashboardData returns a dashboard with all lists present but empty.
func EmptyDashboardData() *DashboardData {
	d := &DashboardData{}
	d.Normalize()
	return d
}

// Freshness tags a dashboard bundle with how it was obtained.
type Freshness string

const (
	// FreshnessFresh means the bundle came from a successful fetch or a
	// cache entry inside its freshness window.
	FreshnessFresh Freshness = "fresh"
	// FreshnessStale means the fetch failed and an expired cache entry
	// was served instead.
	FreshnessStale Freshness = "stale_fallback"
	// FreshnessEmpty means the fetch failed and no cache entry existed.
	FreshnessEmpty Freshness = "empty"
)

// DashboardBundle is the dashboard payload plus provenance metadata.
type DashboardBundle struct {
	Data      *DashboardData `json:"data"`
	Freshness Freshness      `json:"freshness"`
	FetchedAt time.Time      `json:"fetchedAt"`
}

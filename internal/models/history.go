package models

import "time"

// HistoryEntry is one item in the bounded search history.
type HistoryEntry struct {
	ID            string       `json:"id"`
	Symbol        string       `json:"symbol"`
	Name          string       `json:"name"`
	Price         string       `json:"price"`
	ChangePercent string       `json:"changePercent"`
	Mode          AnalysisMode `json:"mode"`
	SearchedAt    time.Time    `json:"searchedAt"`
}

// RefreshEvent is pushed to connected clients when a background
// refresh completes.
type RefreshEvent struct {
	Type   string    `json:"type"`
	Symbol string    `json:"symbol,omitempty"`
	Mode   string    `json:"mode,omitempty"`
	At     time.Time `json:"at"`
}

// SymbolInfo is one entry of the built-in autocomplete symbol list.
type SymbolInfo struct {
	Code   string `json:"code"`
	Name   string `json:"name"`
	Sector string `json:"sector"`
}

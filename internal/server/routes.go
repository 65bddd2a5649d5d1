package server

import "net/http"

// setupRoutes wires the HTTP API.
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()
	h := s.app.Handlers

	// Analysis + dashboard
	mux.HandleFunc("/api/analysis", h.Analysis.HandleAnalyze)
	mux.HandleFunc("/api/dashboard", h.Dashboard.HandleDashboard)

	// Local autocomplete
	mux.HandleFunc("/api/suggest", h.Suggest.HandleSuggest)

	// History + session restore
	mux.HandleFunc("/api/history", h.History.HandleHistory)
	mux.HandleFunc("/api/session", h.History.HandleSession)

	// Refresh event push
	mux.HandleFunc("/ws", h.Socket.HandleWebSocket)

	// Status
	mux.HandleFunc("/api/health", h.Status.HandleHealth)
	mux.HandleFunc("/api/version", h.Status.HandleVersion)

	return mux
}

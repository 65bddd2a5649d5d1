package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ternarybob/arbor"

	"github.com/stockwinner/stockwinner/internal/models"
	"github.com/stockwinner/stockwinner/internal/services/analysis"
)

// stubAnalysis records calls and returns a canned result.
type stubAnalysis struct {
	analyzeCalls int
	refreshCalls int
	lastQuery    string
	lastMode     models.AnalysisMode
	result       *models.AnalysisResult
	err          error
}

func (s *stubAnalysis) Analyze(ctx context.Context, query string, mode models.AnalysisMode) (*models.AnalysisResult, error) {
	s.analyzeCalls++
	s.lastQuery = query
	s.lastMode = mode
	return s.result, s.err
}

func (s *stubAnalysis) Refresh(ctx context.Context, query string, mode models.AnalysisMode) (*models.AnalysisResult, error) {
	s.refreshCalls++
	s.lastQuery = query
	s.lastMode = mode
	return s.result, s.err
}

// stubHistory records side-effect calls.
type stubHistory struct {
	recorded     []models.HistoryEntry
	savedSession *models.AnalysisResult
	session      *models.AnalysisResult
	listResult   []models.HistoryEntry
	cleared      bool
	sessionGone  bool
}

func (s *stubHistory) Record(ctx context.Context, entry models.HistoryEntry) error {
	s.recorded = append(s.recorded, entry)
	return nil
}

func (s *stubHistory) List(ctx context.Context) ([]models.HistoryEntry, error) {
	if s.listResult == nil {
		return []models.HistoryEntry{}, nil
	}
	return s.listResult, nil
}

func (s *stubHistory) Clear(ctx context.Context) error {
	s.cleared = true
	return nil
}

func (s *stubHistory) SaveSession(ctx context.Context, result *models.AnalysisResult) error {
	s.savedSession = result
	return nil
}

func (s *stubHistory) Session(ctx context.Context) (*models.AnalysisResult, bool, error) {
	if s.session == nil {
		return nil, false, nil
	}
	return s.session, true, nil
}

func (s *stubHistory) ClearSession(ctx context.Context) error {
	s.sessionGone = true
	return nil
}

// stubTracker records the tracked refresh target.
type stubTracker struct {
	symbol string
	mode   models.AnalysisMode
}

func (s *stubTracker) Track(symbol string, mode models.AnalysisMode) {
	s.symbol = symbol
	s.mode = mode
}

func sampleResult() *models.AnalysisResult {
	return &models.AnalysisResult{
		Symbol:        "2330",
		Name:          "台積電",
		CurrentPrice:  "1000",
		ChangePercent: "+1.2%",
		OverallScore:  85,
	}
}

func TestHandleAnalyze_Success(t *testing.T) {
	svc := &stubAnalysis{result: sampleResult()}
	history := &stubHistory{}
	tracker := &stubTracker{}
	handler := NewAnalysisHandler(svc, history, tracker, arbor.NewLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/analysis?query=2330&mode=flash", nil)
	rec := httptest.NewRecorder()
	handler.HandleAnalyze(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body %s", rec.Code, rec.Body.String())
	}

	var result models.AnalysisResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("response not valid JSON: %v", err)
	}
	if result.Symbol != "2330" {
		t.Errorf("symbol = %s, want 2330", result.Symbol)
	}

	if svc.analyzeCalls != 1 || svc.refreshCalls != 0 {
		t.Errorf("calls = analyze %d refresh %d, want 1/0", svc.analyzeCalls, svc.refreshCalls)
	}
	if len(history.recorded) != 1 {
		t.Fatalf("history entries = %d, want 1", len(history.recorded))
	}
	if history.recorded[0].Symbol != "2330" || history.recorded[0].Mode != models.ModeFlash {
		t.Errorf("history entry = %+v", history.recorded[0])
	}
	if history.savedSession == nil {
		t.Error("session not saved")
	}
	if tracker.symbol != "2330" || tracker.mode != models.ModeFlash {
		t.Errorf("tracked = %s/%s, want 2330/flash", tracker.symbol, tracker.mode)
	}
}

func TestHandleAnalyze_DefaultModeIsFlash(t *testing.T) {
	svc := &stubAnalysis{result: sampleResult()}
	handler := NewAnalysisHandler(svc, &stubHistory{}, &stubTracker{}, arbor.NewLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/analysis?query=2330", nil)
	rec := httptest.NewRecorder()
	handler.HandleAnalyze(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if svc.lastMode != models.ModeFlash {
		t.Errorf("mode = %s, want flash", svc.lastMode)
	}
}

func TestHandleAnalyze_InvalidMode(t *testing.T) {
	handler := NewAnalysisHandler(&stubAnalysis{}, &stubHistory{}, &stubTracker{}, arbor.NewLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/analysis?query=2330&mode=turbo", nil)
	rec := httptest.NewRecorder()
	handler.HandleAnalyze(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHandleAnalyze_EmptyQuery(t *testing.T) {
	svc := &stubAnalysis{err: analysis.ErrEmptyQuery}
	handler := NewAnalysisHandler(svc, &stubHistory{}, &stubTracker{}, arbor.NewLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/analysis?query=", nil)
	rec := httptest.NewRecorder()
	handler.HandleAnalyze(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHandleAnalyze_UpstreamFailure(t *testing.T) {
	svc := &stubAnalysis{err: errors.New("generation failed")}
	history := &stubHistory{}
	handler := NewAnalysisHandler(svc, history, &stubTracker{}, arbor.NewLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/analysis?query=2330", nil)
	rec := httptest.NewRecorder()
	handler.HandleAnalyze(rec, req)

	if rec.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", rec.Code)
	}
	if len(history.recorded) != 0 {
		t.Error("failed analysis must not be recorded in history")
	}
}

func TestHandleAnalyze_BackgroundSkipsSideEffects(t *testing.T) {
	svc := &stubAnalysis{result: sampleResult()}
	history := &stubHistory{}
	tracker := &stubTracker{}
	handler := NewAnalysisHandler(svc, history, tracker, arbor.NewLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/analysis?query=2330&background=true", nil)
	rec := httptest.NewRecorder()
	handler.HandleAnalyze(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if svc.refreshCalls != 1 || svc.analyzeCalls != 0 {
		t.Errorf("calls = analyze %d refresh %d, want 0/1", svc.analyzeCalls, svc.refreshCalls)
	}
	if len(history.recorded) != 0 || history.savedSession != nil {
		t.Error("background request must not touch history or session")
	}
	if tracker.symbol != "" {
		t.Error("background request must not change the refresh target")
	}
}

func TestHandleAnalyze_MethodNotAllowed(t *testing.T) {
	handler := NewAnalysisHandler(&stubAnalysis{}, &stubHistory{}, &stubTracker{}, arbor.NewLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/analysis?query=2330", nil)
	rec := httptest.NewRecorder()
	handler.HandleAnalyze(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}

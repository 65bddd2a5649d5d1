package refresher

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/ternarybob/arbor"

	"github.com/stockwinner/stockwinner/internal/common"
	"github.com/stockwinner/stockwinner/internal/interfaces"
	"github.com/stockwinner/stockwinner/internal/models"
	"github.com/stockwinner/stockwinner/internal/services/analysis"
	"github.com/stockwinner/stockwinner/internal/services/cache"
	"github.com/stockwinner/stockwinner/internal/services/dashboard"
	"github.com/stockwinner/stockwinner/internal/services/gemini"
)

// memKV is an in-memory KeyValueStorage for tests.
type memKV struct {
	data map[string]string
}

func newMemKV() *memKV {
	return &memKV{data: make(map[string]string)}
}

func (m *memKV) Get(ctx context.Context, key string) (string, error) {
	v, ok := m.data[key]
	if !ok {
		return "", interfaces.ErrKeyNotFound
	}
	return v, nil
}

func (m *memKV) GetPair(ctx context.Context, key string) (*interfaces.KeyValuePair, error) {
	v, ok := m.data[key]
	if !ok {
		return nil, interfaces.ErrKeyNotFound
	}
	return &interfaces.KeyValuePair{Key: key, Value: v}, nil
}

func (m *memKV) Set(ctx context.Context, key string, value string) error {
	m.data[key] = value
	return nil
}

func (m *memKV) Delete(ctx context.Context, key string) error {
	if _, ok := m.data[key]; !ok {
		return interfaces.ErrKeyNotFound
	}
	delete(m.data, key)
	return nil
}

func (m *memKV) DeleteAll(ctx context.Context) error {
	m.data = make(map[string]string)
	return nil
}

func (m *memKV) List(ctx context.Context) ([]interfaces.KeyValuePair, error) {
	return nil, nil
}

func (m *memKV) ListByPrefix(ctx context.Context, prefix string) ([]interfaces.KeyValuePair, error) {
	return nil, nil
}

// fakeGenerator answers every call by unmarshaling a canned payload
// into the caller's target type.
type fakeGenerator struct {
	mu      sync.Mutex
	calls   int
	payload any
	err     error
}

func (f *fakeGenerator) GenerateJSON(ctx context.Context, req *gemini.Request, out any) ([]models.Source, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	if f.err != nil {
		return nil, f.err
	}

	raw, err := json.Marshal(f.payload)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return nil, err
	}
	return nil, nil
}

// fakeHub records broadcast events.
type fakeHub struct {
	mu     sync.Mutex
	events []models.RefreshEvent
}

func (f *fakeHub) Broadcast(event models.RefreshEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
}

func (f *fakeHub) list() []models.RefreshEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.RefreshEvent(nil), f.events...)
}

func newTestRefresher(t *testing.T, gen gemini.Generator, hub Broadcaster) *Service {
	t.Helper()

	config := common.NewDefaultConfig()
	logger := arbor.NewLogger()
	clock := common.NewMarketClock(&config.Market)
	cacheSvc := cache.NewService(newMemKV(), logger)

	analysisSvc := analysis.NewService(gen, cacheSvc, clock, config, logger)
	dashboardSvc := dashboard.NewService(gen, cacheSvc, clock, config, logger)

	return NewService(analysisSvc, dashboardSvc, hub, config, logger)
}

func TestRunAnalysisRefresh_NoTargetIsNoop(t *testing.T) {
	gen := &fakeGenerator{payload: models.AnalysisResult{Symbol: "2330"}}
	hub := &fakeHub{}
	svc := newTestRefresher(t, gen, hub)

	svc.runAnalysisRefresh()

	if gen.calls != 0 {
		t.Errorf("generator calls = %d, want 0 with no target", gen.calls)
	}
	if len(hub.list()) != 0 {
		t.Errorf("events = %+v, want none", hub.list())
	}
}

func TestRunAnalysisRefresh_BroadcastsEvent(t *testing.T) {
	gen := &fakeGenerator{payload: models.AnalysisResult{Symbol: "2330"}}
	hub := &fakeHub{}
	svc := newTestRefresher(t, gen, hub)

	svc.Track("2330", models.ModeFlash)
	svc.runAnalysisRefresh()

	if gen.calls != 1 {
		t.Fatalf("generator calls = %d, want 1", gen.calls)
	}

	events := hub.list()
	if len(events) != 1 {
		t.Fatalf("events = %+v, want 1", events)
	}
	if events[0].Type != "analysis_refreshed" || events[0].Symbol != "2330" || events[0].Mode != "flash" {
		t.Errorf("event = %+v", events[0])
	}
}

func TestRunAnalysisRefresh_FailureDoesNotBroadcast(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("upstream unavailable")}
	hub := &fakeHub{}
	svc := newTestRefresher(t, gen, hub)

	svc.Track("2330", models.ModeFlash)
	svc.runAnalysisRefresh()

	if len(hub.list()) != 0 {
		t.Errorf("events = %+v, want none on failure", hub.list())
	}
}

func TestTrack_ReplacesTarget(t *testing.T) {
	gen := &fakeGenerator{payload: models.AnalysisResult{Symbol: "2317"}}
	hub := &fakeHub{}
	svc := newTestRefresher(t, gen, hub)

	svc.Track("2330", models.ModeFlash)
	svc.Track("2317", models.ModePro)
	svc.runAnalysisRefresh()

	events := hub.list()
	if len(events) != 1 {
		t.Fatalf("events = %+v, want 1", events)
	}
	if events[0].Symbol != "2317" || events[0].Mode != "pro" {
		t.Errorf("event = %+v, want most recent target", events[0])
	}
}

func TestRunDashboardRefresh_DegradedDoesNotBroadcast(t *testing.T) {
	// Payload that fits neither dashboard call leaves both empty but
	// succeeding; an erroring generator is the degraded case.
	gen := &fakeGenerator{err: errors.New("upstream unavailable")}
	hub := &fakeHub{}
	svc := newTestRefresher(t, gen, hub)

	svc.runDashboardRefresh()

	if len(hub.list()) != 0 {
		t.Errorf("events = %+v, want none for degraded refresh", hub.list())
	}
}

func TestRunDashboardRefresh_BroadcastsOnSuccess(t *testing.T) {
	gen := &fakeGenerator{payload: map[string]any{
		"trending":   []map[string]any{{"symbol": "2330", "name": "台積電"}},
		"strategies": []map[string]any{},
	}}
	hub := &fakeHub{}
	svc := newTestRefresher(t, gen, hub)

	svc.runDashboardRefresh()

	events := hub.list()
	if len(events) != 1 {
		t.Fatalf("events = %+v, want 1", events)
	}
	if events[0].Type != "dashboard_refreshed" {
		t.Errorf("event = %+v", events[0])
	}
}

func TestStart_InvalidSchedule(t *testing.T) {
	gen := &fakeGenerator{}
	svc := newTestRefresher(t, gen, &fakeHub{})
	svc.schedule = "every 5 minutes"

	if err := svc.Start(); err == nil {
		t.Error("Start() = nil, want error for invalid schedule")
	}
}

func TestStartStop(t *testing.T) {
	gen := &fakeGenerator{payload: map[string]any{}}
	svc := newTestRefresher(t, gen, &fakeHub{})

	if err := svc.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	svc.Stop()

	// Stop is idempotent.
	svc.Stop()
}

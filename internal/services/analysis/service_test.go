package analysis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/stockwinner/stockwinner/internal/common"
	"github.com/stockwinner/stockwinner/internal/interfaces"
	"github.com/stockwinner/stockwinner/internal/models"
	"github.com/stockwinner/stockwinner/internal/services/cache"
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

// fakeGenerator returns a canned result and records calls.
type fakeGenerator struct {
	calls   int
	lastReq *gemini.Request
	result  models.AnalysisResult
	sources []models.Source
	err     error
}

func (f *fakeGenerator) GenerateJSON(ctx context.Context, req *gemini.Request, out any) ([]models.Source, error) {
	f.calls++
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	*out.(*models.AnalysisResult) = f.result
	return f.sources, nil
}

func newTestService(t *testing.T, gen gemini.Generator, kv interfaces.KeyValueStorage) *Service {
	t.Helper()

	config := common.NewDefaultConfig()
	logger := arbor.NewLogger()
	clock := common.NewMarketClock(&config.Market)
	return NewService(gen, cache.NewService(kv, logger), clock, config, logger)
}

func TestAnalyze_EmptyQuery(t *testing.T) {
	svc := newTestService(t, &fakeGenerator{}, newMemKV())

	tests := []string{"", "   ", "\t"}
	for _, query := range tests {
		if _, err := svc.Analyze(context.Background(), query, models.ModeFlash); !errors.Is(err, ErrEmptyQuery) {
			t.Errorf("Analyze(%q) error = %v, want ErrEmptyQuery", query, err)
		}
	}
}

func TestAnalyze_GeneratesAndCaches(t *testing.T) {
	gen := &fakeGenerator{
		result:  models.AnalysisResult{Symbol: "2330", Name: "台積電", OverallScore: 85},
		sources: []models.Source{{Title: "news", URI: "https://example.com"}},
	}
	kv := newMemKV()
	svc := newTestService(t, gen, kv)

	result, err := svc.Analyze(context.Background(), "2330", models.ModeFlash)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	if result.Symbol != "2330" || result.OverallScore != 85 {
		t.Errorf("result = %+v", result)
	}
	if len(result.Sources) != 1 {
		t.Errorf("sources = %v, want 1 entry", result.Sources)
	}
	if result.Timestamp == "" {
		t.Error("Timestamp not stamped")
	}

	if _, ok := kv.data["analysis_2330_flash_v5"]; !ok {
		t.Errorf("cache keys = %v, want analysis_2330_flash_v5", kv.data)
	}
}

func TestAnalyze_ServesFreshCacheWithoutGenerating(t *testing.T) {
	gen := &fakeGenerator{
		result: models.AnalysisResult{Symbol: "2330", OverallScore: 85},
	}
	svc := newTestService(t, gen, newMemKV())
	ctx := context.Background()

	if _, err := svc.Analyze(ctx, "2330", models.ModeFlash); err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if _, err := svc.Analyze(ctx, "2330", models.ModeFlash); err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	if gen.calls != 1 {
		t.Errorf("generator calls = %d, want 1 (second call served from cache)", gen.calls)
	}
}

func TestAnalyze_ModesAreCachedSeparately(t *testing.T) {
	gen := &fakeGenerator{result: models.AnalysisResult{Symbol: "2330"}}
	svc := newTestService(t, gen, newMemKV())
	ctx := context.Background()

	if _, err := svc.Analyze(ctx, "2330", models.ModeFlash); err != nil {
		t.Fatalf("Analyze(flash) error = %v", err)
	}
	if _, err := svc.Analyze(ctx, "2330", models.ModePro); err != nil {
		t.Fatalf("Analyze(pro) error = %v", err)
	}

	if gen.calls != 2 {
		t.Errorf("generator calls = %d, want 2 (modes cached under separate keys)", gen.calls)
	}
}

func TestAnalyze_ProModeUsesProModel(t *testing.T) {
	gen := &fakeGenerator{result: models.AnalysisResult{Symbol: "2330"}}
	config := common.NewDefaultConfig()
	svc := newTestService(t, gen, newMemKV())

	if _, err := svc.Analyze(context.Background(), "2330", models.ModePro); err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	if gen.lastReq.Model != config.Gemini.ProModel {
		t.Errorf("model = %s, want %s", gen.lastReq.Model, config.Gemini.ProModel)
	}
	if gen.lastReq.ThinkingBudget == nil || *gen.lastReq.ThinkingBudget != config.Gemini.ProThinkingBudget {
		t.Errorf("thinking budget = %v, want %d", gen.lastReq.ThinkingBudget, config.Gemini.ProThinkingBudget)
	}
	if !gen.lastReq.UseSearch {
		t.Error("UseSearch = false, want true")
	}
}

func TestAnalyze_FlashModeDisablesThinking(t *testing.T) {
	gen := &fakeGenerator{result: models.AnalysisResult{Symbol: "2330"}}
	svc := newTestService(t, gen, newMemKV())

	if _, err := svc.Analyze(context.Background(), "2330", models.ModeFlash); err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	if gen.lastReq.ThinkingBudget == nil || *gen.lastReq.ThinkingBudget != 0 {
		t.Errorf("thinking budget = %v, want 0", gen.lastReq.ThinkingBudget)
	}
}

func TestAnalyze_GenerationErrorPropagates(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("upstream unavailable")}
	svc := newTestService(t, gen, newMemKV())

	if _, err := svc.Analyze(context.Background(), "2330", models.ModeFlash); err == nil {
		t.Fatal("Analyze() expected error")
	}
}

func TestRefresh_BypassesFreshCache(t *testing.T) {
	gen := &fakeGenerator{result: models.AnalysisResult{Symbol: "2330"}}
	svc := newTestService(t, gen, newMemKV())
	ctx := context.Background()

	if _, err := svc.Analyze(ctx, "2330", models.ModeFlash); err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if _, err := svc.Refresh(ctx, "2330", models.ModeFlash); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}

	if gen.calls != 2 {
		t.Errorf("generator calls = %d, want 2 (refresh regenerates)", gen.calls)
	}
}

func TestRefresh_BackgroundWritesDisabled(t *testing.T) {
	gen := &fakeGenerator{result: models.AnalysisResult{Symbol: "2330"}}
	kv := newMemKV()
	svc := newTestService(t, gen, kv)
	svc.backgroundWrites = false

	if _, err := svc.Refresh(context.Background(), "2330", models.ModeFlash); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}

	if len(kv.data) != 0 {
		t.Errorf("cache entries = %v, want none when background writes disabled", kv.data)
	}
}

func TestAnalyze_TimestampIsServerSide(t *testing.T) {
	gen := &fakeGenerator{
		// Model-reported timestamp must be overwritten.
		result: models.AnalysisResult{Symbol: "2330", Timestamp: "1999/01/01 00:00:00"},
	}
	svc := newTestService(t, gen, newMemKV())

	fixed := time.Date(2026, 3, 2, 10, 30, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	result, err := svc.Analyze(context.Background(), "2330", models.ModeFlash)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	if result.Timestamp == "1999/01/01 00:00:00" {
		t.Error("Timestamp not overwritten server-side")
	}
}

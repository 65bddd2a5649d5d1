// Package dashboard assembles the market dashboard bundle from two
// concurrent Gemini calls and degrades to cached or empty data when
// the upstream is unavailable.
package dashboard

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stockwinner/stockwinner/internal/common"
	"github.com/stockwinner/stockwinner/internal/models"
	"github.com/stockwinner/stockwinner/internal/services/cache"
	"github.com/stockwinner/stockwinner/internal/services/gemini"
	"github.com/ternarybob/arbor"
	"google.golang.org/genai"
)

// Service fetches and caches the dashboard bundle.
type Service struct {
	generator        gemini.Generator
	cache            *cache.Service
	clock            *common.MarketClock
	logger           arbor.ILogger
	model            string
	policy           cache.Policy
	backgroundWrites bool
	now              func() time.Time
}

// NewService creates a new dashboard service. The freshness policy
// comes from config: a rolling window by default, or a daily cutover
// at market close.
func NewService(generator gemini.Generator, cacheSvc *cache.Service, clock *common.MarketClock, config *common.Config, logger arbor.ILogger) *Service {
	var policy cache.Policy
	if config.Cache.DashboardPolicy == string(cache.PolicyDailyCutover) {
		cutover := clock.SessionCutover(time.Now())
		policy = cache.DailyCutover(cutover.Hour(), cutover.Minute(), clock.Location())
	} else {
		policy = cache.Rolling(common.DurationOrDefault(config.Cache.DashboardTTL, 15*time.Minute))
	}

	return &Service{
		generator:        generator,
		cache:            cacheSvc,
		clock:            clock,
		logger:           logger,
		model:            config.Gemini.FlashModel,
		policy:           policy,
		backgroundWrites: config.Refresh.BackgroundWritesCache,
		now:              time.Now,
	}
}

// rankedLists mirrors the ranked-lists response schema.
type rankedLists struct {
	Trending    []models.StockPreview `json:"trending"`
	Fundamental []models.StockPreview `json:"fundamental"`
	Technical   []models.StockPreview `json:"technical"`
	Chips       []models.StockPreview `json:"chips"`
	Dividend    []models.StockPreview `json:"dividend"`
}

// strategyGroups mirrors the strategy-groups response schema.
type strategyGroups struct {
	Strategies []models.StrategyGroup `json:"strategies"`
}

// Fetch returns the dashboard bundle. A fresh cache entry wins; on a
// miss both dashboard calls run concurrently. If either fails the last
// cached bundle is served regardless of age, or an empty bundle when
// none exists. Degradation is never an error to the caller.
func (s *Service) Fetch(ctx context.Context) (*models.DashboardBundle, error) {
	var cached models.DashboardData
	storedAt, ok, err := s.cache.GetAny(ctx, cache.DashboardKey, &cached)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Dashboard cache read failed, fetching")
	}
	if ok && s.policy.IsFresh(storedAt, s.now()) {
		cached.Normalize()
		return &models.DashboardBundle{
			Data:      &cached,
			Freshness: models.FreshnessFresh,
			FetchedAt: storedAt,
		}, nil
	}

	return s.fetchAndFallback(ctx, true), nil
}

// Refresh bypasses the freshness check. The cache write on success is
// controlled by the background-writes setting.
func (s *Service) Refresh(ctx context.Context) (*models.DashboardBundle, error) {
	return s.fetchAndFallback(ctx, s.backgroundWrites), nil
}

func (s *Service) fetchAndFallback(ctx context.Context, writeCache bool) *models.DashboardBundle {
	data, err := s.fetchRemote(ctx)
	if err == nil {
		if writeCache {
			if cacheErr := s.cache.Put(ctx, cache.DashboardKey, data); cacheErr != nil {
				s.logger.Warn().Err(cacheErr).Msg("Failed to cache dashboard")
			}
		}
		return &models.DashboardBundle{
			Data:      data,
			Freshness: models.FreshnessFresh,
			FetchedAt: s.now(),
		}
	}

	s.logger.Warn().Err(err).Msg("Dashboard fetch failed, falling back to cache")

	var stale models.DashboardData
	storedAt, ok, readErr := s.cache.GetAny(ctx, cache.DashboardKey, &stale)
	if readErr != nil {
		s.logger.Warn().Err(readErr).Msg("Dashboard fallback read failed")
	}
	if ok {
		stale.Normalize()
		return &models.DashboardBundle{
			Data:      &stale,
			Freshness: models.FreshnessStale,
			FetchedAt: storedAt,
		}
	}

	return &models.DashboardBundle{
		Data:      models.EmptyDashboardData(),
		Freshness: models.FreshnessEmpty,
		FetchedAt: s.now(),
	}
}

// fetchRemote runs the ranked-lists and strategy-groups calls
// concurrently. Both must succeed.
func (s *Service) fetchRemote(ctx context.Context) (*models.DashboardData, error) {
	now := s.now()

	var (
		wg         sync.WaitGroup
		lists      rankedLists
		strategies strategyGroups
		listsErr   error
		stratErr   error
	)

	wg.Add(2)

	go func() {
		defer wg.Done()
		req := &gemini.Request{
			Model:          s.model,
			Prompt:         gemini.BuildRankedListsPrompt(s.clock, now),
			Schema:         gemini.RankedListsSchema(),
			ThinkingBudget: genai.Ptr(int32(0)),
			UseSearch:      true,
		}
		_, listsErr = s.generator.GenerateJSON(ctx, req, &lists)
	}()

	go func() {
		defer wg.Done()
		req := &gemini.Request{
			Model:          s.model,
			Prompt:         gemini.BuildStrategiesPrompt(s.clock, now),
			Schema:         gemini.StrategyGroupsSchema(),
			ThinkingBudget: genai.Ptr(int32(0)),
			UseSearch:      true,
		}
		_, stratErr = s.generator.GenerateJSON(ctx, req, &strategies)
	}()

	wg.Wait()

	if listsErr != nil {
		return nil, listsErr
	}
	if stratErr != nil {
		return nil, stratErr
	}

	for i := range strategies.Strategies {
		if strategies.Strategies[i].ID == "" {
			strategies.Strategies[i].ID = uuid.New().String()
		}
	}

	data := &models.DashboardData{
		Trending:    lists.Trending,
		Fundamental: lists.Fundamental,
		Technical:   lists.Technical,
		Chips:       lists.Chips,
		Dividend:    lists.Dividend,
		Strategies:  strategies.Strategies,
	}
	data.Normalize()

	return data, nil
}

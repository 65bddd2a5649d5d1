// Package analysis produces structured per-stock analyses: cache-first
// lookup, Gemini generation with search grounding on a miss, and a
// rolling TTL on the cached result.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/stockwinner/stockwinner/internal/common"
	"github.com/stockwinner/stockwinner/internal/models"
	"github.com/stockwinner/stockwinner/internal/services/cache"
	"github.com/stockwinner/stockwinner/internal/services/gemini"
	"github.com/ternarybob/arbor"
	"google.golang.org/genai"
)

// ErrEmptyQuery is returned when the query normalizes to nothing.
var ErrEmptyQuery = errors.New("empty analysis query")

// Service generates and caches stock analyses.
type Service struct {
	generator        gemini.Generator
	cache            *cache.Service
	clock            *common.MarketClock
	logger           arbor.ILogger
	flashModel       string
	proModel         string
	proThinking      int32
	ttl              time.Duration
	backgroundWrites bool
	now              func() time.Time
}

// NewService creates a new analysis service.
func NewService(generator gemini.Generator, cacheSvc *cache.Service, clock *common.MarketClock, config *common.Config, logger arbor.ILogger) *Service {
	return &Service{
		generator:        generator,
		cache:            cacheSvc,
		clock:            clock,
		logger:           logger,
		flashModel:       config.Gemini.FlashModel,
		proModel:         config.Gemini.ProModel,
		proThinking:      config.Gemini.ProThinkingBudget,
		ttl:              common.DurationOrDefault(config.Cache.AnalysisTTL, 30*time.Minute),
		backgroundWrites: config.Refresh.BackgroundWritesCache,
		now:              time.Now,
	}
}

// Analyze returns the analysis for a query, serving a fresh cache
// entry when one exists and generating otherwise.
func (s *Service) Analyze(ctx context.Context, query string, mode models.AnalysisMode) (*models.AnalysisResult, error) {
	symbol := common.NormalizeSymbol(query)
	if symbol == "" {
		return nil, ErrEmptyQuery
	}

	key := cache.AnalysisKey(symbol, mode)

	var cached models.AnalysisResult
	fresh, err := s.cache.Get(ctx, key, cache.Rolling(s.ttl), &cached)
	if err != nil {
		s.logger.Warn().Str("key", key).Err(err).Msg("Cache read failed, generating")
	}
	if fresh {
		s.logger.Debug().
			Str("symbol", symbol).
			Str("mode", string(mode)).
			Msg("Serving cached analysis")
		return &cached, nil
	}

	result, err := s.generateAnalysis(ctx, query, symbol, mode)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Put(ctx, key, result); err != nil {
		s.logger.Warn().Str("key", key).Err(err).Msg("Failed to cache analysis")
	}

	return result, nil
}

// Refresh re-generates an analysis regardless of cache freshness.
// Used by background refresh; the cache write is configurable.
func (s *Service) Refresh(ctx context.Context, query string, mode models.AnalysisMode) (*models.AnalysisResult, error) {
	symbol := common.NormalizeSymbol(query)
	if symbol == "" {
		return nil, ErrEmptyQuery
	}

	result, err := s.generateAnalysis(ctx, query, symbol, mode)
	if err != nil {
		return nil, err
	}

	if s.backgroundWrites {
		if err := s.cache.Put(ctx, cache.AnalysisKey(symbol, mode), result); err != nil {
			s.logger.Warn().Str("symbol", symbol).Err(err).Msg("Failed to cache refreshed analysis")
		}
	}

	return result, nil
}

func (s *Service) generateAnalysis(ctx context.Context, query, symbol string, mode models.AnalysisMode) (*models.AnalysisResult, error) {
	now := s.now()

	req := &gemini.Request{
		Prompt:    gemini.BuildAnalysisPrompt(query, s.clock, now),
		Schema:    gemini.AnalysisSchema(),
		UseSearch: true,
	}

	switch mode {
	case models.ModePro:
		req.Model = s.proModel
		req.ThinkingBudget = genai.Ptr(s.proThinking)
	default:
		req.Model = s.flashModel
		req.ThinkingBudget = genai.Ptr(int32(0))
	}

	s.logger.Info().
		Str("symbol", symbol).
		Str("mode", string(mode)).
		Str("model", req.Model).
		Msg("Generating stock analysis")

	var result models.AnalysisResult
	sources, err := s.generator.GenerateJSON(ctx, req, &result)
	if err != nil {
		return nil, fmt.Errorf("analysis generation failed for %s: %w", symbol, err)
	}

	// Stamp server-side so cache freshness never depends on model output.
	result.Timestamp = s.clock.FormatTimestamp(now)
	result.Sources = sources
	if result.Symbol == "" {
		result.Symbol = symbol
	}

	return &result, nil
}

// Package refresher runs background silent refresh: a cron-scheduled
// dashboard re-fetch plus an interval re-fetch of the most recently
// analysed stock. Failures are logged, never surfaced.
package refresher

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/stockwinner/stockwinner/internal/common"
	"github.com/stockwinner/stockwinner/internal/models"
	"github.com/stockwinner/stockwinner/internal/services/analysis"
	"github.com/stockwinner/stockwinner/internal/services/dashboard"
	"github.com/ternarybob/arbor"
)

// Broadcaster pushes refresh events to connected clients.
type Broadcaster interface {
	Broadcast(event models.RefreshEvent)
}

// tracked is the (symbol, mode) pair re-fetched on the interval timer.
type tracked struct {
	symbol string
	mode   models.AnalysisMode
}

// Service owns the background refresh loops.
type Service struct {
	analysis  *analysis.Service
	dashboard *dashboard.Service
	hub       Broadcaster
	logger    arbor.ILogger

	cron     *cron.Cron
	schedule string
	interval time.Duration
	timeout  time.Duration

	mu      sync.Mutex
	current *tracked

	stopCh  chan struct{}
	stopped sync.Once
}

// NewService creates a refresher. hub may be nil when no push channel
// is wired.
func NewService(analysisSvc *analysis.Service, dashboardSvc *dashboard.Service, hub Broadcaster, config *common.Config, logger arbor.ILogger) *Service {
	return &Service{
		analysis:  analysisSvc,
		dashboard: dashboardSvc,
		hub:       hub,
		logger:    logger,
		cron:      cron.New(),
		schedule:  config.Refresh.DashboardSchedule,
		interval:  common.DurationOrDefault(config.Refresh.AnalysisInterval, 30*time.Minute),
		timeout:   common.DurationOrDefault(config.Gemini.Timeout, 3*time.Minute),
		stopCh:    make(chan struct{}),
	}
}

// Start registers the dashboard cron job and launches the tracked
// analysis loop.
func (s *Service) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, s.runDashboardRefresh); err != nil {
		return fmt.Errorf("failed to schedule dashboard refresh: %w", err)
	}
	s.cron.Start()

	common.SafeGo(s.logger, "analysis-refresh-loop", s.analysisLoop)

	s.logger.Info().
		Str("dashboard_schedule", s.schedule).
		Dur("analysis_interval", s.interval).
		Msg("Background refresh started")

	return nil
}

// Stop halts both refresh loops.
func (s *Service) Stop() {
	s.stopped.Do(func() {
		close(s.stopCh)
		ctx := s.cron.Stop()
		<-ctx.Done()
		s.logger.Info().Msg("Background refresh stopped")
	})
}

// Track marks the given pair as the refresh target, replacing any
// previous one.
func (s *Service) Track(symbol string, mode models.AnalysisMode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = &tracked{symbol: symbol, mode: mode}
}

func (s *Service) analysisLoop() {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.runAnalysisRefresh()
		}
	}
}

func (s *Service) runAnalysisRefresh() {
	defer s.recoverPanic("analysis refresh")

	s.mu.Lock()
	target := s.current
	s.mu.Unlock()

	if target == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if _, err := s.analysis.Refresh(ctx, target.symbol, target.mode); err != nil {
		s.logger.Warn().
			Str("symbol", target.symbol).
			Str("mode", string(target.mode)).
			Err(err).
			Msg("Silent analysis refresh failed")
		return
	}

	s.logger.Debug().
		Str("symbol", target.symbol).
		Str("mode", string(target.mode)).
		Msg("Silent analysis refresh complete")

	s.broadcast(models.RefreshEvent{
		Type:   "analysis_refreshed",
		Symbol: target.symbol,
		Mode:   string(target.mode),
		At:     time.Now(),
	})
}

func (s *Service) runDashboardRefresh() {
	defer s.recoverPanic("dashboard refresh")

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	bundle, err := s.dashboard.Refresh(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Silent dashboard refresh failed")
		return
	}
	if bundle.Freshness != models.FreshnessFresh {
		s.logger.Debug().
			Str("freshness", string(bundle.Freshness)).
			Msg("Silent dashboard refresh degraded")
		return
	}

	s.logger.Debug().Msg("Silent dashboard refresh complete")

	s.broadcast(models.RefreshEvent{
		Type: "dashboard_refreshed",
		At:   time.Now(),
	})
}

func (s *Service) broadcast(event models.RefreshEvent) {
	if s.hub != nil {
		s.hub.Broadcast(event)
	}
}

func (s *Service) recoverPanic(job string) {
	if r := recover(); r != nil {
		s.logger.Error().
			Str("job", job).
			Str("panic", fmt.Sprintf("%v", r)).
			Msg("Recovered from panic in refresh job")
	}
}

// Package app wires configuration, storage, services and handlers
// into one application instance.
package app

import (
	"fmt"

	"github.com/stockwinner/stockwinner/internal/common"
	"github.com/stockwinner/stockwinner/internal/handlers"
	"github.com/stockwinner/stockwinner/internal/services/analysis"
	"github.com/stockwinner/stockwinner/internal/services/cache"
	"github.com/stockwinner/stockwinner/internal/services/dashboard"
	"github.com/stockwinner/stockwinner/internal/services/gemini"
	"github.com/stockwinner/stockwinner/internal/services/history"
	"github.com/stockwinner/stockwinner/internal/services/refresher"
	"github.com/stockwinner/stockwinner/internal/services/suggest"
	badgerstore "github.com/stockwinner/stockwinner/internal/storage/badger"
	"github.com/ternarybob/arbor"
)

// Handlers groups the HTTP handlers the server routes to.
type Handlers struct {
	Analysis  *handlers.AnalysisHandler
	Dashboard *handlers.DashboardHandler
	Suggest   *handlers.SuggestHandler
	History   *handlers.HistoryHandler
	Status    *handlers.StatusHandler
	Socket    *handlers.WebSocketHandler
}

// App holds the wired application.
type App struct {
	Config *common.Config
	Logger arbor.ILogger

	DB        *badgerstore.BadgerDB
	Cache     *cache.Service
	Gemini    *gemini.Client
	Analysis  *analysis.Service
	Dashboard *dashboard.Service
	History   *history.Service
	Suggest   *suggest.Service
	Refresher *refresher.Service

	Handlers Handlers
}

// New builds the application. Fails fast on storage, credential or
// index errors so misconfiguration surfaces at startup.
func New(config *common.Config, logger arbor.ILogger) (*App, error) {
	db, err := badgerstore.NewBadgerDB(logger, &config.Storage.Badger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	kvStorage := badgerstore.NewKVStorage(db, logger)
	cacheSvc := cache.NewService(kvStorage, logger)

	keys, err := common.ResolveGeminiKeys(&config.Gemini)
	if err != nil {
		db.Close()
		return nil, err
	}
	keyring, err := gemini.NewKeyring(keys)
	if err != nil {
		db.Close()
		return nil, err
	}
	logger.Info().Int("keys", keyring.Size()).Msg("Gemini credential pool ready")

	geminiClient, err := gemini.NewClient(keyring, &config.Gemini, logger)
	if err != nil {
		db.Close()
		return nil, err
	}

	clock := common.NewMarketClock(&config.Market)

	analysisSvc := analysis.NewService(geminiClient, cacheSvc, clock, config, logger)
	dashboardSvc := dashboard.NewService(geminiClient, cacheSvc, clock, config, logger)
	historySvc := history.NewService(cacheSvc, logger)

	suggestSvc, err := suggest.NewService(logger)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize suggest service: %w", err)
	}

	socketHandler := handlers.NewWebSocketHandler(logger)
	refresherSvc := refresher.NewService(analysisSvc, dashboardSvc, socketHandler, config, logger)

	a := &App{
		Config:    config,
		Logger:    logger,
		DB:        db,
		Cache:     cacheSvc,
		Gemini:    geminiClient,
		Analysis:  analysisSvc,
		Dashboard: dashboardSvc,
		History:   historySvc,
		Suggest:   suggestSvc,
		Refresher: refresherSvc,
		Handlers: Handlers{
			Analysis:  handlers.NewAnalysisHandler(analysisSvc, historySvc, refresherSvc, logger),
			Dashboard: handlers.NewDashboardHandler(dashboardSvc, logger),
			Suggest:   handlers.NewSuggestHandler(suggestSvc, logger),
			History:   handlers.NewHistoryHandler(historySvc, logger),
			Status:    handlers.NewStatusHandler(logger),
			Socket:    socketHandler,
		},
	}

	if config.Refresh.Enabled {
		if err := refresherSvc.Start(); err != nil {
			a.Close()
			return nil, err
		}
	}

	return a, nil
}

// Close shuts the application down in reverse dependency order.
func (a *App) Close() {
	if a.Refresher != nil {
		a.Refresher.Stop()
	}
	if a.Handlers.Socket != nil {
		a.Handlers.Socket.Close()
	}
	if a.Suggest != nil {
		if err := a.Suggest.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close suggest index")
		}
	}
	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close database")
		}
	}
}

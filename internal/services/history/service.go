// Package history keeps the bounded search history and the restorable
// last-session analysis, both persisted in the key/value store so they
// survive restarts.
package history

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stockwinner/stockwinner/internal/models"
	"github.com/stockwinner/stockwinner/internal/services/cache"
	"github.com/ternarybob/arbor"
)

// MaxEntries bounds the search history length.
const MaxEntries = 20

// Service manages search history and session state.
type Service struct {
	cache  *cache.Service
	logger arbor.ILogger
	now    func() time.Time
}

// NewService creates a new history service.
func NewService(cacheSvc *cache.Service, logger arbor.ILogger) *Service {
	return &Service{
		cache:  cacheSvc,
		logger: logger,
		now:    time.Now,
	}
}

// Record prepends an entry, deduplicating by symbol: revisiting a
// symbol moves it to the front with updated fields. The list is capped
// at MaxEntries distinct symbols.
func (s *Service) Record(ctx context.Context, entry models.HistoryEntry) error {
	entries, err := s.List(ctx)
	if err != nil {
		return err
	}

	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.SearchedAt.IsZero() {
		entry.SearchedAt = s.now()
	}

	updated := make([]models.HistoryEntry, 0, len(entries)+1)
	updated = append(updated, entry)
	for _, existing := range entries {
		if existing.Symbol == entry.Symbol {
			continue
		}
		updated = append(updated, existing)
	}

	if len(updated) > MaxEntries {
		updated = updated[:MaxEntries]
	}

	return s.cache.Put(ctx, cache.HistoryKey, updated)
}

// List returns history entries, most recent first. An absent key is an
// empty history.
func (s *Service) List(ctx context.Context) ([]models.HistoryEntry, error) {
	var entries []models.HistoryEntry
	_, ok, err := s.cache.GetAny(ctx, cache.HistoryKey, &entries)
	if err != nil {
		return nil, err
	}
	if !ok || entries == nil {
		return []models.HistoryEntry{}, nil
	}
	return entries, nil
}

// Clear empties the search history.
func (s *Service) Clear(ctx context.Context) error {
	return s.cache.Delete(ctx, cache.HistoryKey)
}

// SaveSession persists the last successful analysis for restore.
func (s *Service) SaveSession(ctx context.Context, result *models.AnalysisResult) error {
	return s.cache.Put(ctx, cache.SessionKey, result)
}

// Session returns the persisted last analysis, if any.
func (s *Service) Session(ctx context.Context) (*models.AnalysisResult, bool, error) {
	var result models.AnalysisResult
	_, ok, err := s.cache.GetAny(ctx, cache.SessionKey, &result)
	if err != nil || !ok {
		return nil, false, err
	}
	return &result, true, nil
}

// ClearSession removes the persisted session.
func (s *Service) ClearSession(ctx context.Context) error {
	return s.cache.Delete(ctx, cache.SessionKey)
}

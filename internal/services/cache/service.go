// Package cache provides the TTL-checked result cache backed by the
// key/value store. Entries are stored as a JSON envelope carrying the
// payload and its storage time; freshness is evaluated on read.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/stockwinner/stockwinner/internal/interfaces"
	"github.com/stockwinner/stockwinner/internal/models"
	"github.com/ternarybob/arbor"
)

// SchemaVersion is baked into cache keys. Bumping it orphans entries
// written under older payload shapes.
const SchemaVersion = "v5"

// Well-known cache keys.
const (
	DashboardKey = "dashboard_cache_" + SchemaVersion
	HistoryKey   = "search_history_v1"
	SessionKey   = "last_session_v1"
)

// AnalysisKey returns the cache key for one (symbol, mode) analysis.
func AnalysisKey(symbol string, mode models.AnalysisMode) string {
	return fmt.Sprintf("analysis_%s_%s_%s", symbol, mode, SchemaVersion)
}

// PolicyType selects how storedAt is judged against now.
type PolicyType string

const (
	// PolicyRolling treats an entry as fresh within a sliding window.
	PolicyRolling PolicyType = "rolling"
	// PolicyDailyCutover treats an entry as fresh if stored after the
	// most recent cutover instant (e.g. market close) in Location.
	PolicyDailyCutover PolicyType = "daily_cutover"
)

// Policy describes a freshness rule for cached entries.
type Policy struct {
	Type        PolicyType
	TTL         time.Duration
	CutoverHour int
	CutoverMin  int
	Location    *time.Location
}

// Rolling returns a sliding-window policy.
func Rolling(ttl time.Duration) Policy {
	return Policy{Type: PolicyRolling, TTL: ttl}
}

// DailyCutover returns a policy that expires entries at a fixed local
// time each day.
func DailyCutover(hour, minute int, loc *time.Location) Policy {
	return Policy{Type: PolicyDailyCutover, CutoverHour: hour, CutoverMin: minute, Location: loc}
}

// IsFresh reports whether an entry stored at storedAt is fresh at now.
func (p Policy) IsFresh(storedAt, now time.Time) bool {
	switch p.Type {
	case PolicyRolling:
		return now.Sub(storedAt) < p.TTL
	case PolicyDailyCutover:
		loc := p.Location
		if loc == nil {
			loc = time.UTC
		}
		local := now.In(loc)
		cutover := time.Date(local.Year(), local.Month(), local.Day(), p.CutoverHour, p.CutoverMin, 0, 0, loc)
		if cutover.After(local) {
			// Before today's cutover: the boundary is yesterday's.
			cutover = cutover.AddDate(0, 0, -1)
		}
		return storedAt.After(cutover)
	default:
		return false
	}
}

// envelope wraps a cached payload with its storage time.
type envelope struct {
	StoredAt time.Time       `json:"storedAt"`
	Data     json.RawMessage `json:"data"`
}

// Service reads and writes envelope-wrapped entries in the KV store.
type Service struct {
	kv     interfaces.KeyValueStorage
	logger arbor.ILogger
	now    func() time.Time
}

// NewService creates a new cache service.
func NewService(kv interfaces.KeyValueStorage, logger arbor.ILogger) *Service {
	return &Service{
		kv:     kv,
		logger: logger,
		now:    time.Now,
	}
}

// Get unmarshals a fresh entry into out. Returns false on a miss, a
// stale entry, or a corrupt envelope; corrupt entries are not errors,
// they behave as misses.
func (s *Service) Get(ctx context.Context, key string, policy Policy, out any) (bool, error) {
	env, ok, err := s.read(ctx, key)
	if err != nil || !ok {
		return false, err
	}

	if !policy.IsFresh(env.StoredAt, s.now()) {
		s.logger.Debug().
			Str("key", key).
			Str("stored_at", env.StoredAt.Format(time.RFC3339)).
			Msg("Cache entry stale")
		return false, nil
	}

	if err := json.Unmarshal(env.Data, out); err != nil {
		s.logger.Warn().Str("key", key).Err(err).Msg("Discarding corrupt cache entry")
		return false, nil
	}

	return true, nil
}

// GetAny unmarshals an entry regardless of freshness, returning its
// storage time. Used for stale fallbacks and un-TTL'd keys.
func (s *Service) GetAny(ctx context.Context, key string, out any) (time.Time, bool, error) {
	env, ok, err := s.read(ctx, key)
	if err != nil || !ok {
		return time.Time{}, false, err
	}

	if err := json.Unmarshal(env.Data, out); err != nil {
		s.logger.Warn().Str("key", key).Err(err).Msg("Discarding corrupt cache entry")
		return time.Time{}, false, nil
	}

	return env.StoredAt, true, nil
}

// Put stores v under key, stamped with the current time.
func (s *Service) Put(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal cache payload: %w", err)
	}

	env := envelope{
		StoredAt: s.now(),
		Data:     data,
	}

	raw, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("failed to marshal cache envelope: %w", err)
	}

	if err := s.kv.Set(ctx, key, string(raw)); err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}

	return nil
}

// Delete removes an entry. A missing key is not an error.
func (s *Service) Delete(ctx context.Context, key string) error {
	err := s.kv.Delete(ctx, key)
	if err != nil && err != interfaces.ErrKeyNotFound {
		return fmt.Errorf("failed to delete cache entry: %w", err)
	}
	return nil
}

func (s *Service) read(ctx context.Context, key string) (*envelope, bool, error) {
	raw, err := s.kv.Get(ctx, key)
	if err == interfaces.ErrKeyNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read cache entry: %w", err)
	}

	var env envelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		s.logger.Warn().Str("key", key).Err(err).Msg("Discarding corrupt cache envelope")
		return nil, false, nil
	}

	return &env, true, nil
}

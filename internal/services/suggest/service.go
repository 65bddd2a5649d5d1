// Package suggest provides local symbol autocomplete over the built-in
// symbol list. Code lookups go through an in-memory bleve index; CJK
// name matching adds a substring pass, since the standard analyzer
// does not segment Chinese.
package suggest

import (
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/stockwinner/stockwinner/internal/common"
	"github.com/stockwinner/stockwinner/internal/models"
	"github.com/ternarybob/arbor"
)

// DefaultLimit caps suggestion results.
const DefaultLimit = 8

// Service answers autocomplete queries.
type Service struct {
	index    bleve.Index
	bySymbol map[string]models.SymbolInfo
	logger   arbor.ILogger
}

// NewService builds the in-memory index over the built-in symbol list.
func NewService(logger arbor.ILogger) (*Service, error) {
	mapping := bleve.NewIndexMapping()
	index, err := bleve.NewMemOnly(mapping)
	if err != nil {
		return nil, fmt.Errorf("failed to create suggest index: %w", err)
	}

	bySymbol := make(map[string]models.SymbolInfo, len(builtinSymbols))
	batch := index.NewBatch()
	for _, sym := range builtinSymbols {
		bySymbol[sym.Code] = sym
		if err := batch.Index(sym.Code, sym); err != nil {
			return nil, fmt.Errorf("failed to index symbol %s: %w", sym.Code, err)
		}
	}
	if err := index.Batch(batch); err != nil {
		return nil, fmt.Errorf("failed to build suggest index: %w", err)
	}

	logger.Debug().Int("symbols", len(builtinSymbols)).Msg("Suggest index built")

	return &Service{
		index:    index,
		bySymbol: bySymbol,
		logger:   logger,
	}, nil
}

// Search returns up to limit symbols matching the query on code or
// name. Empty queries return an empty list.
func (s *Service) Search(rawQuery string, limit int) []models.SymbolInfo {
	if limit <= 0 || limit > DefaultLimit {
		limit = DefaultLimit
	}

	normalized := strings.TrimSpace(common.FoldFullWidth(rawQuery))
	if normalized == "" {
		return []models.SymbolInfo{}
	}

	seen := make(map[string]bool)
	results := make([]models.SymbolInfo, 0, limit)

	for _, code := range s.searchIndex(normalized, limit) {
		if sym, ok := s.bySymbol[code]; ok && !seen[code] {
			seen[code] = true
			results = append(results, sym)
			if len(results) >= limit {
				return results
			}
		}
	}

	// Substring pass covers CJK names and partial codes the analyzer misses.
	lower := strings.ToLower(normalized)
	for _, sym := range builtinSymbols {
		if seen[sym.Code] {
			continue
		}
		if strings.Contains(strings.ToLower(sym.Code), lower) || strings.Contains(sym.Name, normalized) {
			seen[sym.Code] = true
			results = append(results, sym)
			if len(results) >= limit {
				break
			}
		}
	}

	return results
}

// searchIndex runs a boosted disjunction: exact code, code prefix,
// then name match.
func (s *Service) searchIndex(queryStr string, limit int) []string {
	lower := strings.ToLower(queryStr)

	exact := bleve.NewTermQuery(lower)
	exact.SetField("code")
	exact.SetBoost(10.0)

	prefix := bleve.NewPrefixQuery(lower)
	prefix.SetField("code")
	prefix.SetBoost(5.0)

	name := bleve.NewMatchQuery(queryStr)
	name.SetField("name")
	name.SetBoost(3.0)

	disjunction := bleve.NewDisjunctionQuery(exact, prefix, name)

	searchReq := bleve.NewSearchRequestOptions(disjunction, limit, 0, false)
	searchResult, err := s.index.Search(searchReq)
	if err != nil {
		s.logger.Warn().Str("query", queryStr).Err(err).Msg("Suggest index search failed")
		return nil
	}

	ids := make([]string, 0, len(searchResult.Hits))
	for _, hit := range searchResult.Hits {
		ids = append(ids, hit.ID)
	}
	return ids
}

// Close releases the index.
func (s *Service) Close() error {
	if s.index != nil {
		return s.index.Close()
	}
	return nil
}

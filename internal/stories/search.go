package stories

import (
	"context"
	"time"

	"admission-stories/internal/common/config"
	"admission-stories/internal/common/errors"
	"admission-stories/internal/common/logger"
	"admission-stories/internal/common/metrics"
	"admission-stories/internal/common/observability"
	"admission-stories/internal/models"
	"admission-stories/internal/similarity"

	"go.opentelemetry.io/otel/attribute"
)

// CandidateLister is the storage boundary of the search. Implementations
// must only return published stories.
type CandidateLister interface {
	ListPublished(ctx context.Context, f CandidateFilter) ([]models.Story, error)
}

// SearchResult is one ranked page of stories.
type SearchResult struct {
	Results  []similarity.ScoredResult `json:"results"`
	Count    int                       `json:"count"`
	Total    int                       `json:"total"`
	MaxScore int                       `json:"maxScore"`
	CacheHit bool                      `json:"-"`
}

// SearchService ranks published stories against a profile.
type SearchService struct {
	lister     CandidateLister
	cache      *CandidateCache
	obs        *observability.Observability
	logger     logger.Logger
	maxResults int
}

func NewSearchService(lister CandidateLister, cache *CandidateCache, obs *observability.Observability, maxResults int, log logger.Logger) *SearchService {
	if maxResults <= 0 || maxResults > config.MaxSearchResults {
		maxResults = config.MaxSearchResults
	}
	return &SearchService{
		lister:     lister,
		cache:      cache,
		obs:        obs,
		logger:     log,
		maxResults: maxResults,
	}
}

// Search fetches the candidate pool for the profile's university and
// faculty, scores it and returns at most limit results. A limit of zero or
// less means the configured default; larger limits are capped.
func (s *SearchService) Search(ctx context.Context, profile models.ProfileQuery, limit int, surface string) (_ *SearchResult, err error) {
	start := time.Now()
	ctx, span := s.obs.StartSpan(ctx, "stories.search", attribute.String("surface", surface))
	defer func() { observability.EndSpan(span, err) }()

	filter := FilterFor(profile)
	pool, gen, hit := s.cache.Get(ctx, filter)
	if !hit {
		pool, err = s.lister.ListPublished(ctx, filter)
		if err != nil {
			return nil, errors.NewCandidateFetchFailedError(err)
		}
		s.cache.Set(ctx, filter, gen, pool)
	}

	ranked := similarity.Search(profile, pool)
	total := len(ranked)
	if n := s.effectiveLimit(limit); len(ranked) > n {
		ranked = ranked[:n]
	}

	took := time.Since(start)
	span.SetAttributes(
		attribute.Bool("cache_hit", hit),
		attribute.Int("candidates", len(pool)),
		attribute.Int("returned", len(ranked)),
	)
	metrics.ObserveSearch(surface, took, len(ranked))
	s.obs.RecordSearch(ctx, surface, hit)
	s.logger.Debug("similarity search", map[string]interface{}{
		"surface":    surface,
		"candidates": len(pool),
		"returned":   len(ranked),
		"cacheHit":   hit,
		"durationMs": took.Milliseconds(),
	})

	return &SearchResult{
		Results:  ranked,
		Count:    len(ranked),
		Total:    total,
		MaxScore: similarity.MaxScore,
		CacheHit: hit,
	}, nil
}

func (s *SearchService) effectiveLimit(limit int) int {
	if limit <= 0 {
		return s.maxResults
	}
	if limit > config.MaxSearchResults {
		return config.MaxSearchResults
	}
	return limit
}

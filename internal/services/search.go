package services

import (
	"context"
	"errors"
	"time"

	"github.com/Ayash-Bera/searchable/internal/gemini"
	"github.com/Ayash-Bera/searchable/internal/models"
	"github.com/Ayash-Bera/searchable/internal/repository"
	"github.com/Ayash-Bera/searchable/pkg/utils"
	"github.com/sirupsen/logrus"
)

// ErrAnalyticsDisabled is returned by reads that need the database
var ErrAnalyticsDisabled = errors.New("analytics database not configured")

// Remote is the grounded answer and image backend
type Remote interface {
	Answer(ctx context.Context, query string) (models.SearchResult, error)
	GenerateImage(ctx context.Context, prompt string) *models.GeneratedImage
}

// ResultCache stores successful answers by normalised query key, and the
// popular list per limit
type ResultCache interface {
	GetCachedSearchResults(ctx context.Context, key string) (*models.SearchResult, error)
	CacheSearchResults(ctx context.Context, key string, result *models.SearchResult, expiration time.Duration) error
	GetCachedPopularQueries(ctx context.Context, limit int) ([]models.PopularQuery, error)
	CachePopularQueries(ctx context.Context, limit int, queries []models.PopularQuery, expiration time.Duration) error
}

// PopularCacheTTL keeps the popular list fresh enough without a query per request
const PopularCacheTTL = time.Minute

type SearchService struct {
	remote      Remote
	cache       ResultCache
	repoManager *repository.RepositoryManager
	cacheTTL    time.Duration
	logger      *logrus.Logger
}

// NewSearchService wires the remote service to the cache and analytics. cache
// may be nil, and so may repoManager.
func NewSearchService(
	remote Remote,
	cache ResultCache,
	repoManager *repository.RepositoryManager,
	cacheTTL time.Duration,
	logger *logrus.Logger,
) *SearchService {
	return &SearchService{
		remote:      remote,
		cache:       cache,
		repoManager: repoManager,
		cacheTTL:    cacheTTL,
		logger:      logger,
	}
}

type sessionKey struct{}

// WithSessionID tags ctx with the browser session that issued the search
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sessionKey{}, sessionID)
}

func SessionIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(sessionKey{}).(string)
	return id
}

// AnswerQuery never fails. Cached answers are served first; failures become the
// fallback result, which is recorded but never cached.
func (s *SearchService) AnswerQuery(ctx context.Context, query string) models.SearchResult {
	start := time.Now()
	key := utils.QueryKey(query)

	if cached := s.cached(ctx, key); cached != nil {
		// related topics follow the query's own spelling, not the cached one
		cached.RelatedTopics = gemini.RelatedTopics(query)
		s.logger.WithField("query", query).Debug("Serving cached answer")
		s.record(ctx, query, *cached, true, false, time.Since(start))
		return *cached
	}

	result, err := s.remote.Answer(ctx, query)
	elapsed := time.Since(start)

	if err != nil {
		if ctx.Err() != nil {
			s.logger.WithField("query", query).Debug("Search cancelled before completion")
			return result
		}
		s.logger.WithError(err).WithFields(logrus.Fields{
			"query":         query,
			"response_time": elapsed.Milliseconds(),
		}).Error("Search failed, serving fallback")
		s.record(ctx, query, result, false, true, elapsed)
		return result
	}

	if s.cache != nil && s.cacheTTL > 0 {
		if err := s.cache.CacheSearchResults(ctx, key, &result, s.cacheTTL); err != nil {
			s.logger.WithError(err).Warn("Failed to cache search result")
		}
	}

	s.record(ctx, query, result, false, false, elapsed)
	return result
}

// GenerateImage passes straight through; images are neither cached nor recorded
func (s *SearchService) GenerateImage(ctx context.Context, prompt string) *models.GeneratedImage {
	return s.remote.GenerateImage(ctx, prompt)
}

// PopularQueries returns the most searched queries, from the cache when a
// recent copy exists
func (s *SearchService) PopularQueries(ctx context.Context, limit int) ([]models.PopularQuery, error) {
	if s.repoManager == nil {
		return nil, ErrAnalyticsDisabled
	}
	if s.cache != nil {
		if queries, err := s.cache.GetCachedPopularQueries(ctx, limit); err == nil {
			return queries, nil
		}
	}

	queries, err := s.repoManager.PopularQuery.GetTop(limit)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.CachePopularQueries(ctx, limit, queries, PopularCacheTTL); err != nil {
			s.logger.WithError(err).Warn("Failed to cache popular queries")
		}
	}
	return queries, nil
}

// History returns up to limit searches one session made, newest first
func (s *SearchService) History(sessionID string, limit int) ([]models.SearchQuery, error) {
	if s.repoManager == nil {
		return nil, ErrAnalyticsDisabled
	}
	return s.repoManager.SearchQuery.GetBySession(sessionID, limit)
}

// RecentSearches returns the latest searches across all sessions
func (s *SearchService) RecentSearches(limit int) ([]models.SearchQuery, error) {
	if s.repoManager == nil {
		return nil, ErrAnalyticsDisabled
	}
	return s.repoManager.SearchQuery.GetRecentSearches(limit)
}

func (s *SearchService) cached(ctx context.Context, key string) *models.SearchResult {
	if s.cache == nil {
		return nil
	}
	result, err := s.cache.GetCachedSearchResults(ctx, key)
	if err != nil {
		return nil
	}
	return result
}

func (s *SearchService) record(ctx context.Context, query string, result models.SearchResult, fromCache, fallback bool, elapsed time.Duration) {
	if s.repoManager == nil {
		return
	}

	entry := &models.SearchQuery{
		QueryText:       query,
		UserSession:     SessionIDFrom(ctx),
		SourcesCount:    len(result.Sources),
		RelatedTopics:   models.StringArray(result.RelatedTopics),
		Fallback:        fallback,
		FromCache:       fromCache,
		SearchTimestamp: time.Now(),
		ResponseTimeMs:  int(elapsed.Milliseconds()),
	}
	if err := s.repoManager.SearchQuery.Create(entry); err != nil {
		s.logger.WithError(err).Warn("Failed to record search query")
	}

	if fallback {
		return
	}
	if err := s.repoManager.PopularQuery.IncrementCount(query); err != nil {
		s.logger.WithError(err).Warn("Failed to update popular queries")
		return
	}
	if err := s.repoManager.PopularQuery.UpdateStats(query, float64(len(result.Sources)), entry.ResponseTimeMs); err != nil {
		s.logger.WithError(err).Warn("Failed to update query stats")
	}
}

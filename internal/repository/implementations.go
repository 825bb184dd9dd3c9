package repository

import (
	"github.com/Ayash-Bera/searchable/internal/models"
	"gorm.io/gorm"
)

// SearchQueryRepositoryImpl implements SearchQueryRepository
type SearchQueryRepositoryImpl struct {
	db *gorm.DB
}

func NewSearchQueryRepository(db *gorm.DB) models.SearchQueryRepository {
	return &SearchQueryRepositoryImpl{db: db}
}

func (r *SearchQueryRepositoryImpl) Create(query *models.SearchQuery) error {
	return r.db.Create(query).Error
}

func (r *SearchQueryRepositoryImpl) GetBySession(session string, limit int) ([]models.SearchQuery, error) {
	var queries []models.SearchQuery
	err := r.db.Where("user_session = ?", session).
		Order("search_timestamp DESC").
		Limit(limit).
		Find(&queries).Error
	return queries, err
}

func (r *SearchQueryRepositoryImpl) GetRecentSearches(limit int) ([]models.SearchQuery, error) {
	var queries []models.SearchQuery
	err := r.db.Order("search_timestamp DESC").
		Limit(limit).
		Find(&queries).Error
	return queries, err
}

// PopularQueryRepositoryImpl implements PopularQueryRepository
type PopularQueryRepositoryImpl struct {
	db *gorm.DB
}

func NewPopularQueryRepository(db *gorm.DB) models.PopularQueryRepository {
	return &PopularQueryRepositoryImpl{db: db}
}

func (r *PopularQueryRepositoryImpl) IncrementCount(queryText string) error {
	return r.db.Exec(`
		INSERT INTO popular_queries (query_text, search_count, last_searched, created_at, updated_at)
		VALUES (?, 1, NOW(), NOW(), NOW())
		ON CONFLICT (query_text)
		DO UPDATE SET
			search_count = popular_queries.search_count + 1,
			last_searched = NOW(),
			updated_at = NOW()
	`, queryText).Error
}

func (r *PopularQueryRepositoryImpl) GetTop(limit int) ([]models.PopularQuery, error) {
	var queries []models.PopularQuery
	err := r.db.Order("search_count DESC, last_searched DESC").
		Limit(limit).
		Find(&queries).Error
	return queries, err
}

// UpdateStats folds one more sample into the running averages. Call it after
// IncrementCount so search_count already includes the sample.
func (r *PopularQueryRepositoryImpl) UpdateStats(queryText string, sourcesCount float64, responseTime int) error {
	return r.db.Exec(`
		UPDATE popular_queries
		SET
			avg_sources_count = (avg_sources_count * (search_count - 1) + ?) / search_count,
			avg_response_time_ms = (avg_response_time_ms * (search_count - 1) + ?) / search_count,
			updated_at = NOW()
		WHERE query_text = ?
	`, sourcesCount, responseTime, queryText).Error
}

// SystemHealthRepositoryImpl implements SystemHealthRepository
type SystemHealthRepositoryImpl struct {
	db *gorm.DB
}

func NewSystemHealthRepository(db *gorm.DB) models.SystemHealthRepository {
	return &SystemHealthRepositoryImpl{db: db}
}

func (r *SystemHealthRepositoryImpl) UpdateServiceHealth(serviceName, status string, responseTime int, errorMsg string) error {
	return r.db.Create(&models.SystemHealth{
		ServiceName:    serviceName,
		Status:         status,
		ResponseTimeMs: responseTime,
		ErrorMessage:   errorMsg,
	}).Error
}

func (r *SystemHealthRepositoryImpl) GetAllServicesHealth() ([]models.SystemHealth, error) {
	var health []models.SystemHealth
	err := r.db.Raw(`
		SELECT DISTINCT ON (service_name) *
		FROM system_health
		ORDER BY service_name, checked_at DESC
	`).Scan(&health).Error
	return health, err
}

// RepositoryManager bundles all repositories
type RepositoryManager struct {
	SearchQuery  models.SearchQueryRepository
	PopularQuery models.PopularQueryRepository
	SystemHealth models.SystemHealthRepository
}

// NewRepositoryManager returns nil when there is no database, which callers
// treat as analytics disabled.
func NewRepositoryManager(db *gorm.DB) *RepositoryManager {
	if db == nil {
		return nil
	}
	return &RepositoryManager{
		SearchQuery:  NewSearchQueryRepository(db),
		PopularQuery: NewPopularQueryRepository(db),
		SystemHealth: NewSystemHealthRepository(db),
	}
}

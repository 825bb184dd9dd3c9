package models

// GORM models

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"gorm.io/gorm"
)

// StringArray for PostgreSQL array support. Literals are encoded and parsed
// with pgx's text[] codec, so quoting and escaping match the server.
type StringArray []string

var arrayTypes = pgtype.NewMap()

func (s StringArray) Value() (driver.Value, error) {
	if len(s) == 0 {
		return "{}", nil
	}
	buf, err := arrayTypes.Encode(pgtype.TextArrayOID, pgtype.TextFormatCode, []string(s), nil)
	if err != nil {
		return nil, fmt.Errorf("encode text array: %w", err)
	}
	return string(buf), nil
}

// Scan reads a text[] literal. NULL elements become "".
func (s *StringArray) Scan(value interface{}) error {
	var src []byte
	switch v := value.(type) {
	case nil:
		*s = StringArray{}
		return nil
	case string:
		src = []byte(v)
	case []byte:
		src = v
	default:
		return fmt.Errorf("cannot scan %T into StringArray", value)
	}
	if len(strings.TrimSpace(string(src))) == 0 {
		*s = StringArray{}
		return nil
	}

	var elems []pgtype.Text
	if err := arrayTypes.Scan(pgtype.TextArrayOID, pgtype.TextFormatCode, src, &elems); err != nil {
		return fmt.Errorf("scan text array: %w", err)
	}
	out := make(StringArray, len(elems))
	for i, e := range elems {
		out[i] = e.String
	}
	*s = out
	return nil
}

// Base model with common fields
type BaseModel struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SearchQuery records one resolved search
type SearchQuery struct {
	BaseModel
	QueryText       string      `json:"query_text" gorm:"not null"`
	UserSession     string      `json:"user_session"`
	SourcesCount    int         `json:"sources_count" gorm:"default:0"`
	RelatedTopics   StringArray `json:"related_topics" gorm:"type:text[]"`
	Fallback        bool        `json:"fallback" gorm:"default:false"`
	FromCache       bool        `json:"from_cache" gorm:"default:false"`
	SearchTimestamp time.Time   `json:"search_timestamp" gorm:"default:NOW()"`
	ResponseTimeMs  int         `json:"response_time_ms"`
}

// PopularQuery represents frequently searched terms
type PopularQuery struct {
	BaseModel
	QueryText         string    `json:"query_text" gorm:"unique;not null"`
	SearchCount       int       `json:"search_count" gorm:"default:1"`
	AvgSourcesCount   float64   `json:"avg_sources_count" gorm:"type:decimal(5,2);default:0"`
	AvgResponseTimeMs int       `json:"avg_response_time_ms" gorm:"default:0"`
	LastSearched      time.Time `json:"last_searched" gorm:"default:NOW()"`
}

// SystemHealth represents service health monitoring
type SystemHealth struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	ServiceName    string    `json:"service_name" gorm:"not null"`
	Status         string    `json:"status" gorm:"not null;check:status IN ('healthy','degraded','unhealthy','disabled')"`
	ResponseTimeMs int       `json:"response_time_ms"`
	ErrorMessage   string    `json:"error_message"`
	CheckedAt      time.Time `json:"checked_at" gorm:"default:NOW()"`
}

// Database interfaces for repository pattern
type SearchQueryRepository interface {
	Create(query *SearchQuery) error
	GetBySession(session string, limit int) ([]SearchQuery, error)
	GetRecentSearches(limit int) ([]SearchQuery, error)
}

type PopularQueryRepository interface {
	IncrementCount(queryText string) error
	GetTop(limit int) ([]PopularQuery, error)
	UpdateStats(queryText string, sourcesCount float64, responseTime int) error
}

type SystemHealthRepository interface {
	UpdateServiceHealth(serviceName, status string, responseTime int, errorMsg string) error
	GetAllServicesHealth() ([]SystemHealth, error)
}

// TableName methods for custom table names
func (SearchQuery) TableName() string  { return "search_queries" }
func (PopularQuery) TableName() string { return "popular_queries" }
func (SystemHealth) TableName() string { return "system_health" }

// Model validation methods
func (sq *SearchQuery) Validate() error {
	if strings.TrimSpace(sq.QueryText) == "" {
		return fmt.Errorf("query text is required")
	}
	if sq.ResponseTimeMs < 0 {
		return fmt.Errorf("response time cannot be negative")
	}
	return nil
}

func (sh *SystemHealth) Validate() error {
	if sh.ServiceName == "" {
		return fmt.Errorf("service name is required")
	}
	validStatuses := map[string]bool{
		"healthy":   true,
		"degraded":  true,
		"unhealthy": true,
		"disabled":  true,
	}
	if !validStatuses[sh.Status] {
		return fmt.Errorf("invalid health status: %s", sh.Status)
	}
	return nil
}

// GORM hooks
func (sq *SearchQuery) BeforeCreate(tx *gorm.DB) error {
	return sq.Validate()
}

func (sh *SystemHealth) BeforeCreate(tx *gorm.DB) error {
	return sh.Validate()
}

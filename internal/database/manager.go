package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Ayash-Bera/searchable/internal/models"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// ErrDisabled is returned by probes of a backend that was never configured
var ErrDisabled = errors.New("backend not configured")

// Database connection manager. Both backends are optional: DB or Redis stay nil
// when their URL is empty or the connection failed at startup.
type Manager struct {
	DB     *gorm.DB
	Redis  *redis.Client
	logger *logrus.Logger
}

// Database configuration
type Config struct {
	DatabaseURL string
	RedisURL    string
	LogLevel    string
}

// NewManager connects whatever is configured. Connection failures are logged and
// the affected backend is left disabled, so the service still runs without it.
func NewManager(ctx context.Context, config *Config, logger *logrus.Logger) *Manager {
	m := &Manager{logger: logger}

	if config.DatabaseURL == "" {
		logger.Info("DATABASE_URL not set, analytics disabled")
	} else if db, err := openPostgres(ctx, config, logger); err != nil {
		logger.WithError(err).Warn("Postgres unavailable, analytics disabled")
	} else {
		m.DB = db
	}

	if config.RedisURL == "" {
		logger.Info("REDIS_URL not set, result cache disabled")
	} else if client, err := openRedis(ctx, config.RedisURL); err != nil {
		logger.WithError(err).Warn("Redis unavailable, result cache disabled")
	} else {
		m.Redis = client
	}

	logger.WithFields(logrus.Fields{
		"postgres": m.HasDatabase(),
		"redis":    m.HasRedis(),
	}).Info("Storage backends initialised")

	return m
}

func openPostgres(ctx context.Context, config *Config, logger *logrus.Logger) (*gorm.DB, error) {
	// Configure GORM logger
	gormLog := gormlogger.Default.LogMode(gormlogger.Silent)
	if config.LogLevel == "debug" {
		gormLog = gormlogger.New(logger, gormlogger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  gormlogger.Info,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		})
	}

	db, err := gorm.Open(postgres.Open(config.DatabaseURL), &gorm.Config{
		Logger:                 gormLog,
		SkipDefaultTransaction: true,
		PrepareStmt:            true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetConnMaxLifetime(time.Hour)
	sqlDB.SetConnMaxIdleTime(10 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

func openRedis(ctx context.Context, url string) (*redis.Client, error) {
	redisOpts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	redisOpts.PoolSize = 20
	redisOpts.MinIdleConns = 2
	redisOpts.MaxConnAge = time.Hour
	redisOpts.IdleTimeout = 30 * time.Minute

	client := redis.NewClient(redisOpts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return client, nil
}

func (m *Manager) HasDatabase() bool { return m != nil && m.DB != nil }
func (m *Manager) HasRedis() bool    { return m != nil && m.Redis != nil }

// Migrate creates or updates the analytics tables. No-op without a database.
func (m *Manager) Migrate() error {
	if !m.HasDatabase() {
		return nil
	}
	m.logger.Info("Running database migrations...")

	if err := m.DB.AutoMigrate(
		&models.SearchQuery{},
		&models.PopularQuery{},
		&models.SystemHealth{},
	); err != nil {
		return fmt.Errorf("auto-migrate failed: %w", err)
	}
	return nil
}

// Close closes all database connections
func (m *Manager) Close() error {
	if m.Redis != nil {
		if err := m.Redis.Close(); err != nil {
			m.logger.WithError(err).Error("Failed to close Redis connection")
		}
	}

	if m.DB != nil {
		sqlDB, err := m.DB.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	}

	return nil
}

// Health check methods
func (m *Manager) PingDatabase(ctx context.Context) error {
	if !m.HasDatabase() {
		return ErrDisabled
	}
	sqlDB, err := m.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (m *Manager) PingRedis(ctx context.Context) error {
	if !m.HasRedis() {
		return ErrDisabled
	}
	return m.Redis.Ping(ctx).Err()
}

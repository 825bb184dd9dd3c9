package main

import (
	"context"
	"errors"
	"log"
	"math/rand/v2"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Ayash-Bera/searchable/internal/api"
	"github.com/Ayash-Bera/searchable/internal/api/handlers"
	"github.com/Ayash-Bera/searchable/internal/config"
	"github.com/Ayash-Bera/searchable/internal/database"
	"github.com/Ayash-Bera/searchable/internal/gemini"
	"github.com/Ayash-Bera/searchable/internal/health"
	"github.com/Ayash-Bera/searchable/internal/middleware"
	"github.com/Ayash-Bera/searchable/internal/models"
	"github.com/Ayash-Bera/searchable/internal/orchestrator"
	"github.com/Ayash-Bera/searchable/internal/repository"
	"github.com/Ayash-Bera/searchable/internal/services"
	"github.com/Ayash-Bera/searchable/internal/session"
	"github.com/Ayash-Bera/searchable/pkg/utils"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found: %v", err)
	}

	logger := utils.GetLogger()

	cfg, err := config.Load()
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}
	if err := cfg.ValidateGemini(); err != nil {
		logger.WithError(err).Warn("Gemini not configured, searches will return the fallback answer")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Storage is optional; missing backends are logged and skipped
	dbManager := database.NewManager(ctx, &database.Config{
		DatabaseURL: cfg.Database.URL,
		RedisURL:    cfg.Redis.URL,
		LogLevel:    os.Getenv("LOG_LEVEL"),
	}, logger)
	defer dbManager.Close()

	if err := dbManager.Migrate(); err != nil {
		logger.WithError(err).Error("Database migration failed")
	}

	repoManager := repository.NewRepositoryManager(dbManager.DB)
	cache := database.NewCache(dbManager.Redis, logger)

	geminiClient := gemini.NewClient(ctx, gemini.ClientConfig{
		APIKey:      cfg.Gemini.APIKey,
		BaseURL:     cfg.Gemini.BaseURL,
		AnswerModel: cfg.Gemini.AnswerModel,
		ImageModel:  cfg.Gemini.ImageModel,
	}, logger)
	geminiService := gemini.NewService(geminiClient, logger)
	searchService := services.NewSearchService(geminiService, cache, repoManager, cfg.Cache.TTL, logger)

	factory := func(sessionID string) *orchestrator.Orchestrator {
		return orchestrator.New(
			services.WithSessionID(ctx, sessionID),
			searchService,
			rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
			orchestrator.Options{
				PlaceholderBaseURL: cfg.Placeholders.BaseURL,
				CallTimeout:        cfg.Gemini.Timeout,
			},
			logger,
		)
	}
	sessions := session.NewStore(factory, rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())), cfg.Server.SessionTTL, logger)
	go sessions.Run(ctx, time.Minute)

	rateLimiter := middleware.NewRateLimiter(cfg.Server.RateLimit)
	go rateLimiter.Cleanup(ctx, time.Minute)

	var healthRepo models.SystemHealthRepository
	if repoManager != nil {
		healthRepo = repoManager.SystemHealth
	}
	checker := health.NewHealthChecker(healthRepo, cache, logger)
	checker.Register("postgresql", dbManager.PingDatabase, false)
	checker.Register("redis", dbManager.PingRedis, false)
	checker.Register("gemini", geminiClient.Ping, true)
	if cfg.Health.Interval > 0 {
		go checker.PeriodicHealthCheck(ctx, cfg.Health.Interval)
	}

	waitTimeout := cfg.Gemini.Timeout
	if waitTimeout > 0 {
		waitTimeout += 5 * time.Second
	}
	opts := handlers.Options{
		PlaceholderBaseURL: cfg.Placeholders.BaseURL,
		WaitTimeout:        waitTimeout,
		SessionTTL:         cfg.Server.SessionTTL,
	}

	router, err := api.NewRouter(
		api.RouterConfig{
			Mode:        cfg.Server.Mode,
			RateLimiter: rateLimiter,
			ImageHosts:  api.ImageHosts(cfg.Placeholders.BaseURL),
		},
		handlers.NewPageHandler(sessions, opts, logger),
		handlers.NewSearchHandler(sessions, searchService, opts, logger),
		handlers.NewHealthHandler(checker),
		logger,
	)
	if err != nil {
		logger.WithError(err).Fatal("Failed to build router")
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.WithFields(logrus.Fields{
			"port":         cfg.Server.Port,
			"answer_model": cfg.Gemini.AnswerModel,
			"image_model":  cfg.Gemini.ImageModel,
			"postgres":     dbManager.HasDatabase(),
			"redis":        dbManager.HasRedis(),
		}).Info("Server starting")

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("Server failed")
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}
	sessions.Close()

	logger.Info("Server exited")
}

package health

import (
	"context"
	"errors"
	"time"

	"github.com/Ayash-Bera/searchable/internal/database"
	"github.com/Ayash-Bera/searchable/internal/models"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
	StatusDisabled  = "disabled"
)

// Probe checks one dependency. Returning database.ErrDisabled marks the
// dependency as not configured rather than broken.
type Probe func(ctx context.Context) error

type probe struct {
	name     string
	check    Probe
	critical bool
}

// HealthChecker manages health checks for all services
type HealthChecker struct {
	probes     []probe
	healthRepo models.SystemHealthRepository
	cache      *database.Cache
	timeout    time.Duration
	started    time.Time
	logger     *logrus.Logger
}

// NewHealthChecker builds a checker with no probes. healthRepo and cache may be
// nil, in which case results are neither recorded nor cached.
func NewHealthChecker(healthRepo models.SystemHealthRepository, cache *database.Cache, logger *logrus.Logger) *HealthChecker {
	return &HealthChecker{
		healthRepo: healthRepo,
		cache:      cache,
		timeout:    10 * time.Second,
		started:    time.Now(),
		logger:     logger,
	}
}

// Register adds a probe. A failing critical probe makes the whole system
// unhealthy; any other failure only degrades it.
func (h *HealthChecker) Register(name string, check Probe, critical bool) {
	h.probes = append(h.probes, probe{name: name, check: check, critical: critical})
}

// ServiceHealth represents the health status of a service
type ServiceHealth struct {
	Name         string `json:"name"`
	Status       string `json:"status"`
	ResponseTime int    `json:"response_time_ms"`
	Error        string `json:"error,omitempty"`
	LastChecked  string `json:"last_checked"`
	critical     bool
}

// OverallHealth represents the overall system health
type OverallHealth struct {
	Status   string          `json:"status"`
	Services []ServiceHealth `json:"services"`
	Uptime   string          `json:"uptime"`
}

// CheckAll runs every probe concurrently
func (h *HealthChecker) CheckAll(ctx context.Context) OverallHealth {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	services := make([]ServiceHealth, len(h.probes))
	var g errgroup.Group
	for i, p := range h.probes {
		g.Go(func() error {
			services[i] = h.run(ctx, p)
			return nil
		})
	}
	_ = g.Wait()

	return OverallHealth{
		Status:   overallStatus(services),
		Services: services,
		Uptime:   time.Since(h.started).Round(time.Second).String(),
	}
}

func (h *HealthChecker) run(ctx context.Context, p probe) ServiceHealth {
	start := time.Now()
	err := p.check(ctx)
	responseTime := int(time.Since(start).Milliseconds())

	status := StatusHealthy
	errorMsg := ""
	switch {
	case errors.Is(err, database.ErrDisabled):
		status = StatusDisabled
	case err != nil:
		status = StatusUnhealthy
		errorMsg = err.Error()
		h.logger.WithError(err).WithField("service", p.name).Error("Health check failed")
	}

	if h.healthRepo != nil {
		if err := h.healthRepo.UpdateServiceHealth(p.name, status, responseTime, errorMsg); err != nil {
			h.logger.WithError(err).WithField("service", p.name).Warn("Failed to record health status")
		}
	}

	return ServiceHealth{
		Name:         p.name,
		Status:       status,
		ResponseTime: responseTime,
		Error:        errorMsg,
		LastChecked:  time.Now().Format(time.RFC3339),
		critical:     p.critical,
	}
}

func overallStatus(services []ServiceHealth) string {
	status := StatusHealthy
	for _, s := range services {
		if s.Status != StatusUnhealthy {
			continue
		}
		if s.critical {
			return StatusUnhealthy
		}
		status = StatusDegraded
	}
	return status
}

// CheckCached returns the snapshot of the last periodic check. Without a cached
// snapshot it falls back to the latest recorded row per service.
func (h *HealthChecker) CheckCached(ctx context.Context) (*OverallHealth, error) {
	cachedHealth, err := h.cache.GetCachedSystemHealth(ctx)
	if err != nil {
		if h.healthRepo == nil {
			return nil, err
		}
		cachedHealth, err = h.healthRepo.GetAllServicesHealth()
		if err != nil {
			return nil, err
		}
		if len(cachedHealth) == 0 {
			return nil, database.ErrCacheMiss
		}
	}

	critical := make(map[string]bool, len(h.probes))
	for _, p := range h.probes {
		critical[p.name] = p.critical
	}

	services := make([]ServiceHealth, len(cachedHealth))
	for i, health := range cachedHealth {
		services[i] = ServiceHealth{
			Name:         health.ServiceName,
			Status:       health.Status,
			ResponseTime: health.ResponseTimeMs,
			Error:        health.ErrorMessage,
			LastChecked:  health.CheckedAt.Format(time.RFC3339),
			critical:     critical[health.ServiceName],
		}
	}

	return &OverallHealth{
		Status:   overallStatus(services),
		Services: services,
		Uptime:   time.Since(h.started).Round(time.Second).String(),
	}, nil
}

// PeriodicHealthCheck runs health checks periodically and caches the snapshot
func (h *HealthChecker) PeriodicHealthCheck(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			health := h.CheckAll(ctx)

			healthModels := make([]models.SystemHealth, len(health.Services))
			for i, service := range health.Services {
				checkedAt, _ := time.Parse(time.RFC3339, service.LastChecked)
				healthModels[i] = models.SystemHealth{
					ServiceName:    service.Name,
					Status:         service.Status,
					ResponseTimeMs: service.ResponseTime,
					ErrorMessage:   service.Error,
					CheckedAt:      checkedAt,
				}
			}

			cacheCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			if err := h.cache.CacheSystemHealth(cacheCtx, healthModels, 2*interval); err != nil {
				h.logger.WithError(err).Error("Failed to cache health status")
			}
			cancel()

			h.logger.WithField("status", health.Status).Debug("Periodic health check completed")
		}
	}
}

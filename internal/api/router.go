package api

import (
	"fmt"
	"net/url"

	"github.com/Ayash-Bera/searchable/internal/api/handlers"
	"github.com/Ayash-Bera/searchable/internal/middleware"
	"github.com/Ayash-Bera/searchable/internal/view"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type RouterConfig struct {
	Mode        string
	RateLimiter *middleware.RateLimiter
	// ImageHosts are the origins the page may load images from
	ImageHosts []string
}

// NewRouter wires middleware, templates and every route
func NewRouter(
	cfg RouterConfig,
	pages *handlers.PageHandler,
	search *handlers.SearchHandler,
	healthHandler *handlers.HealthHandler,
	logger *logrus.Logger,
) (*gin.Engine, error) {
	if cfg.Mode != "" {
		gin.SetMode(cfg.Mode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.SecurityHeaders(cfg.ImageHosts...))

	tmpl, err := view.Templates()
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	r.SetHTMLTemplate(tmpl)
	r.StaticFS("/static", view.Static())

	limited := []gin.HandlerFunc{}
	if cfg.RateLimiter != nil {
		limited = append(limited, cfg.RateLimiter.RateLimit())
	}

	r.GET("/", pages.Index)
	forms := r.Group("/", limited...)
	{
		forms.POST("/search", pages.Search)
		forms.POST("/generate", pages.Generate)
	}

	v1 := r.Group("/api/v1")
	v1.GET("/health", healthHandler.HandleHealth)

	api := v1.Group("", limited...)
	{
		api.POST("/search", search.HandleSearch)
		api.POST("/topics/select", search.HandleSelectTopic)
		api.POST("/image", search.HandleImage)
		api.GET("/state", search.HandleState)
		api.GET("/trending", search.HandleTrending)
		api.GET("/placeholders", search.HandlePlaceholders)
		api.GET("/popular", search.HandlePopular)
		api.GET("/history", search.HandleHistory)
		api.GET("/recent", search.HandleRecent)
	}

	return r, nil
}

// ImageHosts returns the CSP origins for a placeholder CDN URL. Picsum serves
// its images from a separate host after a redirect.
func ImageHosts(placeholderBaseURL string) []string {
	u, err := url.Parse(placeholderBaseURL)
	if err != nil || u.Host == "" {
		return nil
	}
	hosts := []string{u.Scheme + "://" + u.Host}
	if u.Host == "picsum.photos" {
		hosts = append(hosts, u.Scheme+"://fastly.picsum.photos")
	}
	return hosts
}

package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Ayash-Bera/searchable/internal/background"
	"github.com/Ayash-Bera/searchable/internal/models"
	"github.com/Ayash-Bera/searchable/internal/orchestrator"
	"github.com/Ayash-Bera/searchable/internal/services"
	"github.com/Ayash-Bera/searchable/internal/session"
	"github.com/Ayash-Bera/searchable/pkg/utils"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// MaxQueryLength bounds accepted query text, in bytes
const MaxQueryLength = 2000

// Analytics is the read side of search history. Implementations return
// services.ErrAnalyticsDisabled when no database is configured.
type Analytics interface {
	PopularQueries(ctx context.Context, limit int) ([]models.PopularQuery, error)
	History(sessionID string, limit int) ([]models.SearchQuery, error)
	RecentSearches(limit int) ([]models.SearchQuery, error)
}

type Options struct {
	// PlaceholderBaseURL is the CDN endpoint for placeholder images
	PlaceholderBaseURL string
	// WaitTimeout bounds how long a request waits for a search or image to resolve
	WaitTimeout time.Duration
	// SessionTTL is the cookie lifetime
	SessionTTL time.Duration
}

type SearchHandler struct {
	sessions  *session.Store
	analytics Analytics
	opts      Options
	logger    *logrus.Logger
}

func NewSearchHandler(
	sessions *session.Store,
	analytics Analytics,
	opts Options,
	logger *logrus.Logger,
) *SearchHandler {
	return &SearchHandler{
		sessions:  sessions,
		analytics: analytics,
		opts:      opts,
		logger:    logger,
	}
}

// HandleSearch submits a query for the caller's session. With ?wait=true the
// response carries the resolved state; otherwise it returns 202 at once.
func (h *SearchHandler) HandleSearch(c *gin.Context) {
	var req models.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request format", err)
		return
	}
	h.submit(c, req.Query)
}

// HandleSelectTopic resubmits a trending topic label as a query
func (h *SearchHandler) HandleSelectTopic(c *gin.Context) {
	var req models.TopicRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request format", err)
		return
	}
	h.submit(c, req.Label)
}

func (h *SearchHandler) submit(c *gin.Context, raw string) {
	query := strings.TrimSpace(raw)
	if query == "" {
		utils.ErrorResponse(c, http.StatusBadRequest, "Query cannot be empty", nil)
		return
	}
	if len(query) > MaxQueryLength {
		utils.ErrorResponse(c, http.StatusBadRequest, "Query too long (max 2000 characters)", nil)
		return
	}

	sess := currentSession(c, h.sessions, h.opts.SessionTTL)
	ticket, ok := sess.Orchestrator.Submit(query)
	if !ok {
		utils.ErrorResponse(c, http.StatusBadRequest, "Query cannot be empty", nil)
		return
	}

	h.logger.WithFields(logrus.Fields{
		"query":      query,
		"session_id": sess.ID,
		"token":      ticket.Token,
		"client_ip":  c.ClientIP(),
	}).Info("Processing search request")

	h.respond(c, sess, ticket, "Search submitted", "Search completed")
}

// HandleImage starts an illustration of the current query
func (h *SearchHandler) HandleImage(c *gin.Context) {
	sess := currentSession(c, h.sessions, h.opts.SessionTTL)
	ticket, ok := sess.Orchestrator.RequestImage()
	if !ok {
		utils.ErrorResponse(c, http.StatusConflict, "Nothing to illustrate or generation already running", nil)
		return
	}
	h.respond(c, sess, ticket, "Image generation started", "Image generation completed")
}

func (h *SearchHandler) respond(c *gin.Context, sess *session.Session, ticket orchestrator.Ticket, pending, done string) {
	if c.Query("wait") != "true" {
		utils.SuccessResponse(c, http.StatusAccepted, pending, stateResponse(sess.Orchestrator.Snapshot()))
		return
	}

	if err := waitFor(c.Request.Context(), ticket, h.opts.WaitTimeout); err != nil {
		utils.SuccessResponse(c, http.StatusAccepted, pending, stateResponse(sess.Orchestrator.Snapshot()))
		return
	}
	utils.SuccessResponse(c, http.StatusOK, done, stateResponse(sess.Orchestrator.Snapshot()))
}

// HandleState returns the caller's current state
func (h *SearchHandler) HandleState(c *gin.Context) {
	sess := currentSession(c, h.sessions, h.opts.SessionTTL)
	utils.SuccessResponse(c, http.StatusOK, "State retrieved", stateResponse(sess.Orchestrator.Snapshot()))
}

// HandleTrending returns the caller's trending topics
func (h *SearchHandler) HandleTrending(c *gin.Context) {
	sess := currentSession(c, h.sessions, h.opts.SessionTTL)
	utils.SuccessResponse(c, http.StatusOK, "Trending topics retrieved", sess.Orchestrator.Snapshot().Trending)
}

// HandlePlaceholders derives the placeholder images for ?q=
func (h *SearchHandler) HandlePlaceholders(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		utils.ErrorResponse(c, http.StatusBadRequest, "Query parameter 'q' is required", nil)
		return
	}
	images := orchestrator.DerivePlaceholders(h.opts.PlaceholderBaseURL, query, orchestrator.PlaceholderCount)
	utils.SuccessResponse(c, http.StatusOK, "Placeholders derived", images)
}

// HandlePopular returns the most searched queries
func (h *SearchHandler) HandlePopular(c *gin.Context) {
	limit := parseLimit(c, 10, 50)
	queries, err := h.analytics.PopularQueries(c.Request.Context(), limit)
	if err != nil {
		h.analyticsError(c, err, "Failed to get popular queries")
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Popular queries retrieved", queries)
}

// HandleHistory returns the caller's own past searches
func (h *SearchHandler) HandleHistory(c *gin.Context) {
	sess := currentSession(c, h.sessions, h.opts.SessionTTL)
	limit := parseLimit(c, 20, 100)
	history, err := h.analytics.History(sess.ID, limit)
	if err != nil {
		h.analyticsError(c, err, "Failed to get search history")
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Search history retrieved", history)
}

// HandleRecent returns the latest searches across sessions
func (h *SearchHandler) HandleRecent(c *gin.Context) {
	limit := parseLimit(c, 20, 100)
	recent, err := h.analytics.RecentSearches(limit)
	if err != nil {
		h.analyticsError(c, err, "Failed to get recent searches")
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Recent searches retrieved", recent)
}

func (h *SearchHandler) analyticsError(c *gin.Context, err error, msg string) {
	if errors.Is(err, services.ErrAnalyticsDisabled) {
		utils.ErrorResponse(c, http.StatusServiceUnavailable, "Analytics unavailable", err)
		return
	}
	h.logger.WithError(err).Error(msg)
	utils.ErrorResponse(c, http.StatusInternalServerError, msg, err)
}

func parseLimit(c *gin.Context, def, max int) int {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(def)))
	if err != nil || limit <= 0 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}

func waitFor(ctx context.Context, ticket orchestrator.Ticket, timeout time.Duration) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return ticket.Wait(ctx)
}

func stateResponse(s orchestrator.State) models.StateResponse {
	return models.StateResponse{
		Phase:          string(s.Phase()),
		Query:          s.Query,
		Theme:          s.Theme,
		Backdrop:       background.Backdrop(s.Theme).Class,
		Searching:      s.Searching,
		Result:         s.Result,
		Placeholders:   s.Placeholders,
		Generating:     s.Generating,
		GeneratedImage: s.GeneratedImage.DataURI(),
		Trending:       s.Trending,
	}
}

package handlers

import (
	"net/http"
	"strings"

	"github.com/Ayash-Bera/searchable/internal/session"
	"github.com/Ayash-Bera/searchable/internal/view"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// PageHandler serves the server-rendered page and its form posts
type PageHandler struct {
	sessions *session.Store
	opts     Options
	logger   *logrus.Logger
}

func NewPageHandler(sessions *session.Store, opts Options, logger *logrus.Logger) *PageHandler {
	return &PageHandler{
		sessions: sessions,
		opts:     opts,
		logger:   logger,
	}
}

// Index renders the page. Rendering consumes the pending scroll request.
func (h *PageHandler) Index(c *gin.Context) {
	sess := currentSession(c, h.sessions, h.opts.SessionTTL)
	state := sess.Orchestrator.TakeView()
	c.HTML(http.StatusOK, "index.html", view.NewPage(state, sess.Stars))
}

// Search handles the search box and trending chips. It waits for the answer
// so the redirected page shows it; blank or oversized input just redirects.
func (h *PageHandler) Search(c *gin.Context) {
	sess := currentSession(c, h.sessions, h.opts.SessionTTL)
	query := strings.TrimSpace(c.PostForm("q"))
	if len(query) > MaxQueryLength {
		c.Redirect(http.StatusSeeOther, "/")
		return
	}

	if ticket, ok := sess.Orchestrator.Submit(query); ok {
		if err := waitFor(c.Request.Context(), ticket, h.opts.WaitTimeout); err != nil {
			h.logger.WithError(err).WithField("query", query).Warn("Search still running at redirect")
		}
	}
	c.Redirect(http.StatusSeeOther, "/")
}

// Generate handles the GENERATE NEW button
func (h *PageHandler) Generate(c *gin.Context) {
	sess := currentSession(c, h.sessions, h.opts.SessionTTL)
	if ticket, ok := sess.Orchestrator.RequestImage(); ok {
		if err := waitFor(c.Request.Context(), ticket, h.opts.WaitTimeout); err != nil {
			h.logger.WithError(err).Warn("Image generation still running at redirect")
		}
	}
	c.Redirect(http.StatusSeeOther, "/")
}

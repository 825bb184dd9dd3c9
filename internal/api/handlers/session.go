package handlers

import (
	"net/http"
	"time"

	"github.com/Ayash-Bera/searchable/internal/session"
	"github.com/gin-gonic/gin"
)

// currentSession resolves the caller's session from the X-Session-ID header or
// the session cookie, creating one when neither names a live session.
func currentSession(c *gin.Context, store *session.Store, ttl time.Duration) *session.Session {
	id := c.GetHeader(session.HeaderName)
	if id == "" {
		id, _ = c.Cookie(session.CookieName)
	}

	sess, created := store.GetOrCreate(id)
	if created {
		http.SetCookie(c.Writer, &http.Cookie{
			Name:     session.CookieName,
			Value:    sess.ID,
			Path:     "/",
			MaxAge:   int(ttl.Seconds()),
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}
	c.Header(session.HeaderName, sess.ID)
	c.Set("session_id", sess.ID)
	return sess
}

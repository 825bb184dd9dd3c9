package session

import (
	"context"
	"sync"
	"time"

	"github.com/Ayash-Bera/searchable/internal/background"
	"github.com/Ayash-Bera/searchable/internal/orchestrator"
	"github.com/Ayash-Bera/searchable/pkg/utils"
	"github.com/sirupsen/logrus"
)

const (
	CookieName = "searchable_sid"
	HeaderName = "X-Session-ID"
)

// Session is one browser's page. The star field is generated once when the
// session starts and reused for every render.
type Session struct {
	ID           string
	Orchestrator *orchestrator.Orchestrator
	Stars        []background.Star

	lastSeen time.Time
}

// Factory builds the orchestrator for a new session
type Factory func(sessionID string) *orchestrator.Orchestrator

type Store struct {
	factory Factory
	ttl     time.Duration
	logger  *logrus.Logger
	now     func() time.Time

	mu       sync.Mutex
	stars    background.Source
	sessions map[string]*Session
}

// NewStore creates an empty store. stars feeds each new session's star field.
func NewStore(factory Factory, stars background.Source, ttl time.Duration, logger *logrus.Logger) *Store {
	return &Store{
		factory:  factory,
		ttl:      ttl,
		logger:   logger,
		now:      time.Now,
		stars:    stars,
		sessions: make(map[string]*Session),
	}
}

// Get returns the session for id and refreshes its idle timer
func (s *Store) Get(id string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if ok {
		sess.lastSeen = s.now()
	}
	return sess, ok
}

// GetOrCreate returns the live session for id. Unknown, expired or malformed
// ids get a fresh session with a new id; created reports that case.
func (s *Store) GetOrCreate(id string) (sess *Session, created bool) {
	if utils.ValidateSessionID(id) {
		if sess, ok := s.Get(id); ok {
			return sess, false
		}
	}

	id = utils.NewSessionID()

	s.mu.Lock()
	stars := background.GenerateStars(s.stars, background.StarCount)
	s.mu.Unlock()

	sess = &Session{
		ID:           id,
		Orchestrator: s.factory(id),
		Stars:        stars,
		lastSeen:     s.now(),
	}

	s.mu.Lock()
	s.sessions[id] = sess
	count := len(s.sessions)
	s.mu.Unlock()

	s.logger.WithFields(logrus.Fields{
		"session_id": id,
		"sessions":   count,
	}).Debug("Session created")

	return sess, true
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Sweep closes and removes sessions idle for longer than the TTL
func (s *Store) Sweep() int {
	cutoff := s.now().Add(-s.ttl)

	s.mu.Lock()
	var expired []*Session
	for id, sess := range s.sessions {
		if sess.lastSeen.Before(cutoff) {
			expired = append(expired, sess)
			delete(s.sessions, id)
		}
	}
	s.mu.Unlock()

	for _, sess := range expired {
		sess.Orchestrator.Close()
	}
	if len(expired) > 0 {
		s.logger.WithField("expired", len(expired)).Info("Expired idle sessions")
	}
	return len(expired)
}

// Run sweeps on every tick until ctx is done, then closes every session
func (s *Store) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.Sweep()
		case <-ctx.Done():
			s.Close()
			return
		}
	}
}

// Close cancels every session's in-flight calls and empties the store
func (s *Store) Close() {
	s.mu.Lock()
	sessions := s.sessions
	s.sessions = make(map[string]*Session)
	s.mu.Unlock()

	for _, sess := range sessions {
		sess.Orchestrator.Close()
	}
}

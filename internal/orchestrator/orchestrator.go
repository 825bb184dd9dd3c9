package orchestrator

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/Ayash-Bera/searchable/internal/models"
	"github.com/sirupsen/logrus"
)

// QueryService is the remote side. Both calls are total: failures come back as
// a fallback result or a nil image, never as an error.
type QueryService interface {
	AnswerQuery(ctx context.Context, query string) models.SearchResult
	GenerateImage(ctx context.Context, prompt string) *models.GeneratedImage
}

type Options struct {
	// PlaceholderBaseURL is the CDN endpoint placeholder seeds are appended to
	PlaceholderBaseURL string
	// CallTimeout bounds each remote call; zero means no limit
	CallTimeout time.Duration
}

// Ticket identifies one accepted submission. Done is closed once its call has
// resolved, whether or not the result was applied.
type Ticket struct {
	Token uint64
	Done  <-chan struct{}
}

// Wait blocks until the ticket resolves or ctx ends
func (t Ticket) Wait(ctx context.Context) error {
	if t.Done == nil {
		return nil
	}
	select {
	case <-t.Done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Orchestrator owns one session's view state. All mutations happen under mu, so
// completions and user actions never interleave mid-update.
type Orchestrator struct {
	service QueryService
	entropy Entropy
	opts    Options
	logger  *logrus.Logger

	base context.Context
	stop context.CancelFunc

	mu           sync.Mutex
	state        State
	searchToken  uint64
	imageToken   uint64
	cancelSearch context.CancelFunc
	cancelImage  context.CancelFunc
}

// New builds an orchestrator. ctx carries request-scoped values (such as the
// session id) into every remote call and cancels them all when done.
func New(ctx context.Context, service QueryService, entropy Entropy, opts Options, logger *logrus.Logger) *Orchestrator {
	base, stop := context.WithCancel(ctx)
	return &Orchestrator{
		service: service,
		entropy: entropy,
		opts:    opts,
		logger:  logger,
		base:    base,
		stop:    stop,
		state:   InitialState(),
	}
}

// Submit starts a search. Blank queries are ignored and return false.
// Any search or image generation still in flight is cancelled, and its result
// will be discarded even if it arrives.
func (o *Orchestrator) Submit(query string) (Ticket, bool) {
	query = strings.TrimSpace(query)
	if query == "" {
		return Ticket{}, false
	}

	o.mu.Lock()
	next, ok := o.state.Submit(query, ChooseTheme(o.entropy))
	if !ok {
		o.mu.Unlock()
		return Ticket{}, false
	}
	o.state = next
	o.searchToken++
	token := o.searchToken
	o.cancelLocked()
	ctx, cancel := o.callContext()
	o.cancelSearch = cancel
	o.mu.Unlock()

	o.logger.WithFields(logrus.Fields{
		"query": query,
		"token": token,
		"theme": next.Theme,
	}).Debug("Search submitted")

	done := make(chan struct{})
	go o.runSearch(ctx, cancel, token, query, done)
	return Ticket{Token: token, Done: done}, true
}

// SelectTopic resubmits a trending topic's label
func (o *Orchestrator) SelectTopic(label string) (Ticket, bool) {
	return o.Submit(label)
}

// RequestImage generates an illustration for the current query. It is ignored
// when there is no query yet or a generation is already running.
func (o *Orchestrator) RequestImage() (Ticket, bool) {
	o.mu.Lock()
	next, ok := o.state.BeginImage()
	if !ok {
		o.mu.Unlock()
		return Ticket{}, false
	}
	o.state = next
	o.imageToken++
	token := o.imageToken
	searchToken := o.searchToken
	prompt := next.Query
	ctx, cancel := o.callContext()
	o.cancelImage = cancel
	o.mu.Unlock()

	o.logger.WithFields(logrus.Fields{
		"prompt": prompt,
		"token":  token,
	}).Debug("Image generation requested")

	done := make(chan struct{})
	go o.runImage(ctx, cancel, token, searchToken, prompt, done)
	return Ticket{Token: token, Done: done}, true
}

// Snapshot returns a copy of the current state
func (o *Orchestrator) Snapshot() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state.Clone()
}

// TakeView returns a copy of the state for rendering and consumes the pending
// scroll request, so the page scrolls to a new result exactly once.
func (o *Orchestrator) TakeView() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	view := o.state.Clone()
	o.state.ScrollToResults = false
	return view
}

// Close cancels every call in flight. Late completions are dropped.
func (o *Orchestrator) Close() {
	o.stop()
}

func (o *Orchestrator) runSearch(ctx context.Context, cancel context.CancelFunc, token uint64, query string, done chan struct{}) {
	defer close(done)
	defer cancel()

	start := time.Now()
	result := o.service.AnswerQuery(ctx, query)
	placeholders := DerivePlaceholders(o.opts.PlaceholderBaseURL, query, PlaceholderCount)

	o.mu.Lock()
	defer o.mu.Unlock()

	if token != o.searchToken || o.base.Err() != nil {
		o.logger.WithFields(logrus.Fields{
			"query":  query,
			"token":  token,
			"latest": o.searchToken,
		}).Debug("Discarding stale search result")
		return
	}

	o.state = o.state.ResolveSearch(result, placeholders)
	o.cancelSearch = nil

	o.logger.WithFields(logrus.Fields{
		"query":         query,
		"sources":       len(result.Sources),
		"response_time": time.Since(start).Milliseconds(),
	}).Info("Search resolved")
}

func (o *Orchestrator) runImage(ctx context.Context, cancel context.CancelFunc, token, searchToken uint64, prompt string, done chan struct{}) {
	defer close(done)
	defer cancel()

	img := o.service.GenerateImage(ctx, prompt)

	o.mu.Lock()
	defer o.mu.Unlock()

	if token != o.imageToken || searchToken != o.searchToken || o.base.Err() != nil {
		o.logger.WithField("prompt", prompt).Debug("Discarding stale generated image")
		return
	}

	o.state = o.state.ResolveImage(img)
	o.cancelImage = nil

	o.logger.WithFields(logrus.Fields{
		"prompt":    prompt,
		"generated": img != nil,
	}).Info("Image generation resolved")
}

// cancelLocked aborts the calls a new search supersedes. mu must be held.
func (o *Orchestrator) cancelLocked() {
	if o.cancelSearch != nil {
		o.cancelSearch()
		o.cancelSearch = nil
	}
	if o.cancelImage != nil {
		o.cancelImage()
		o.cancelImage = nil
	}
}

func (o *Orchestrator) callContext() (context.Context, context.CancelFunc) {
	if o.opts.CallTimeout > 0 {
		return context.WithTimeout(o.base, o.opts.CallTimeout)
	}
	return context.WithCancel(o.base)
}

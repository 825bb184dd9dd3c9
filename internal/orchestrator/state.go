package orchestrator

import (
	"strings"

	"github.com/Ayash-Bera/searchable/internal/models"
)

type Phase string

const (
	PhaseIdle            Phase = "idle"
	PhaseSearching       Phase = "searching"
	PhaseResultsReady    Phase = "results_ready"
	PhaseImageGenerating Phase = "image_generating"
)

// State is everything the page renders from. Transitions are value methods that
// return the next state, so they can be exercised without goroutines.
type State struct {
	Query           string
	Searching       bool
	Theme           models.SpaceTheme
	Result          *models.SearchResult
	Placeholders    []models.PlaceholderImage
	Trending        []models.Topic
	GeneratedImage  *models.GeneratedImage
	Generating      bool
	ScrollToResults bool
}

func InitialState() State {
	return State{
		Theme:    models.ThemeDeepSpace,
		Trending: SeedTopics(),
	}
}

func (s State) Phase() Phase {
	switch {
	case s.Searching:
		return PhaseSearching
	case s.Result == nil:
		return PhaseIdle
	case s.Generating:
		return PhaseImageGenerating
	default:
		return PhaseResultsReady
	}
}

// Submit starts a search for query. Blank queries leave the state untouched.
func (s State) Submit(query string, theme models.SpaceTheme) (State, bool) {
	query = strings.TrimSpace(query)
	if query == "" {
		return s, false
	}

	s.Query = query
	s.Searching = true
	s.Theme = theme
	s.Result = nil
	s.Placeholders = nil
	s.GeneratedImage = nil
	s.Generating = false
	s.ScrollToResults = false
	return s, true
}

// ResolveSearch applies the answer of the current search
func (s State) ResolveSearch(result models.SearchResult, placeholders []models.PlaceholderImage) State {
	s.Searching = false
	s.Result = &result
	s.Placeholders = placeholders
	if len(result.RelatedTopics) > 0 {
		s.Trending = TopicsFromRelated(result.RelatedTopics)
	}
	s.ScrollToResults = true
	return s
}

// BeginImage marks an image generation as in flight. It is refused until the
// current search has resolved, and while another generation is running.
func (s State) BeginImage() (State, bool) {
	if s.Query == "" || s.Searching || s.Result == nil || s.Generating {
		return s, false
	}
	s.Generating = true
	return s, true
}

// ResolveImage stores the generated image; nil leaves the panel empty
func (s State) ResolveImage(img *models.GeneratedImage) State {
	s.Generating = false
	s.GeneratedImage = img
	return s
}

// Clone copies the slices so the caller can hand the state out of the lock
func (s State) Clone() State {
	if s.Result != nil {
		r := *s.Result
		r.Sources = append([]models.Source(nil), r.Sources...)
		r.RelatedTopics = append([]string(nil), r.RelatedTopics...)
		s.Result = &r
	}
	s.Placeholders = append([]models.PlaceholderImage(nil), s.Placeholders...)
	s.Trending = append([]models.Topic(nil), s.Trending...)
	return s
}

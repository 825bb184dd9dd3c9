package handlers

import (
	"context"
	"encoding/json"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Ayash-Bera/searchable/internal/gemini"
	"github.com/Ayash-Bera/searchable/internal/health"
	"github.com/Ayash-Bera/searchable/internal/models"
	"github.com/Ayash-Bera/searchable/internal/orchestrator"
	"github.com/Ayash-Bera/searchable/internal/services"
	"github.com/Ayash-Bera/searchable/internal/session"
	"github.com/Ayash-Bera/searchable/internal/view"
	"github.com/Ayash-Bera/searchable/pkg/utils"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const cdn = "https://picsum.photos/400/300"

// fakeQueries answers every query. "offline" falls back, and "slow" blocks
// until gate is closed.
type fakeQueries struct {
	mu      sync.Mutex
	answers int
	images  int
	gate    chan struct{}
}

func (f *fakeQueries) AnswerQuery(ctx context.Context, query string) models.SearchResult {
	f.mu.Lock()
	f.answers++
	gate := f.gate
	f.mu.Unlock()
	if query == "slow" && gate != nil {
		<-gate
	}
	if query == "offline" {
		return gemini.FallbackResult()
	}
	return models.SearchResult{
		Answer:        "About " + query,
		Sources:       []models.Source{{URI: "https://example.com", Title: "example.com"}},
		RelatedTopics: gemini.RelatedTopics(query),
	}
}

func (f *fakeQueries) GenerateImage(ctx context.Context, prompt string) *models.GeneratedImage {
	f.mu.Lock()
	f.images++
	f.mu.Unlock()
	return &models.GeneratedImage{MIMEType: "image/png", Data: []byte{0x89, 0x50}}
}

func (f *fakeQueries) counts() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.answers, f.images
}

type fakeAnalytics struct {
	disabled bool
}

func (f fakeAnalytics) PopularQueries(ctx context.Context, limit int) ([]models.PopularQuery, error) {
	if f.disabled {
		return nil, services.ErrAnalyticsDisabled
	}
	return []models.PopularQuery{{QueryText: "fusion", SearchCount: limit}}, nil
}

func (f fakeAnalytics) History(sessionID string, limit int) ([]models.SearchQuery, error) {
	if f.disabled {
		return nil, services.ErrAnalyticsDisabled
	}
	return []models.SearchQuery{{QueryText: "fusion", UserSession: sessionID, SourcesCount: limit}}, nil
}

func (f fakeAnalytics) RecentSearches(limit int) ([]models.SearchQuery, error) {
	if f.disabled {
		return nil, services.ErrAnalyticsDisabled
	}
	return []models.SearchQuery{}, nil
}

// fixedEntropy always picks the same theme
type fixedEntropy int

func (e fixedEntropy) IntN(n int) int { return int(e) % n }

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

type testServer struct {
	router  *gin.Engine
	queries *fakeQueries
	store   *session.Store
}

func newTestServer(t *testing.T, analytics Analytics) *testServer {
	t.Helper()
	logger := utils.NewTestLogger()
	queries := &fakeQueries{gate: make(chan struct{})}
	t.Cleanup(func() { close(queries.gate) })

	factory := func(id string) *orchestrator.Orchestrator {
		return orchestrator.New(services.WithSessionID(context.Background(), id), queries,
			fixedEntropy(1), orchestrator.Options{PlaceholderBaseURL: cdn}, logger)
	}
	store := session.NewStore(factory, rand.New(rand.NewPCG(3, 4)), time.Minute, logger)
	t.Cleanup(store.Close)

	opts := Options{PlaceholderBaseURL: cdn, WaitTimeout: 5 * time.Second, SessionTTL: time.Minute}
	search := NewSearchHandler(store, analytics, opts, logger)
	pages := NewPageHandler(store, opts, logger)

	checker := health.NewHealthChecker(nil, nil, logger)
	checker.Register("gemini", func(context.Context) error { return nil }, true)

	tmpl, err := view.Templates()
	require.NoError(t, err)

	r := gin.New()
	r.SetHTMLTemplate(tmpl)
	r.GET("/", pages.Index)
	r.POST("/search", pages.Search)
	r.POST("/generate", pages.Generate)
	v1 := r.Group("/api/v1")
	v1.GET("/health", NewHealthHandler(checker).HandleHealth)
	v1.POST("/search", search.HandleSearch)
	v1.POST("/topics/select", search.HandleSelectTopic)
	v1.POST("/image", search.HandleImage)
	v1.GET("/state", search.HandleState)
	v1.GET("/trending", search.HandleTrending)
	v1.GET("/placeholders", search.HandlePlaceholders)
	v1.GET("/popular", search.HandlePopular)
	v1.GET("/history", search.HandleHistory)
	v1.GET("/recent", search.HandleRecent)

	return &testServer{router: r, queries: queries, store: store}
}

func (s *testServer) do(t *testing.T, method, path, body, sessionID string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if sessionID != "" {
		req.Header.Set(session.HeaderName, sessionID)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var env envelope
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}

func decodeState(t *testing.T, env envelope) models.StateResponse {
	t.Helper()
	var state models.StateResponse
	require.NoError(t, json.Unmarshal(env.Data, &state))
	return state
}

func TestHandleSearch_Wait(t *testing.T) {
	s := newTestServer(t, fakeAnalytics{})

	w, env := s.do(t, http.MethodPost, "/api/v1/search?wait=true", `{"query":"  fusion "}`, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, env.Success)

	state := decodeState(t, env)
	assert.Equal(t, "results_ready", state.Phase)
	assert.Equal(t, "fusion", state.Query)
	require.NotNil(t, state.Result)
	assert.Equal(t, "About fusion", state.Result.Answer)
	assert.Len(t, state.Placeholders, 4)
	assert.Equal(t, "Future of fusion", state.Trending[0].Label)
	assert.Equal(t, "backdrop-mars", state.Backdrop)

	sid := w.Header().Get(session.HeaderName)
	assert.True(t, utils.ValidateSessionID(sid))
	assert.Contains(t, w.Header().Get("Set-Cookie"), session.CookieName+"="+sid)
}

func TestHandleSearch_Rejects(t *testing.T) {
	s := newTestServer(t, fakeAnalytics{})

	tests := []struct {
		name string
		body string
	}{
		{"missing", `{}`},
		{"blank", `{"query":"   "}`},
		{"too long", `{"query":"` + strings.Repeat("a", MaxQueryLength+1) + `"}`},
		{"malformed", `{"query":`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, env := s.do(t, http.MethodPost, "/api/v1/search", tt.body, "")
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.False(t, env.Success)
		})
	}

	answers, _ := s.queries.counts()
	assert.Zero(t, answers)
}

func TestHandleSearch_Async(t *testing.T) {
	s := newTestServer(t, fakeAnalytics{})

	w, env := s.do(t, http.MethodPost, "/api/v1/search", `{"query":"fusion"}`, "")
	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, "Search submitted", env.Message)

	sid := w.Header().Get(session.HeaderName)
	sess, ok := s.store.Get(sid)
	require.True(t, ok)
	assert.Eventually(t, func() bool {
		return sess.Orchestrator.Snapshot().Phase() == orchestrator.PhaseResultsReady
	}, 5*time.Second, 10*time.Millisecond)

	_, env = s.do(t, http.MethodGet, "/api/v1/state", "", sid)
	assert.Equal(t, "About fusion", decodeState(t, env).Result.Answer)
}

func TestHandleSelectTopic(t *testing.T) {
	s := newTestServer(t, fakeAnalytics{})

	w, env := s.do(t, http.MethodPost, "/api/v1/topics/select?wait=true", `{"label":"Fusion Energy"}`, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Fusion Energy", decodeState(t, env).Query)
}

func TestHandleImage(t *testing.T) {
	s := newTestServer(t, fakeAnalytics{})

	w, _ := s.do(t, http.MethodPost, "/api/v1/image", "", "")
	assert.Equal(t, http.StatusConflict, w.Code, "no query yet")
	_, images := s.queries.counts()
	assert.Zero(t, images)

	w, _ = s.do(t, http.MethodPost, "/api/v1/search?wait=true", `{"query":"nebula"}`, "")
	sid := w.Header().Get(session.HeaderName)

	w, env := s.do(t, http.MethodPost, "/api/v1/image?wait=true", "", sid)
	require.Equal(t, http.StatusOK, w.Code)
	state := decodeState(t, env)
	assert.False(t, state.Generating)
	assert.Equal(t, "data:image/png;base64,iVA=", state.GeneratedImage)
}

func TestHandleImage_RefusedWhileSearching(t *testing.T) {
	s := newTestServer(t, fakeAnalytics{})

	w, _ := s.do(t, http.MethodPost, "/api/v1/search", `{"query":"slow"}`, "")
	require.Equal(t, http.StatusAccepted, w.Code)
	sid := w.Header().Get(session.HeaderName)

	w, env := s.do(t, http.MethodPost, "/api/v1/image", "", sid)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.False(t, env.Success)

	_, env = s.do(t, http.MethodGet, "/api/v1/state", "", sid)
	state := decodeState(t, env)
	assert.Equal(t, "searching", state.Phase)
	assert.False(t, state.Generating)

	_, images := s.queries.counts()
	assert.Zero(t, images)
}

func TestHandleSearch_FallbackKeepsTrending(t *testing.T) {
	s := newTestServer(t, fakeAnalytics{})

	_, env := s.do(t, http.MethodPost, "/api/v1/search?wait=true", `{"query":"offline"}`, "")
	state := decodeState(t, env)
	require.NotNil(t, state.Result)
	assert.Equal(t, gemini.FallbackAnswerText, state.Result.Answer)
	assert.Equal(t, orchestrator.SeedTopics(), state.Trending)
}

func TestHandleTrendingAndState_Initial(t *testing.T) {
	s := newTestServer(t, fakeAnalytics{})

	w, env := s.do(t, http.MethodGet, "/api/v1/trending", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	var topics []models.Topic
	require.NoError(t, json.Unmarshal(env.Data, &topics))
	assert.Equal(t, orchestrator.SeedTopics(), topics)

	_, env = s.do(t, http.MethodGet, "/api/v1/state", "", "")
	state := decodeState(t, env)
	assert.Equal(t, "idle", state.Phase)
	assert.Nil(t, state.Result)
}

func TestHandlePlaceholders(t *testing.T) {
	s := newTestServer(t, fakeAnalytics{})

	w, env := s.do(t, http.MethodGet, "/api/v1/placeholders?q=Mars%20Colonization", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	var images []models.PlaceholderImage
	require.NoError(t, json.Unmarshal(env.Data, &images))
	assert.Equal(t, orchestrator.DerivePlaceholders(cdn, "Mars Colonization", 4), images)

	w, _ = s.do(t, http.MethodGet, "/api/v1/placeholders", "", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAnalyticsEndpoints(t *testing.T) {
	s := newTestServer(t, fakeAnalytics{})

	w, env := s.do(t, http.MethodGet, "/api/v1/popular?limit=500", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	var popular []models.PopularQuery
	require.NoError(t, json.Unmarshal(env.Data, &popular))
	assert.Equal(t, 50, popular[0].SearchCount, "limit is capped")

	w, env = s.do(t, http.MethodGet, "/api/v1/history", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	var history []models.SearchQuery
	require.NoError(t, json.Unmarshal(env.Data, &history))
	assert.Equal(t, w.Header().Get(session.HeaderName), history[0].UserSession)
	assert.Equal(t, 20, history[0].SourcesCount, "default history limit")

	_, env = s.do(t, http.MethodGet, "/api/v1/history?limit=1000", "", "")
	require.NoError(t, json.Unmarshal(env.Data, &history))
	assert.Equal(t, 100, history[0].SourcesCount, "history limit is capped")

	w, _ = s.do(t, http.MethodGet, "/api/v1/recent", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAnalyticsEndpoints_Disabled(t *testing.T) {
	s := newTestServer(t, fakeAnalytics{disabled: true})

	for _, path := range []string{"/api/v1/popular", "/api/v1/history", "/api/v1/recent"} {
		w, env := s.do(t, http.MethodGet, path, "", "")
		assert.Equal(t, http.StatusServiceUnavailable, w.Code, path)
		assert.False(t, env.Success)
	}
}

func TestHandleHealth(t *testing.T) {
	s := newTestServer(t, fakeAnalytics{})

	w, env := s.do(t, http.MethodGet, "/api/v1/health", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	var result health.OverallHealth
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.Equal(t, health.StatusHealthy, result.Status)
	require.Len(t, result.Services, 1)
	assert.Equal(t, "gemini", result.Services[0].Name)
}

func postForm(s *testServer, path string, form url.Values, cookie *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func getPage(s *testServer, cookie *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func sessionCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == session.CookieName {
			return c
		}
	}
	t.Fatal("no session cookie set")
	return nil
}

func TestPages_SearchFlow(t *testing.T) {
	s := newTestServer(t, fakeAnalytics{})

	w := getPage(s, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Powered by Gemini AI")
	cookie := sessionCookie(t, w)

	w = postForm(s, "/search", url.Values{"q": {"fusion"}}, cookie)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))

	w = getPage(s, cookie)
	body := w.Body.String()
	assert.Contains(t, body, "About fusion")
	assert.Contains(t, body, `data-scroll="results"`)
	assert.Contains(t, body, "Future of fusion")

	// the scroll request is consumed by the first render
	assert.NotContains(t, getPage(s, cookie).Body.String(), `data-scroll="results"`)

	w = postForm(s, "/generate", nil, cookie)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Contains(t, getPage(s, cookie).Body.String(), "data:image/png;base64,iVA=")
}

func TestPages_BlankSearchIsNoop(t *testing.T) {
	s := newTestServer(t, fakeAnalytics{})

	cookie := sessionCookie(t, getPage(s, nil))
	w := postForm(s, "/search", url.Values{"q": {"   "}}, cookie)
	assert.Equal(t, http.StatusSeeOther, w.Code)

	answers, _ := s.queries.counts()
	assert.Zero(t, answers)
	assert.Contains(t, getPage(s, cookie).Body.String(), "Powered by Gemini AI")
}

func TestPages_GenerateWithoutQuery(t *testing.T) {
	s := newTestServer(t, fakeAnalytics{})

	cookie := sessionCookie(t, getPage(s, nil))
	w := postForm(s, "/generate", nil, cookie)
	assert.Equal(t, http.StatusSeeOther, w.Code)

	_, images := s.queries.counts()
	assert.Zero(t, images)
}

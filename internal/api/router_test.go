package api

import (
	"context"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Ayash-Bera/searchable/internal/api/handlers"
	"github.com/Ayash-Bera/searchable/internal/health"
	"github.com/Ayash-Bera/searchable/internal/middleware"
	"github.com/Ayash-Bera/searchable/internal/models"
	"github.com/Ayash-Bera/searchable/internal/orchestrator"
	"github.com/Ayash-Bera/searchable/internal/services"
	"github.com/Ayash-Bera/searchable/internal/session"
	"github.com/Ayash-Bera/searchable/pkg/utils"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type idleService struct{}

func (idleService) AnswerQuery(ctx context.Context, query string) models.SearchResult {
	return models.SearchResult{Answer: query}
}

func (idleService) GenerateImage(ctx context.Context, prompt string) *models.GeneratedImage {
	return nil
}

func newTestRouter(t *testing.T, perMinute int) *gin.Engine {
	t.Helper()
	logger := utils.NewTestLogger()
	factory := func(id string) *orchestrator.Orchestrator {
		return orchestrator.New(context.Background(), idleService{}, rand.New(rand.NewPCG(1, 1)),
			orchestrator.Options{PlaceholderBaseURL: "https://picsum.photos/400/300"}, logger)
	}
	store := session.NewStore(factory, rand.New(rand.NewPCG(2, 2)), time.Minute, logger)
	t.Cleanup(store.Close)

	opts := handlers.Options{PlaceholderBaseURL: "https://picsum.photos/400/300", WaitTimeout: time.Second, SessionTTL: time.Minute}
	analytics := services.NewSearchService(nil, nil, nil, 0, logger)

	r, err := NewRouter(
		RouterConfig{
			Mode:        gin.TestMode,
			RateLimiter: middleware.NewRateLimiter(perMinute),
			ImageHosts:  ImageHosts("https://picsum.photos/400/300"),
		},
		handlers.NewPageHandler(store, opts, logger),
		handlers.NewSearchHandler(store, analytics, opts, logger),
		handlers.NewHealthHandler(health.NewHealthChecker(nil, nil, logger)),
		logger,
	)
	require.NoError(t, err)
	return r
}

func serve(r http.Handler, method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRouter_PageAndStatic(t *testing.T) {
	r := newTestRouter(t, 60)

	w := serve(r, http.MethodGet, "/")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "DO SEARCHABLE")
	assert.Contains(t, w.Header().Get("Content-Security-Policy"), "https://fastly.picsum.photos")
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	w = serve(r, http.MethodGet, "/static/style.css")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), ".backdrop-nebula")

	w = serve(r, http.MethodGet, "/static/scroll.js")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_AnalyticsWithoutDatabase(t *testing.T) {
	r := newTestRouter(t, 60)
	w := serve(r, http.MethodGet, "/api/v1/popular")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestRouter_RateLimitSparesHealth(t *testing.T) {
	r := newTestRouter(t, 2)

	for i := 0; i < 2; i++ {
		assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/api/v1/trending").Code)
	}
	assert.Equal(t, http.StatusTooManyRequests, serve(r, http.MethodGet, "/api/v1/trending").Code)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/api/v1/health").Code)
}

func TestImageHosts(t *testing.T) {
	assert.Equal(t, []string{"https://picsum.photos", "https://fastly.picsum.photos"}, ImageHosts("https://picsum.photos/400/300"))
	assert.Equal(t, []string{"https://cdn.example.com"}, ImageHosts("https://cdn.example.com/img"))
	assert.Nil(t, ImageHosts("::not a url"))
}

package routes

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"

	"Xuunu.homeostasis/internal/controller"
	"Xuunu.homeostasis/internal/insight"
	"Xuunu.homeostasis/internal/repository"
	"Xuunu.homeostasis/internal/service"
)

func newRouter(auth func(http.Handler) http.Handler) *mux.Router {
	repo := repository.NewMemoryRepository()
	cache := insight.NewCache(repository.NewMemoryInsightStore(), nil)
	router := mux.NewRouter()
	RegisterRoutes(router,
		controller.NewSampleController(service.NewSampleService(repo), time.Second),
		controller.NewHomeostasisController(service.NewHomeostasisService(repo, cache), time.Second),
		auth,
	)
	return router
}

func serve(h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, strings.NewReader(body)))
	return rec
}

func TestRoutes(t *testing.T) {
	router := newRouter(nil)

	rec := serve(router, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())

	rec = serve(router, http.MethodPost, "/api/health-entries", `{"userId":"u1","steps":4000}`)
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = serve(router, http.MethodGet, "/api/health-entries/latest?userId=u1", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"steps":4000`)

	rec = serve(router, http.MethodGet, "/api/homeostasis/calculate?userId=u1", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(router, http.MethodPost, "/api/homeostasis-insights", `{"userId":"u1","homeostasisLevel":10}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"fallback":"unavailable"`)
}

func TestRoutesErrors(t *testing.T) {
	router := newRouter(nil)

	for _, tc := range []struct{ method, path string }{
		{http.MethodDelete, "/api/health-entries"},
		{http.MethodDelete, "/api/health-entries/latest"},
		{http.MethodPut, "/api/environmental-readings"},
		{http.MethodGet, "/api/homeostasis-insights"},
		{http.MethodPost, "/api/homeostasis/calculate"},
	} {
		rec := serve(router, tc.method, tc.path, "")
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code, "%s %s", tc.method, tc.path)
		assert.Contains(t, rec.Body.String(), "method_not_allowed")
	}

	rec := serve(router, http.MethodGet, "/api/nothing-here", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRoutesApplyAuthToAPIOnly(t *testing.T) {
	deny := func(http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		})
	}
	router := newRouter(deny)

	assert.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/health", "").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(router, http.MethodGet, "/api/health-entries?userId=u1", "").Code)
	assert.Equal(t, http.StatusMethodNotAllowed, serve(router, http.MethodDelete, "/api/health-entries", "").Code)
}

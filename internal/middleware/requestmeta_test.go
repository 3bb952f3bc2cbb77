package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/serroba/linkbot/internal/handlers"
	"github.com/serroba/linkbot/internal/middleware"
	"github.com/stretchr/testify/assert"
)

type testOutput struct {
	Body string `json:"body"`
}

func setupTestAPI(t *testing.T) (*chi.Mux, chan handlers.RequestMeta) {
	t.Helper()

	router := chi.NewMux()
	api := humachi.New(router, huma.DefaultConfig("Test", "1.0.0"))
	api.UseMiddleware(middleware.RequestMeta(api))

	metaChan := make(chan handlers.RequestMeta, 1)

	huma.Get(api, "/test", func(ctx context.Context, _ *struct{}) (*testOutput, error) {
		metaChan <- handlers.RequestMetaFromContext(ctx)

		return &testOutput{Body: "ok"}, nil
	})

	return router, metaChan
}

func TestRequestMeta(t *testing.T) {
	t.Run("captures user-agent and referrer", func(t *testing.T) {
		router, metaChan := setupTestAPI(t)

		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set("User-Agent", "TestAgent/1.0")
		req.Header.Set("Referer", "https://example.com")

		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		meta := <-metaChan
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "TestAgent/1.0", meta.UserAgent)
		assert.Equal(t, "https://example.com", meta.Referrer)
	})

	t.Run("keeps the raw forwarding headers", func(t *testing.T) {
		router, metaChan := setupTestAPI(t)

		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set("X-Forwarded-For", "192.168.1.1, 10.0.0.1, 172.16.0.1")
		req.Header.Set("X-Real-IP", "10.0.0.1")

		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		meta := <-metaChan
		assert.Equal(t, "192.168.1.1, 10.0.0.1, 172.16.0.1", meta.ForwardedFor)
		assert.Equal(t, "10.0.0.1", meta.RealIP)
	})

	t.Run("records the connection address", func(t *testing.T) {
		router, metaChan := setupTestAPI(t)

		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.RemoteAddr = "203.0.113.5:41000"

		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		meta := <-metaChan
		assert.Equal(t, "203.0.113.5:41000", meta.RemoteAddr)
		assert.Empty(t, meta.ForwardedFor)
	})
}

package handlers_test

import (
	"context"
	"errors"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/serroba/linkbot/internal/analytics"
	"github.com/serroba/linkbot/internal/handlers"
	"github.com/serroba/linkbot/internal/metrics"
	"github.com/serroba/linkbot/internal/middleware"
	"github.com/serroba/linkbot/internal/shortener"
	"github.com/serroba/linkbot/internal/store"
	"go.uber.org/zap"
)

var errMock = errors.New("mock error")

type fixedLocator string

func (l fixedLocator) Locate(context.Context, string) string { return string(l) }

// failingResolver simulates an unavailable store.
type failingResolver struct{}

func (failingResolver) Resolve(context.Context, shortener.Alias) (*shortener.ShortLink, error) {
	return nil, errMock
}

type testServer struct {
	router  *chi.Mux
	store   *store.MemoryStore
	tracker *analytics.AsyncTracker
}

type serverOption func(*serverConfig)

type serverConfig struct {
	resolver analytics.LinkResolver
	locator  analytics.Locator
}

func withResolver(r analytics.LinkResolver) serverOption {
	return func(c *serverConfig) { c.resolver = r }
}

func withLocator(l analytics.Locator) serverOption {
	return func(c *serverConfig) { c.locator = l }
}

func newTestServer(t *testing.T, opts ...serverOption) *testServer {
	t.Helper()

	s := store.NewMemoryStore()
	cfg := &serverConfig{
		resolver: shortener.NewResolver(s),
		locator:  fixedLocator("Lisbon, PT"),
	}

	for _, opt := range opts {
		opt(cfg)
	}

	recorder := analytics.NewRecorder(s, cfg.locator)
	tracker := analytics.NewAsyncTracker(recorder.Track, metrics.ClickRecorded, analytics.TrackerConfig{}, zap.NewNop(), nil)
	t.Cleanup(func() { _ = tracker.Shutdown() })

	gen := func() string { return "gen123" }
	service := shortener.NewService(s, s, gen)
	aggregator := analytics.NewAggregator(shortener.NewResolver(s), s)

	router := chi.NewMux()
	api := humachi.New(router, huma.DefaultConfig("linkbot", "1.0.0"))
	api.UseMiddleware(middleware.RequestMeta(api))

	handlers.RegisterRoutes(api,
		handlers.NewRedirectHandler(cfg.resolver, tracker, handlers.NewPages("https://t.me/linkbot"), zap.NewNop(), nil),
		handlers.NewLinkHandler(service, aggregator, "http://localhost:8888/", zap.NewNop()),
	)

	return &testServer{router: router, store: s, tracker: tracker}
}

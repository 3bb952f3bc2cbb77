package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/serroba/linkbot/internal/analytics"
	"github.com/serroba/linkbot/internal/metrics"
	"github.com/serroba/linkbot/internal/shortener"
	"go.uber.org/zap"
)

const contentTypeHTML = "text/html; charset=utf-8"

// RedirectHandler serves the public short link routes.
type RedirectHandler struct {
	links   analytics.LinkResolver
	tracker analytics.Tracker
	pages   *Pages
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// NewRedirectHandler creates a redirect handler.
func NewRedirectHandler(
	links analytics.LinkResolver,
	tracker analytics.Tracker,
	pages *Pages,
	logger *zap.Logger,
	m *metrics.Metrics,
) *RedirectHandler {
	return &RedirectHandler{
		links:   links,
		tracker: tracker,
		pages:   pages,
		logger:  logger,
		metrics: m,
	}
}

// Redirect answers with a permanent redirect and hands the click to the
// tracker. Unknown aliases get the 404 page and are never tracked.
func (h *RedirectHandler) Redirect(ctx context.Context, req *RedirectRequest) (*PageResponse, error) {
	link, err := h.links.Resolve(ctx, shortener.Alias(req.Alias))
	if err != nil {
		if errors.Is(err, shortener.ErrNotFound) {
			h.metrics.Redirect(metrics.RedirectNotFound)

			return htmlPage(http.StatusNotFound, h.pages.NotFound(req.Alias)), nil
		}

		h.metrics.Redirect(metrics.RedirectError)
		h.logger.Error("failed to resolve alias",
			zap.String("alias", req.Alias),
			zap.Error(err),
		)

		return htmlPage(http.StatusInternalServerError, h.pages.ServerError()), nil
	}

	h.tracker.Track(link, RequestMetaFromContext(ctx).Visit(time.Now()))
	h.metrics.Redirect(metrics.RedirectFound)

	return &PageResponse{
		Status:   http.StatusMovedPermanently,
		Location: link.OriginalURL,
	}, nil
}

// Landing serves the home page.
func (h *RedirectHandler) Landing(_ context.Context, _ *struct{}) (*PageResponse, error) {
	return htmlPage(http.StatusOK, h.pages.Landing()), nil
}

func htmlPage(status int, body []byte) *PageResponse {
	return &PageResponse{
		Status:      status,
		ContentType: contentTypeHTML,
		Body:        body,
	}
}

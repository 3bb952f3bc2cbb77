package handlers

import (
	"context"
	"errors"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/linkbot/internal/analytics"
	"github.com/serroba/linkbot/internal/shortener"
	"go.uber.org/zap"
)

// Shortener creates links.
type Shortener interface {
	Shorten(ctx context.Context, req shortener.Request) (*shortener.ShortLink, error)
}

// StatsProvider aggregates a link's clicks.
type StatsProvider interface {
	Stats(ctx context.Context, alias shortener.Alias) (*analytics.Statistics, error)
}

// LinkHandler serves the JSON link API.
type LinkHandler struct {
	shortener Shortener
	stats     StatsProvider
	baseURL   string
	logger    *zap.Logger
}

// NewLinkHandler creates a link API handler.
func NewLinkHandler(s Shortener, stats StatsProvider, baseURL string, logger *zap.Logger) *LinkHandler {
	return &LinkHandler{
		shortener: s,
		stats:     stats,
		baseURL:   strings.TrimRight(baseURL, "/"),
		logger:    logger,
	}
}

func (h *LinkHandler) CreateLink(ctx context.Context, req *CreateLinkRequest) (*CreateLinkResponse, error) {
	link, err := h.shortener.Shorten(ctx, shortener.Request{
		URL:     req.Body.URL,
		Alias:   shortener.Alias(strings.TrimSpace(req.Body.Alias)),
		OwnerID: req.Body.OwnerID,
	})
	if err != nil {
		switch {
		case errors.Is(err, shortener.ErrInvalidURL), errors.Is(err, shortener.ErrInvalidAlias):
			return nil, huma.Error400BadRequest(err.Error())
		case errors.Is(err, shortener.ErrAliasTaken):
			return nil, huma.Error409Conflict("alias already taken")
		}

		h.logger.Error("failed to create link",
			zap.String("alias", req.Body.Alias),
			zap.Error(err),
		)

		return nil, huma.Error500InternalServerError("failed to save link")
	}

	shortURL := h.baseURL + "/" + string(link.Alias)

	resp := &CreateLinkResponse{}
	resp.Headers.Location = shortURL
	resp.Body.Alias = string(link.Alias)
	resp.Body.ShortURL = shortURL
	resp.Body.OriginalURL = link.OriginalURL

	return resp, nil
}

func (h *LinkHandler) GetStats(ctx context.Context, req *StatsRequest) (*StatsResponse, error) {
	stats, err := h.stats.Stats(ctx, shortener.Alias(req.Alias))
	if err != nil {
		if errors.Is(err, shortener.ErrNotFound) {
			return nil, huma.Error404NotFound("short link not found")
		}

		h.logger.Error("failed to load stats",
			zap.String("alias", req.Alias),
			zap.Error(err),
		)

		return nil, huma.Error500InternalServerError("failed to load stats")
	}

	return &StatsResponse{Body: stats}, nil
}

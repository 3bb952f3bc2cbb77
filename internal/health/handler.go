package health

import (
	"context"

	"github.com/danielgtaylor/huma/v2"
	"github.com/redis/go-redis/v9"
)

const (
	StatusOK       = "ok"
	StatusDegraded = "degraded"
	Healthy        = "healthy"
	Unhealthy      = "unhealthy"
)

// Checker defines the interface for checking service health.
type Checker interface {
	Ping(ctx context.Context) error
}

// RedisChecker adapts redis.Client to Checker interface.
type RedisChecker struct {
	client *redis.Client
}

// NewRedisChecker creates a new Redis health checker.
func NewRedisChecker(client *redis.Client) *RedisChecker {
	return &RedisChecker{client: client}
}

// Ping checks Redis connectivity.
func (r *RedisChecker) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Dependency is a named checker reported by the health endpoint.
type Dependency struct {
	Name    string
	Checker Checker
}

// Handler handles health check operations.
type Handler struct {
	deps []Dependency
}

// NewHandler creates a new health handler.
func NewHandler(deps ...Dependency) *Handler {
	return &Handler{deps: deps}
}

// Response is the response for health check endpoint.
type Response struct {
	Body struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks,omitempty"`
	}
}

// Check performs a health check of the application and its dependencies.
func (h *Handler) Check(ctx context.Context, _ *struct{}) (*Response, error) {
	resp := &Response{}
	resp.Body.Status = StatusOK
	resp.Body.Checks = make(map[string]string, len(h.deps))

	for _, dep := range h.deps {
		if err := dep.Checker.Ping(ctx); err != nil {
			resp.Body.Checks[dep.Name] = Unhealthy
			resp.Body.Status = StatusDegraded

			continue
		}

		resp.Body.Checks[dep.Name] = Healthy
	}

	return resp, nil
}

// RegisterRoutes registers health check routes.
func RegisterRoutes(api huma.API, h *Handler) {
	huma.Get(api, "/health", h.Check)
}

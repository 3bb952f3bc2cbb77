package handlers

import (
	"context"
	"time"

	"github.com/serroba/linkbot/internal/analytics"
)

type requestMetaKey struct{}

// RequestMeta holds the raw HTTP request attributes click tracking needs.
type RequestMeta struct {
	ForwardedFor string
	RealIP       string
	RemoteAddr   string
	UserAgent    string
	Referrer     string
}

// ContextWithRequestMeta adds request metadata to context.
func ContextWithRequestMeta(ctx context.Context, meta RequestMeta) context.Context {
	return context.WithValue(ctx, requestMetaKey{}, meta)
}

// RequestMetaFromContext extracts request metadata from context.
func RequestMetaFromContext(ctx context.Context) RequestMeta {
	if v, ok := ctx.Value(requestMetaKey{}).(RequestMeta); ok {
		return v
	}

	return RequestMeta{}
}

// Visit converts the metadata into a click visit that happened at at.
func (m RequestMeta) Visit(at time.Time) analytics.Visit {
	return analytics.Visit{
		ForwardedFor: m.ForwardedFor,
		RealIP:       m.RealIP,
		RemoteAddr:   m.RemoteAddr,
		UserAgent:    m.UserAgent,
		Referrer:     m.Referrer,
		At:           at,
	}
}

package middleware

import (
	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/linkbot/internal/handlers"
)

// RequestMeta is a middleware that adds the client address headers,
// user-agent and referrer to the request context. Client IP selection is
// left to click tracking so the raw values survive the stream transport.
func RequestMeta(_ huma.API) func(ctx huma.Context, next func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		meta := handlers.RequestMeta{
			ForwardedFor: ctx.Header("X-Forwarded-For"),
			RealIP:       ctx.Header("X-Real-IP"),
			RemoteAddr:   ctx.RemoteAddr(),
			UserAgent:    ctx.Header("User-Agent"),
			Referrer:     ctx.Header("Referer"),
		}

		newCtx := handlers.ContextWithRequestMeta(ctx.Context(), meta)
		ctx = huma.WithContext(ctx, newCtx)

		next(ctx)
	}
}

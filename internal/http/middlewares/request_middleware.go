package middlewares

import (
	"log/slog"
	"time"

	"github.com/geocoder89/accounts/internal/actorctx"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-Id"

func RequestID() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		id := ctx.GetHeader(requestIDHeader)

		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}

		ctx.Writer.Header().Set(requestIDHeader, id)

		ctx.Set(CtxRequestID, id)
		ctx.Request = ctx.Request.WithContext(actorctx.WithRequestID(ctx.Request.Context(), id))

		ctx.Next()
	}
}

func RequestLogger(log *slog.Logger) gin.HandlerFunc {
	if log == nil {
		log = slog.Default()
	}

	return func(ctx *gin.Context) {
		start := time.Now()

		route := ctx.FullPath()
		if route == "" {
			route = ctx.Request.URL.Path // fallback (e.g. 404)
		}

		method := ctx.Request.Method

		ctx.Next()

		lat := time.Since(start)
		status := ctx.Writer.Status()

		logAttrs := []any{
			"method", method,
			"route", route,
			"status", status,
			"latency_ms", lat.Milliseconds(),
		}

		if u, ok := UserFromContext(ctx); ok {
			logAttrs = append(logAttrs, "user_id", u.ID)
		}

		// request_id comes from the context via the trace handler
		log.InfoContext(ctx.Request.Context(), "http_request", logAttrs...)
	}
}

package middleware

import (
	"log/slog"

	"github.com/labstack/echo/v4"

	"github.com/studylog/studylog/server/internal/observability"
)

// RequestLogging attaches a per-request logging context and emits one
// completion line per request.
func RequestLogging(logger *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			reqCtx := observability.NewRequestContext(logger, 0)

			request := c.Request()
			c.SetRequest(request.WithContext(observability.WithRequestContext(request.Context(), reqCtx)))

			err := next(c)

			// Auth runs inside the route group, after this middleware
			// created the context, so the user id is only known now.
			if userID, ok := UserIDFromContext(c); ok {
				reqCtx.UserID = userID
			}

			attrs := []slog.Attr{
				slog.String("method", request.Method),
				slog.String("path", request.URL.Path),
				slog.Int("status", c.Response().Status),
				slog.Int64("duration_ms", reqCtx.DurationMs()),
			}
			if err != nil {
				reqCtx.Error("request failed", err, attrs...)
			} else {
				reqCtx.Info("request completed", attrs...)
			}
			return err
		}
	}
}

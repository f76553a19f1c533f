package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"flowershop/internal/logging"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const HeaderRequestID = "X-Request-Id"

// RequestLogger はリクエストごとのloggerを作って context に入れ、終わったら1行出す
func RequestLogger(base *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			reqID := c.Request().Header.Get(HeaderRequestID)
			if reqID == "" {
				reqID = uuid.NewString()
			}
			c.Response().Header().Set(HeaderRequestID, reqID)

			l := base.With(
				"req_id", reqID,
				"method", c.Request().Method,
				"path", c.Path(),
				"remote", c.RealIP(),
			)
			logging.With(c, l)

			err := next(c)
			if err != nil {
				// echoのエラーハンドラにレスポンスを書かせてからステータスを読む
				c.Error(err)
			}

			status := c.Response().Status
			attrs := []any{
				"status", status,
				"dur_ms", time.Since(start).Milliseconds(),
				"resp_bytes", c.Response().Size,
			}
			if uid, ok := c.Get(CtxUserIDKey).(int64); ok {
				attrs = append(attrs, "user_id", uid)
			}
			if err != nil {
				attrs = append(attrs, "error", err.Error())
			}

			switch {
			case status >= http.StatusInternalServerError:
				l.Error("http_request", attrs...)
			case status >= http.StatusBadRequest:
				l.Warn("http_request", attrs...)
			default:
				l.Info("http_request", attrs...)
			}
			return nil
		}
	}
}

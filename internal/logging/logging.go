package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/labstack/echo/v4"
	"gopkg.in/natefinch/lumberjack.v2"
)

type ctxKey struct{}

const echoKey = "logger"

var (
	once sync.Once
	base *slog.Logger
)

// Init configures the global logger exactly once.
// Call this in main(): logging.Init("api", cfg.App.LogFile)
func Init(component, filePath string) *slog.Logger {
	once.Do(func() {
		var w io.Writer = os.Stdout
		if filePath != "" {
			_ = os.MkdirAll(filepath.Dir(filePath), 0o755)
			rot := &lumberjack.Logger{
				Filename:   filePath,
				MaxSize:    50, // MB
				MaxBackups: 3,
				MaxAge:     7, // days
			}
			w = io.MultiWriter(os.Stdout, rot)
		}

		h := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo})
		base = slog.New(h).With("component", component)
	})
	return base
}

// Base returns the global logger. Before Init it logs to stdout only.
func Base() *slog.Logger {
	if base == nil {
		return Init("app", "")
	}
	return base
}

// New returns a child logger sharing the global handler.
func New(component string) *slog.Logger {
	return Base().With("component", component)
}

func WithCtx(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromCtx fetches a logger from ctx or falls back to the global one.
func FromCtx(ctx context.Context) *slog.Logger {
	if ctx == nil {
		return Base()
	}
	if l, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok && l != nil {
		return l
	}
	return Base()
}

// With stores the request-scoped logger in echo.Context and in the request context,
// so usecases reached through c.Request().Context() see the same fields.
func With(c echo.Context, l *slog.Logger) {
	c.Set(echoKey, l)
	c.SetRequest(c.Request().WithContext(WithCtx(c.Request().Context(), l)))
}

func From(c echo.Context) *slog.Logger {
	if l, ok := c.Get(echoKey).(*slog.Logger); ok && l != nil {
		return l
	}
	return Base()
}

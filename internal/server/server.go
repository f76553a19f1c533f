package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"flowershop/internal/config"
	"flowershop/internal/middleware"
	"flowershop/internal/repository"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

// New はミドルウェアとルートを載せたechoを返す
func New(cfg config.Config, log *slog.Logger, userRepo repository.UserRepository, h Handlers) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(echomw.Recover())
	e.Use(middleware.Metrics())
	e.Use(middleware.RequestLogger(log))

	RegisterRoutes(e, cfg, userRepo, h)
	return e
}

// Start は ctx が終わるまでサーバーを動かし、終わったら最大10秒待って止める
func Start(ctx context.Context, addr string, e *echo.Echo) error {
	errCh := make(chan error, 1)
	go func() {
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

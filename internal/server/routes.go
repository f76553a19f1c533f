package server

import (
	"net/http"

	"flowershop/internal/config"
	"flowershop/internal/handler"
	"flowershop/internal/logging"
	"flowershop/internal/repository"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ルーティングに必要なhandler一式
type Handlers struct {
	Auth         *handler.AuthHandler
	Account      *handler.AccountHandler
	Product      *handler.ProductHandler
	Cart         *handler.CartHandler
	Order        *handler.OrderHandler
	AdminProduct *handler.AdminProductHandler
	AdminOrder   *handler.AdminOrderHandler
	AdminReport  *handler.AdminReportHandler
	AdminUser    *handler.AdminUserHandler
}

func RegisterRoutes(e *echo.Echo, cfg config.Config, userRepo repository.UserRepository, h Handlers) {
	e.GET("/healthz", func(c echo.Context) error {
		logging.From(c).Debug("health check")
		return c.JSON(http.StatusOK, map[string]bool{"ok": true})
	})
	// Prometheus
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	h.Auth.RegisterRoutes(e)
	h.Product.RegisterRoutes(e)
	h.Account.RegisterRoutes(e, cfg, userRepo)
	h.Cart.RegisterRoutes(e, cfg, userRepo)
	h.Order.RegisterRoutes(e, cfg, userRepo)
	h.AdminProduct.RegisterRoutes(e, cfg, userRepo)
	h.AdminOrder.RegisterRoutes(e, cfg, userRepo)
	h.AdminReport.RegisterRoutes(e, cfg, userRepo)
	h.AdminUser.RegisterRoutes(e)
}

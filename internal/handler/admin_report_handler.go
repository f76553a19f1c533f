package handler

import (
	"fmt"
	"net/http"
	"time"

	"flowershop/internal/config"
	"flowershop/internal/middleware"
	"flowershop/internal/repository"
	"flowershop/internal/usecase"

	"github.com/labstack/echo/v4"
)

type AdminReportHandler struct {
	uc *usecase.ReportUsecase
}

func NewAdminReportHandler(uc *usecase.ReportUsecase) *AdminReportHandler {
	return &AdminReportHandler{uc: uc}
}

func (h *AdminReportHandler) RegisterRoutes(e *echo.Echo, cfg config.Config, userRepo repository.UserRepository) {
	admin := e.Group("/admin")
	admin.Use(middleware.AuthJWT(cfg))
	admin.Use(middleware.TokenVersionGuard(userRepo))
	admin.Use(middleware.AdminRoleGuard())

	admin.GET("/reports", h.show)
	admin.GET("/reports/download", h.download)
}

// ?as_of=RFC3339（省略時は現在）
func parseAsOf(c echo.Context) (time.Time, error) {
	v := c.QueryParam("as_of")
	if v == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, v)
}

func (h *AdminReportHandler) show(c echo.Context) error {
	asOf, err := parseAsOf(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid as_of"})
	}

	out, err := h.uc.Build(c.Request().Context(), asOf)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AdminReportHandler) download(c echo.Context) error {
	asOf, err := parseAsOf(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid as_of"})
	}

	name, body, err := h.uc.Text(c.Request().Context(), asOf)
	if err != nil {
		return writeError(c, err)
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", name))
	return c.Blob(http.StatusOK, "text/plain; charset=utf-8", []byte(body))
}

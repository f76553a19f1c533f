package handler

import (
	"net/http"

	"flowershop/internal/config"
	"flowershop/internal/middleware"
	"flowershop/internal/repository"
	"flowershop/internal/usecase"

	"github.com/labstack/echo/v4"
)

// /me（プロフィールとチャット連携）
type AccountHandler struct {
	auth     *usecase.AuthUsecase
	accounts *usecase.AccountUsecase
}

func NewAccountHandler(auth *usecase.AuthUsecase, accounts *usecase.AccountUsecase) *AccountHandler {
	return &AccountHandler{auth: auth, accounts: accounts}
}

type ChannelRequest struct {
	ChannelID string `json:"channel_id"`
}

func (h *AccountHandler) RegisterRoutes(e *echo.Echo, cfg config.Config, userRepo repository.UserRepository) {
	g := e.Group("/me")
	g.Use(middleware.AuthJWT(cfg))
	g.Use(middleware.TokenVersionGuard(userRepo))

	g.GET("", h.me)
	g.PUT("/channel", h.linkChannel)
	g.DELETE("/channel", h.unlinkChannel)
}

func (h *AccountHandler) me(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	out, err := h.auth.Me(c.Request().Context(), userID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AccountHandler) linkChannel(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	var req ChannelRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.accounts.LinkChannel(c.Request().Context(), userID, req.ChannelID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AccountHandler) unlinkChannel(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	if err := h.accounts.UnlinkChannel(c.Request().Context(), userID); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

package handler

import (
	"net/http"
	"strconv"

	"flowershop/internal/config"
	"flowershop/internal/middleware"
	"flowershop/internal/repository"
	"flowershop/internal/usecase"

	"github.com/labstack/echo/v4"
)

// /cart と /checkout のHTTP
type CartHandler struct {
	uc *usecase.CartUsecase
}

// DI
func NewCartHandler(uc *usecase.CartUsecase) *CartHandler {
	return &CartHandler{uc: uc}
}

type AddCartRequest struct {
	ProductID int64 `json:"product_id"`
}

type DeliveryRequest struct {
	Address   string `json:"address"`
	CardText  string `json:"card_text"`
	Signature string `json:"signature"`
	// trueならチェックアウト確定（住所必須）
	Confirm bool `json:"confirm"`
}

type CheckoutLineRequest struct {
	LineID    int64  `json:"line_id"`
	Address   string `json:"address"`
	CardText  string `json:"card_text"`
	Signature string `json:"signature"`
}

type CheckoutConfirmRequest struct {
	Lines []CheckoutLineRequest `json:"lines"`
}

// /cart, /cart/{id}, /checkout/confirm を登録
func (h *CartHandler) RegisterRoutes(e *echo.Echo, cfg config.Config, userRepo repository.UserRepository) {
	g := e.Group("/cart")
	g.Use(middleware.AuthJWT(cfg))
	g.Use(middleware.TokenVersionGuard(userRepo))

	g.GET("", h.getCart)
	g.POST("", h.addToCart)
	g.PUT("/:id/delivery", h.setDelivery)
	g.DELETE("/:id", h.deleteLine)

	e.POST("/checkout/confirm", h.confirmCheckout,
		middleware.AuthJWT(cfg), middleware.TokenVersionGuard(userRepo))
}

func (h *CartHandler) getCart(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	out, err := h.uc.GetCart(c.Request().Context(), userID)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *CartHandler) addToCart(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	var req AddCartRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.uc.AddToCart(c.Request().Context(), userID, req.ProductID)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *CartHandler) setDelivery(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	lineID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	var req DeliveryRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.uc.SetDeliveryDetails(c.Request().Context(), userID, lineID, usecase.DeliveryDetailsInput{
		Address:   req.Address,
		CardText:  req.CardText,
		Signature: req.Signature,
		Confirm:   req.Confirm,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *CartHandler) confirmCheckout(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	var req CheckoutConfirmRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	lines := make([]usecase.LineDeliveryInput, 0, len(req.Lines))
	for _, l := range req.Lines {
		lines = append(lines, usecase.LineDeliveryInput{
			LineID: l.LineID,
			DeliveryDetailsInput: usecase.DeliveryDetailsInput{
				Address:   l.Address,
				CardText:  l.CardText,
				Signature: l.Signature,
			},
		})
	}

	out, err := h.uc.ConfirmCheckout(c.Request().Context(), userID, lines)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *CartHandler) deleteLine(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	lineID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	out, err := h.uc.DeleteCartLine(c.Request().Context(), userID, lineID)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

package handler

import (
	"net/http"
	"storefront/internal/dto"
	"storefront/internal/middleware"
	"storefront/internal/service"

	"github.com/labstack/echo/v4"
)

type CartHandler struct {
	cartService service.CartService
}

func NewCartHandler(cartService service.CartService) *CartHandler {
	return &CartHandler{
		cartService: cartService,
	}
}

func cartResponse(view *service.CartView) dto.CartResponse {
	return dto.CartResponse{
		Items:   view.Lines,
		Pricing: view.Pricing,
		Coins:   view.Coins,
	}
}

func (h *CartHandler) Get(c echo.Context) error {
	ctx := c.Request().Context()

	view, err := h.cartService.Get(ctx, middleware.UserID(c))
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, cartResponse(view))
}

func (h *CartHandler) Price(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.PricingRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}

	view, err := h.cartService.Price(ctx, middleware.UserID(c), req.UseCoins, req.CoinsToUse)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, cartResponse(view))
}

func (h *CartHandler) AddItem(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.Item
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}

	if err := h.cartService.AddItem(ctx, middleware.UserID(c), req.ProductID, req.Quantity); err != nil {
		return respondError(c, err)
	}

	return h.Get(c)
}

func (h *CartHandler) SetQuantity(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.UpdateQuantityRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}

	if err := h.cartService.SetQuantity(ctx, middleware.UserID(c), c.Param("productId"), req.Quantity); err != nil {
		return respondError(c, err)
	}

	return h.Get(c)
}

func (h *CartHandler) RemoveItem(c echo.Context) error {
	ctx := c.Request().Context()

	if err := h.cartService.RemoveItem(ctx, middleware.UserID(c), c.Param("productId")); err != nil {
		return respondError(c, err)
	}

	return h.Get(c)
}

func (h *CartHandler) Clear(c echo.Context) error {
	ctx := c.Request().Context()

	if err := h.cartService.Clear(ctx, middleware.UserID(c)); err != nil {
		return respondError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}

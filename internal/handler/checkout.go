package handler

import (
	"net/http"
	"storefront/internal/dto"
	"storefront/internal/middleware"
	"storefront/internal/service"
	"storefront/internal/session"

	"github.com/labstack/echo/v4"
)

type CheckoutHandler struct {
	checkoutService service.CheckoutService
}

func NewCheckoutHandler(checkoutService service.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{
		checkoutService: checkoutService,
	}
}

func (h *CheckoutHandler) Start(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.CheckoutRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}

	result, err := h.checkoutService.Start(ctx, middleware.UserID(c), service.StartRequest{
		AttemptID:  req.AttemptID,
		Shipping:   req.Shipping,
		UseCoins:   req.UseCoins,
		CoinsToUse: req.CoinsToUse,
	})
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusCreated, dto.CheckoutResponse{
		GatewayOrderID: result.GatewayOrderID,
		Receipt:        result.Receipt,
		Mode:           result.Mode.String(),
		Synthetic:      result.Synthetic,
		Pricing:        result.Pricing,
		Options:        result.Options,
	})
}

// Event relays a payment modal callback from the browser.
func (h *CheckoutHandler) Event(c echo.Context) error {
	ctx := c.Request().Context()
	orderID := c.Param("orderId")

	var req dto.PaymentEventRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}

	err := h.checkoutService.Deliver(ctx, middleware.UserID(c), orderID, session.Event{
		Kind:        session.EventKind(req.Event),
		Record:      req.PaymentVerificationRecord,
		Code:        req.Code,
		Description: req.Description,
	})
	if err != nil {
		return respondError(c, err)
	}

	return c.NoContent(http.StatusAccepted)
}

func (h *CheckoutHandler) Outcome(c echo.Context) error {
	ctx := c.Request().Context()

	out, err := h.checkoutService.Outcome(ctx, middleware.UserID(c), c.Param("orderId"))
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, dto.OutcomeResponse{
		GatewayOrderID: out.GatewayOrderID,
		Status:         string(out.Status),
		Stage:          out.Stage,
		PaymentID:      out.PaymentID,
		Code:           out.Code,
		Message:        out.Message,
		Order:          out.Order,
	})
}

func (h *CheckoutHandler) Verify(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.PaymentEventRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}

	order, err := h.checkoutService.Verify(ctx, middleware.UserID(c), req.PaymentVerificationRecord)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, dto.VerifyResponse{
		Verified: true,
		Order:    order,
	})
}

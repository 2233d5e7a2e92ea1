package handler

import (
	"errors"
	"net/http"
	"storefront/internal/dto"
	"storefront/internal/service"
	"storefront/internal/session"

	"github.com/labstack/echo/v4"
)

var kindStatus = map[service.ErrorKind]int{
	service.KindConfiguration:            http.StatusServiceUnavailable,
	service.KindValidation:               http.StatusBadRequest,
	service.KindGatewayTransport:         http.StatusBadGateway,
	service.KindUserCancelled:            http.StatusConflict,
	service.KindVerificationFailure:      http.StatusBadRequest,
	service.KindPostPaymentCommitFailure: http.StatusInternalServerError,
}

// respondError writes known service errors as JSON and hands anything else
// to echo's error handler.
func respondError(c echo.Context, err error) error {
	var ce *service.CheckoutError
	if errors.As(err, &ce) {
		status, ok := kindStatus[ce.Kind]
		if !ok {
			status = http.StatusInternalServerError
		}
		return c.JSON(status, dto.ErrorResponse{
			Error:          ce.Kind.String(),
			Message:        ce.Message,
			GatewayOrderID: ce.GatewayOrderID,
			PaymentID:      ce.PaymentID,
		})
	}

	var status int
	switch {
	case errors.Is(err, service.ErrProductNotFound),
		errors.Is(err, service.ErrOrderNotFound),
		errors.Is(err, service.ErrUnknownAttempt),
		errors.Is(err, session.ErrUnknownSession):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrInvalidQuantity),
		errors.Is(err, session.ErrUnknownEvent):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrCheckoutInProgress),
		errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, session.ErrModalNotOpen):
		status = http.StatusConflict
	default:
		return err
	}
	return c.JSON(status, dto.ErrorResponse{Error: http.StatusText(status), Message: err.Error()})
}

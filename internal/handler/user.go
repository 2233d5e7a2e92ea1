package handler

import (
	"net/http"
	"storefront/internal/dto"
	"storefront/internal/middleware"
	"storefront/internal/service"

	"github.com/labstack/echo/v4"
)

type UserHandler struct {
	userService service.UserService
}

func NewUserHandler(userService service.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

func (h *UserHandler) GetCoins(c echo.Context) error {
	ctx := c.Request().Context()

	summary, err := h.userService.Coins(ctx, middleware.UserID(c))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dto.CoinsResponse{
		Balance:  summary.Balance,
		Lifetime: summary.Lifetime,
		Tier:     string(summary.Tier),
	})
}

package server

import (
	"context"
	"net/http"
	"storefront/internal/handler"
	"storefront/internal/service"

	appmw "storefront/internal/middleware"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Services struct {
	Catalog  service.CatalogService
	Cart     service.CartService
	Checkout service.CheckoutService
	Order    service.OrderService
	User     service.UserService
}

type Server struct {
	echo            *echo.Echo
	auth            *appmw.Authenticator
	catalogHandler  *handler.CatalogHandler
	cartHandler     *handler.CartHandler
	checkoutHandler *handler.CheckoutHandler
	orderHandler    *handler.OrderHandler
	userHandler     *handler.UserHandler
}

func NewServer(services Services, auth *appmw.Authenticator) *Server {
	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.RequestLogger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(appmw.Metrics())

	s := &Server{
		echo:            e,
		auth:            auth,
		catalogHandler:  handler.NewCatalogHandler(services.Catalog),
		cartHandler:     handler.NewCartHandler(services.Cart),
		checkoutHandler: handler.NewCheckoutHandler(services.Checkout),
		orderHandler:    handler.NewOrderHandler(services.Order),
		userHandler:     handler.NewUserHandler(services.User),
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := s.echo.Group("/api")

	api.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"status": "ok"})
	})

	// -------- catalog --------
	api.GET("/products", s.catalogHandler.List)
	api.GET("/products/:id", s.catalogHandler.Get)

	user := api.Group("", s.auth.Authenticate())

	// -------- cart --------
	user.GET("/cart", s.cartHandler.Get)
	user.DELETE("/cart", s.cartHandler.Clear)
	user.POST("/cart/items", s.cartHandler.AddItem)
	user.PATCH("/cart/items/:productId", s.cartHandler.SetQuantity)
	user.DELETE("/cart/items/:productId", s.cartHandler.RemoveItem)
	user.POST("/cart/pricing", s.cartHandler.Price)

	// -------- checkout / payment callbacks --------
	user.POST("/checkout", s.checkoutHandler.Start)
	user.GET("/checkout/:orderId", s.checkoutHandler.Outcome)
	user.POST("/checkout/:orderId/events", s.checkoutHandler.Event)
	user.POST("/payments/verify", s.checkoutHandler.Verify)

	// -------- orders --------
	user.GET("/orders", s.orderHandler.List)
	user.GET("/orders/:id", s.orderHandler.Get)
	user.GET("/me/coins", s.userHandler.GetCoins)

	// -------- admin --------
	admin := user.Group("/admin")
	admin.GET("/orders", s.orderHandler.AdminList, appmw.Require("orders:read"))
	admin.PATCH("/orders/:id/status", s.orderHandler.AdvanceStatus, appmw.Require("orders:write"))
}

func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) Start(address string) error {
	return s.echo.Start(address)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

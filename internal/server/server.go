package server

import (
	"iap-entitlement-service/internal/handler"
	"iap-entitlement-service/internal/service"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

type Server struct {
	echo         *echo.Echo
	storeHandler *handler.StoreHandler
}

func NewServer(storeService *service.StoreService) *Server {
	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	s := &Server{
		echo:         e,
		storeHandler: handler.NewStoreHandler(storeService),
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.echo.Group("/api")

	api.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"status": "ok"})
	})

	api.GET("/products", s.storeHandler.GetProducts)
	api.GET("/entitlements", s.storeHandler.GetEntitlements)
	api.GET("/balances", s.storeHandler.GetBalances)
	api.GET("/status", s.storeHandler.GetStatus)

	api.POST("/purchase", s.storeHandler.Purchase)
	api.POST("/consume", s.storeHandler.Consume)
	api.POST("/refund", s.storeHandler.Refund)
	api.POST("/redeem-code", s.storeHandler.RedeemCode)
	api.POST("/subscriptions/manage", s.storeHandler.ManageSubscriptions)
}

func (s *Server) Start(address string) error {
	return s.echo.Start(address)
}

func (s *Server) Shutdown() error {
	return s.echo.Close()
}

package server

import (
	"net/http"

	"github.com/Eursukkul/hotel-booking/internal/handler"
	"github.com/Eursukkul/hotel-booking/internal/middleware"
	"github.com/Eursukkul/hotel-booking/internal/service"
	"github.com/labstack/echo/v4"
	echoMw "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
)

// New builds the HTTP router shared by the standalone server and the lambda gateway.
func New(svc service.BookingService, logger *logrus.Logger, serviceName string) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = middleware.ErrorHandler(logger)

	e.Use(echoMw.RequestID())
	e.Use(middleware.RequestLogger(logger))
	e.Use(echoMw.Recover())

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok", "service": serviceName})
	})

	handler.NewBookingHandler(svc, logger).RegisterRoutes(e)
	return e
}

package middleware

import (
	"github.com/labstack/echo/v4"
	echoMw "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
)

func RequestLogger(logger *logrus.Logger) echo.MiddlewareFunc {
	return echoMw.RequestLoggerWithConfig(echoMw.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v echoMw.RequestLoggerValues) error {
			entry := logger.WithFields(logrus.Fields{
				"path":      "http",
				"method":    v.Method,
				"uri":       v.URI,
				"status":    v.Status,
				"latency":   v.Latency.String(),
				"requestId": v.RequestID,
			})
			if v.Error != nil {
				entry = entry.WithField("error", v.Error.Error())
			}
			entry.Info("request")
			return nil
		},
	})
}

package routers

import (
	"net/http"

	"predict-api/internal/middleware"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RegisterOpsRoutes adds the liveness and metrics endpoints on the root
// router, outside request tracking.
func RegisterOpsRoutes(e *echo.Echo, metricsAPIKey string) {
	e.GET("/ping", func(c echo.Context) error {
		return c.String(http.StatusOK, "")
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()), middleware.RequireAPIKey(metricsAPIKey))
}

// Package middleware holds the echo middleware shared by every route.
package middleware

import (
	"crypto/subtle"
	"net/http"

	"predict-api/internal/shared"

	"github.com/labstack/echo/v4"
)

// RequireAPIKey guards a route with a bearer key. An empty key disables the check.
func RequireAPIKey(key string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if key == "" {
				return next(c)
			}
			apiKey, err := shared.ExtractAPIKey(c)
			if err != nil {
				return c.String(http.StatusUnauthorized, "Missing or invalid API key")
			}
			if subtle.ConstantTimeCompare([]byte(apiKey), []byte(key)) != 1 {
				return c.String(http.StatusUnauthorized, "Unauthorized API key")
			}
			return next(c)
		}
	}
}

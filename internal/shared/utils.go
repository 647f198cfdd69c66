// Package shared
package shared

import (
	"fmt"
	"os"
	"strings"

	"github.com/labstack/echo/v4"
)

func SafeEnv(env string) (string, error) {
	res, present := os.LookupEnv(env)
	if !present {
		return "", fmt.Errorf("missing environment variable %s", env)
	}
	return res, nil
}

func ExtractAPIKey(c echo.Context) (string, error) {
	auth := c.Request().Header.Get("Authorization")
	if auth == "" {
		return "", ErrMissingAuth
	}

	parts := strings.Split(auth, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return "", ErrInvalidFormat
	}

	apiKey := parts[1]
	if len(apiKey) != APIKeyLength {
		return "", ErrInvalidKeyLen
	}

	return apiKey, nil
}

// NewErrorBody builds the JSON error envelope returned for failed requests.
func NewErrorBody(code int, message string) ErrorBody {
	errType := "InternalError"
	switch {
	case code == 400:
		errType = "BadRequest"
	case code == 401:
		errType = "Unauthorized"
	case code == 413:
		errType = "RequestTooLarge"
	case code < 500:
		errType = "ClientError"
	}
	return ErrorBody{Error: APIError{Message: message, Type: errType, Code: code}}
}

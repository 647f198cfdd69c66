// Package routers
package routers

import (
	"errors"
	"net/http"

	"predict-api/internal/ctx"
	"predict-api/internal/shared"
)

// writeError is the single place handler errors become HTTP responses. A
// *shared.RequestError keeps its status and message, everything else is a
// 500 with a generic message.
func writeError(c *ctx.Context, err error) error {
	c.LogValues.AddError(err)

	var reqErr *shared.RequestError
	if !errors.As(err, &reqErr) {
		reqErr = shared.ErrInternalServerError
	}
	message := reqErr.Err.Error()
	if reqErr.StatusCode >= http.StatusInternalServerError {
		message = shared.ErrInternalServerError.Err.Error()
	}
	return c.JSON(reqErr.StatusCode, shared.NewErrorBody(reqErr.StatusCode, message))
}

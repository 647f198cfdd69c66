package routers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"predict-api/internal/config"
	"predict-api/internal/ctx"
	"predict-api/internal/handlers/predict"
	"predict-api/internal/middleware"
	"predict-api/internal/shared"

	"github.com/labstack/echo/v4"
)

// AliasPredictPath is always served next to the configured predict path.
const AliasPredictPath = "/predict"

type PredictRouter struct {
	ph *predict.PredictHandler
}

func RegisterPredictRoutes(e *echo.Group, ph *predict.PredictHandler, cfg *config.Config) error {
	if ph == nil || cfg == nil {
		return errors.New("predict routes need a handler and a config")
	}
	predictRouter := PredictRouter{ph: ph}

	bodyLimit := middleware.NewBodyLimitMiddleware(shared.MaxRequestBodyBytes)
	e.POST(cfg.PredictPath(), predictRouter.Predict, bodyLimit)
	if cfg.PredictPath() != AliasPredictPath {
		e.POST(AliasPredictPath, predictRouter.Predict, bodyLimit)
	}
	e.GET(cfg.BasePath()+"/model", predictRouter.GetModel)
	return nil
}

func (pr *PredictRouter) GetModel(cc echo.Context) error {
	return cc.JSON(http.StatusOK, pr.ph.ModelInfo())
}

func (pr *PredictRouter) Predict(cc echo.Context) error {
	c := cc.(*ctx.Context)
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return writeError(c, shared.ErrBodyTooLarge)
		}
		return writeError(c, &shared.RequestError{
			StatusCode: http.StatusBadRequest,
			Err:        fmt.Errorf("failed to read request body: %w", err),
		})
	}

	reqCtx, cancel := context.WithTimeout(c.Request().Context(), shared.DefaultRequestTimeout)
	defer cancel()

	out, err := pr.ph.Predict(reqCtx, predict.PredictInput{
		Body:      body,
		RequestID: c.Reqid,
	})
	if err != nil {
		return writeError(c, err)
	}

	c.LogValues.Variant = out.Variant
	c.LogValues.Rows = out.Rows
	c.LogValues.Cached = out.Cached
	return c.JSONBlob(http.StatusOK, out.Body)
}

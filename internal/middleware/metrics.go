package middleware

import (
	"fmt"
	"net/http"
	"time"

	"predict-api/internal/ctx"
	"predict-api/internal/metrics"
	"predict-api/internal/shared"

	"github.com/aidarkhanov/nanoid"
	"github.com/labstack/echo/v4"
	emw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

const requestIDAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

func NewTrackMiddleware(log *zap.SugaredLogger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			reqID, _ := nanoid.Generate(requestIDAlphabet, 28)
			reqID = "req_" + reqID
			start := time.Now()

			logValues := &ctx.ContextLogValues{
				RequestID:  reqID,
				ExternalID: c.Request().Header.Get(echo.HeaderXRequestID),
				StartTime:  start,
				Path:       c.Path(),
			}
			cc := &ctx.Context{
				Context:   c,
				Log:       log.With("request_id", reqID),
				Reqid:     reqID,
				LogValues: logValues,
			}
			c.Response().Header().Set(echo.HeaderXRequestID, reqID)

			if err := next(cc); err != nil {
				logValues.AddError(err)
				c.Error(err)
			}

			logValues.RequestDuration = time.Since(start)
			logValues.StatusCode = c.Response().Status
			logRequest(log, logValues)
			metrics.ResponseCodes.WithLabelValues(c.Path(), fmt.Sprintf("%d", c.Response().Status)).Inc()
			return nil
		}
	}
}

func logRequest(log *zap.SugaredLogger, lv *ctx.ContextLogValues) {
	level := lv.LogLevel
	if level == "" {
		switch {
		case lv.StatusCode >= http.StatusInternalServerError:
			level = "ERROR"
		case lv.StatusCode >= http.StatusBadRequest:
			level = "WARN"
		default:
			level = "INFO"
		}
	}
	l := log.Desugar().With(zap.Object("request", lv)).Sugar()
	switch level {
	case "ERROR":
		l.Error("end_of_request")
	case "WARN":
		l.Warn("end_of_request")
	default:
		l.Info("end_of_request")
	}
}

func NewRecoverMiddleware(log *zap.SugaredLogger) echo.MiddlewareFunc {
	return emw.RecoverWithConfig(emw.RecoverConfig{
		StackSize: 1 << 10, // 1 KB
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			defer func() {
				_ = log.Sync()
			}()
			log.Errorw("Api Panic", "error", err.Error(), "stack", string(stack))
			return c.JSON(http.StatusInternalServerError, shared.NewErrorBody(http.StatusInternalServerError, shared.ErrInternalServerError.Err.Error()))
		},
	})
}

// NewBodyLimitMiddleware rejects bodies above limit with the JSON error envelope.
func NewBodyLimitMiddleware(limit int64) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if req.ContentLength > limit {
				return c.JSON(shared.ErrBodyTooLarge.StatusCode, shared.NewErrorBody(shared.ErrBodyTooLarge.StatusCode, shared.ErrBodyTooLarge.Err.Error()))
			}
			req.Body = http.MaxBytesReader(c.Response(), req.Body, limit)
			return next(c)
		}
	}
}

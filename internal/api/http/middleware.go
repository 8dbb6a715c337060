package http

import (
	"context"
	"errors"
	"runtime/debug"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/jinwuui/celeb-library-api-sub000/internal/auth"
	"github.com/jinwuui/celeb-library-api-sub000/internal/observability"
	apperrors "github.com/jinwuui/celeb-library-api-sub000/pkg/util"
)

// RegisterMiddlewares attaches the global middleware stack: timeout,
// request logging, the failure renderer, then the gate chain in its fixed
// order. Gates run before any route handler.
func RegisterMiddlewares(app *fiber.App, logger *zap.Logger, metrics *observability.Metrics, timeout time.Duration, gates *auth.Gates) {
	if timeout > 0 {
		app.Use(requestTimeoutMiddleware(timeout))
	}
	app.Use(observability.RequestLogger(logger, metrics))
	app.Use(failureRendererMiddleware(logger, metrics))
	app.Use(gates.LoginGate())
	app.Use(gates.RefreshGate())
	app.Use(gates.BearerGate())
}

func requestTimeoutMiddleware(timeout time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	}
}

// failureRendererMiddleware is the single place a failure becomes a
// response. It consumes the failure a gate recorded, or the error a handler
// returned, and renders {code, message, validation?} exactly once. Internal
// error text never reaches the body.
func failureRendererMiddleware(logger *zap.Logger, metrics *observability.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic recovered", zap.Any("panic", r), zap.ByteString("stack", debug.Stack()))
				err = errors.New("panic in handler")
			}

			var failure *apperrors.DomainError
			if gateFailure, ok := auth.ConsumeFailure(c); ok {
				failure = apperrors.NewDomainError(gateFailure.Status(), gateFailure.Message, gateFailure.Validation)
			} else if err != nil {
				var fiberErr *fiber.Error
				if errors.As(err, &fiberErr) {
					failure = apperrors.NewDomainError(fiberErr.Code, fiberErr.Message, nil)
				} else {
					failure = apperrors.ToDomainError(err)
				}
			}
			if failure == nil {
				return
			}

			if failure.Err != nil {
				logger.Error("request failed", zap.Error(failure))
			}
			metrics.RecordFailure(c.Path(), c.Method(), failure.Code)

			body := fiber.Map{
				"code":    failure.Code,
				"message": failure.Message,
			}
			if len(failure.Validation) > 0 {
				body["validation"] = failure.Validation
			}
			c.Status(failure.HTTPStatus)
			_ = c.JSON(body)
			err = nil
		}()
		return c.Next()
	}
}

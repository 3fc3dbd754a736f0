package httpapi

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/i474232898/weather-proxy/internal/weather"
)

type errorBody struct {
	Message string `json:"message"`
	Status  int    `json:"status,omitempty"`
	Details any    `json:"details,omitempty"`
}

// ErrorHandler renders every handler error as {"error": {...}}.
func ErrorHandler(log *zap.Logger) fiber.ErrorHandler {
	if log == nil {
		log = zap.NewNop()
	}

	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		body := errorBody{Message: "internal server error"}

		var lookupErr *weather.LookupError
		var fiberErr *fiber.Error
		switch {
		case errors.As(err, &lookupErr):
			code = lookupErr.HTTPStatus()
			body.Message = lookupErr.Message
			if lookupErr.Kind == weather.KindRejected {
				body.Status = lookupErr.Status
				body.Details = lookupErr.Details
			}
		case errors.As(err, &fiberErr):
			code = fiberErr.Code
			body.Message = fiberErr.Message
			body.Status = fiberErr.Code
		default:
			log.Error("unhandled request error",
				zap.String("path", c.Path()),
				zap.Error(err))
		}

		return c.Status(code).JSON(fiber.Map{"error": body})
	}
}

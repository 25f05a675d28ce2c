package serverutils

import (
	"errors"

	"ai-discovery-be/internal/dto"
	"ai-discovery-be/internal/pkg/logger"
	"ai-discovery-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

// NewErrorHandler maps domain errors to HTTP status codes. Anything
// unrecognized becomes a 500 without leaking internals.
func NewErrorHandler(log logger.ILogger) fiber.ErrorHandler {
	return func(ctx *fiber.Ctx, err error) error {
		var limitErr *dto.LimitExceededError
		if errors.As(err, &limitErr) {
			return ctx.Status(fiber.StatusTooManyRequests).JSON(dto.LimitExceededResponse{
				Success:   false,
				Code:      fiber.StatusTooManyRequests,
				Message:   limitErr.Error(),
				ErrorType: "RATE_LIMITED",
				Data: dto.LimitExceededData{
					Window:     limitErr.Window,
					Limit:      limitErr.Limit,
					Used:       limitErr.Used,
					ResetAfter: limitErr.ResetAfter,
				},
			})
		}

		if errors.Is(err, service.ErrSessionNotFound) {
			return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"success": false,
				"message": err.Error(),
			})
		}

		if errors.Is(err, service.ErrEmptyQuery) {
			return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"message": err.Error(),
			})
		}

		var validationErr *ValidationError
		if errors.As(err, &validationErr) {
			return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"message": "validation failed",
				"fields":  validationErr.Fields,
			})
		}

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return ctx.Status(fiberErr.Code).JSON(fiber.Map{
				"success": false,
				"message": fiberErr.Message,
			})
		}

		log.Error("http", "unhandled error", map[string]interface{}{
			"path":  ctx.Path(),
			"error": err.Error(),
		})

		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "internal server error",
		})
	}
}

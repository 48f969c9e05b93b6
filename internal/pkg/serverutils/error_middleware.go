package serverutils

import (
	"errors"

	"ai-filesearch-be/internal/pkg/apperror"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandlerMiddleware translates the apperror taxonomy into HTTP
// responses. Validation and configuration failures never reached the
// provider; remote failures are classified by message text since the
// provider exposes no stable machine-readable code.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		var validationErr *apperror.ValidationError
		if errors.As(err, &validationErr) {
			return ctx.Status(fiber.StatusBadRequest).JSON(
				ErrorResponse(fiber.StatusBadRequest, validationErr.Message))
		}

		var configErr *apperror.ConfigurationError
		if errors.As(err, &configErr) {
			return ctx.Status(fiber.StatusBadRequest).JSON(
				ErrorResponse(fiber.StatusBadRequest, configErr.Error()))
		}

		var notFoundErr *apperror.NotFoundError
		if errors.As(err, &notFoundErr) {
			return ctx.Status(fiber.StatusNotFound).JSON(
				ErrorResponse(fiber.StatusNotFound, notFoundErr.Error()))
		}

		var remoteErr *apperror.RemoteServiceError
		if errors.As(err, &remoteErr) {
			category := apperror.Classify(remoteErr.Message)
			status := apperror.StatusCode(category)
			body := ErrorResponse(status, apperror.UserMessage(category))
			body["details"] = remoteErr.Message
			return ctx.Status(status).JSON(body)
		}

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return ctx.Status(fiberErr.Code).JSON(
				ErrorResponse(fiberErr.Code, fiberErr.Message))
		}

		return ctx.Status(fiber.StatusInternalServerError).JSON(
			ErrorResponse(fiber.StatusInternalServerError, "internal server error"))
	}
}

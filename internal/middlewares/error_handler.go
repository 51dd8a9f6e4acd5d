package middlewares

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/khanghh/kcentral/internal/handlers/api"
	"github.com/khanghh/kcentral/internal/validation"
)

// ErrorHandler renders every error returned by a handler as JSON. Errors that
// are not part of the API contract are logged and reported as a bad request
// without internals.
func ErrorHandler(ctx *fiber.Ctx, err error) error {
	var (
		apiErr   *api.Error
		formErrs validation.Errors
		fiberErr *fiber.Error
	)
	switch {
	case errors.As(err, &apiErr):
		return ctx.Status(apiErr.Status).JSON(api.DetailResponse{Detail: apiErr.Detail})
	case errors.As(err, &formErrs):
		return ctx.Status(fiber.StatusBadRequest).JSON(formErrs)
	case errors.As(err, &fiberErr):
		switch fiberErr.Code {
		case fiber.StatusNotFound:
			return ctx.Status(fiber.StatusNotFound).JSON(api.RouteErrorResponse{Error: api.MsgRouteNotFound})
		case fiber.StatusMethodNotAllowed:
			methodErr := api.ErrMethodNotAllowed(ctx.Method())
			return ctx.Status(methodErr.Status).JSON(api.DetailResponse{Detail: methodErr.Detail})
		case fiber.StatusRequestEntityTooLarge, fiber.StatusTooManyRequests:
			return ctx.Status(fiberErr.Code).JSON(api.DetailResponse{Detail: fiberErr.Message})
		}
	}
	slog.Error("Unhandled error", "method", ctx.Method(), "path", ctx.Path(), "error", err)
	return ctx.Status(fiber.StatusBadRequest).JSON(api.DetailResponse{Detail: api.MsgUnexpectedError})
}

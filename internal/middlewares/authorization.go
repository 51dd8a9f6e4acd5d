package middlewares

import (
	"github.com/gofiber/fiber/v2"
	"github.com/khanghh/kcentral/internal/auth"
	"github.com/khanghh/kcentral/internal/handlers/api"
	"github.com/khanghh/kcentral/model"
)

// RequirePermission lets the request through when the authenticated user
// holds the permission the request method needs on resource.
func RequirePermission(resource model.Resource) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		user := api.CurrentUser(ctx)
		if user == nil {
			return api.ErrNotAuthenticated
		}
		codename, ok := auth.RequiredPermission(resource, ctx.Method())
		if !ok || !auth.HasPermission(user, codename) {
			return api.ErrPermissionDenied
		}
		return ctx.Next()
	}
}

package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/khanghh/kcentral/internal/users"
)

// PermissionHandler exposes the seeded permissions read only.
type PermissionHandler struct {
	permService PermissionService
}

func (h *PermissionHandler) GetPermissions(ctx *fiber.Ctx) error {
	scope, err := listScope(ctx, permissionFilterSet)
	if err != nil {
		return err
	}
	perms, err := h.permService.ListPermissions(ctx.Context(), scope)
	if err != nil {
		return err
	}
	return ctx.JSON(serializeList(perms, serializePermission))
}

func (h *PermissionHandler) GetPermission(ctx *fiber.Ctx) error {
	permID, err := pathID(ctx)
	if err != nil {
		return err
	}
	perm, err := h.permService.GetPermissionByID(ctx.Context(), permID)
	if err != nil {
		return notFound(err, users.ErrPermissionNotFound)
	}
	return ctx.JSON(serializePermission(perm))
}

func NewPermissionHandler(permService PermissionService) *PermissionHandler {
	return &PermissionHandler{
		permService: permService,
	}
}

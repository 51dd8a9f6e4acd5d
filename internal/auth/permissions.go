package auth

import (
	"github.com/gofiber/fiber/v2"
	"github.com/khanghh/kcentral/model"
)

var methodActions = map[string]model.Action{
	fiber.MethodGet:     model.ActionView,
	fiber.MethodHead:    model.ActionView,
	fiber.MethodOptions: model.ActionView,
	fiber.MethodPost:    model.ActionAdd,
	fiber.MethodPut:     model.ActionChange,
	fiber.MethodPatch:   model.ActionChange,
	fiber.MethodDelete:  model.ActionDelete,
}

// RequiredPermission returns the codename needed to call method on resource.
func RequiredPermission(resource model.Resource, method string) (string, bool) {
	action, ok := methodActions[method]
	if !ok {
		return "", false
	}
	return model.PermissionCodename(action, resource), true
}

// HasPermission checks the effective permission set of an active user.
// Active superusers hold every permission.
func HasPermission(user *model.User, codename string) bool {
	if user == nil || !user.IsActive {
		return false
	}
	if user.IsSuperuser {
		return true
	}
	_, ok := user.PermissionCodes()[codename]
	return ok
}

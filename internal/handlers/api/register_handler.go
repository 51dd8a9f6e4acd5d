package api

import (
	"github.com/gofiber/fiber/v2"
)

type RegisterHandler struct {
	userService UserService
}

// PostRegister creates an account from the public sign up form. Privilege
// and relation fields are not read, so they keep their defaults.
func (h *RegisterHandler) PostRegister(ctx *fiber.Ctx) error {
	form, err := parseForm(ctx, false)
	if err != nil {
		return err
	}
	in := readAccountFields(form)
	serviceErrs, err := h.userService.ValidateUser(ctx.Context(), nil, in)
	if err != nil {
		return err
	}
	if err := formErrors(form, serviceErrs); err != nil {
		return err
	}

	user, err := h.userService.CreateUser(ctx.Context(), in)
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusCreated).JSON(serializeUser(user))
}

func NewRegisterHandler(userService UserService) *RegisterHandler {
	return &RegisterHandler{
		userService: userService,
	}
}

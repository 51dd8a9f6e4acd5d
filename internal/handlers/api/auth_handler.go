package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/khanghh/kcentral/internal/users"
)

type AuthHandler struct {
	userService  UserService
	tokenService TokenService
}

type accessTokenResponse struct {
	Access string `json:"access"`
}

// PostLogin exchanges credentials for an access and refresh token pair. The
// username field also accepts the account email.
func (h *AuthHandler) PostLogin(ctx *fiber.Ctx) error {
	form, err := parseForm(ctx, false)
	if err != nil {
		return err
	}
	identifierField := "username"
	if !form.Has("username") && form.Has("email") {
		identifierField = "email"
	}
	identifier, _ := form.String(identifierField, true, 0)
	password, _ := form.String("password", true, 0)
	if errs := form.Errors(); !errs.Empty() {
		return errs
	}

	user, err := h.userService.Authenticate(ctx.Context(), identifier, password)
	if errors.Is(err, users.ErrInvalidCredentials) {
		return ErrNoActiveAccount
	}
	if err != nil {
		return err
	}

	pair, err := h.tokenService.IssueTokenPair(user)
	if err != nil {
		return err
	}
	return ctx.JSON(pair)
}

func (h *AuthHandler) PostRefresh(ctx *fiber.Ctx) error {
	form, err := parseForm(ctx, false)
	if err != nil {
		return err
	}
	refresh, _ := form.String("refresh", true, 0)
	if errs := form.Errors(); !errs.Empty() {
		return errs
	}

	access, err := h.tokenService.Refresh(refresh)
	if err != nil {
		return ErrRefreshInvalid
	}
	return ctx.JSON(accessTokenResponse{Access: access})
}

func NewAuthHandler(userService UserService, tokenService TokenService) *AuthHandler {
	return &AuthHandler{
		userService:  userService,
		tokenService: tokenService,
	}
}

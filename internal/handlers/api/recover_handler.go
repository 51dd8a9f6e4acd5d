package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/khanghh/kcentral/internal/auth"
	"github.com/khanghh/kcentral/internal/mail"
	"github.com/khanghh/kcentral/internal/users"
	"github.com/khanghh/kcentral/params"
)

type RecoverHandler struct {
	userService  UserService
	tokenService TokenService
	mailSender   mail.MailSender
	resetURL     string
}

// humanDuration spells out d using its largest whole unit, e.g. "1 hour".
func humanDuration(d time.Duration) string {
	units := []struct {
		size time.Duration
		name string
	}{
		{24 * time.Hour, "day"},
		{time.Hour, "hour"},
		{time.Minute, "minute"},
	}
	for _, unit := range units {
		if d >= unit.size && d%unit.size == 0 {
			n := int64(d / unit.size)
			if n == 1 {
				return "1 " + unit.name
			}
			return fmt.Sprintf("%d %ss", n, unit.name)
		}
	}
	return d.String()
}

// withToken appends the token to link as the "token" query parameter.
func withToken(link string, token string) string {
	sep := "?"
	if strings.Contains(link, "?") {
		sep = "&"
	}
	return link + sep + "token=" + url.QueryEscape(token)
}

// PostRecover mails a password recovery link when the address belongs to an
// active account. The response never tells whether it does.
func (h *RecoverHandler) PostRecover(ctx *fiber.Ctx) error {
	form, err := parseForm(ctx, false)
	if err != nil {
		return err
	}
	email, _ := form.Email("email", true, params.EmailMaxLength)
	link, ok := form.URL("link", params.LinkMaxLength)
	if errs := form.Errors(); !errs.Empty() {
		return errs
	}
	if !ok {
		link = h.resetURL
	}

	response := DetailResponse{Detail: MsgRecoverEmailSent}
	user, err := h.userService.GetUserByEmail(ctx.Context(), email)
	if errors.Is(err, users.ErrUserNotFound) {
		return ctx.JSON(response)
	}
	if err != nil {
		return err
	}
	if !user.IsActive {
		return ctx.JSON(response)
	}

	token, err := h.tokenService.IssueRecoveryToken(ctx.Context(), user)
	if err != nil {
		return err
	}
	validFor := humanDuration(h.tokenService.RecoveryTTL())
	if err := mail.SendRecoverPassword(h.mailSender, user.Email, withToken(link, token), validFor); err != nil {
		slog.Error("Failed to send recovery email", "userID", user.ID, "error", err)
	}
	return ctx.JSON(response)
}

// PostReset sets a new password for the token owner. A recovery token can
// only be used once.
func (h *RecoverHandler) PostReset(ctx *fiber.Ctx) error {
	user := CurrentUser(ctx)
	claims := CurrentClaims(ctx)
	if user == nil || claims == nil {
		return ErrNotAuthenticated
	}

	form, err := parseForm(ctx, false)
	if err != nil {
		return err
	}
	username, ok := form.String("username", false, 0)
	if !ok || username != user.Username {
		return ErrPermissionDenied
	}
	password, _ := form.String("password", true, params.PasswordMaxLength)
	if errs := form.Errors(); !errs.Empty() {
		return errs
	}

	if err := h.userService.UpdatePassword(ctx.Context(), user, password); err != nil {
		return err
	}
	if claims.TokenType == auth.TokenTypeRecovery {
		if err := h.tokenService.ConsumeRecoveryToken(ctx.Context(), claims); err != nil {
			if errors.Is(err, auth.ErrRecoveryConsumed) {
				return ErrTokenNotValid
			}
			return err
		}
	}
	return ctx.JSON(DetailResponse{Detail: MsgPasswordChanged})
}

func NewRecoverHandler(userService UserService, tokenService TokenService, mailSender mail.MailSender, baseURL string) *RecoverHandler {
	return &RecoverHandler{
		userService:  userService,
		tokenService: tokenService,
		mailSender:   mailSender,
		resetURL:     strings.TrimRight(baseURL, "/") + "/api/reset/",
	}
}

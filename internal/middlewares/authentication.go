package middlewares

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/khanghh/kcentral/internal/auth"
	"github.com/khanghh/kcentral/internal/handlers/api"
	"github.com/khanghh/kcentral/internal/users"
	"github.com/khanghh/kcentral/model"
)

const (
	bearerPrefix    = "Bearer "
	tokenQueryParam = "token"
)

type UserLoader interface {
	GetUserByID(ctx context.Context, userID uint) (*model.User, error)
}

type TokenVerifier interface {
	Verify(tokenStr string) (*auth.Claims, error)
	CheckRecoveryToken(ctx context.Context, claims *auth.Claims) error
}

type AuthConfig struct {
	Users  UserLoader
	Tokens TokenVerifier
	// AllowRecovery accepts unused recovery tokens besides access tokens.
	AllowRecovery bool
}

// extractToken reads the bearer token from the Authorization header, falling
// back to the token query parameter.
func extractToken(ctx *fiber.Ctx) string {
	header := ctx.Get(fiber.HeaderAuthorization)
	if len(header) > len(bearerPrefix) && strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
		return strings.TrimSpace(header[len(bearerPrefix):])
	}
	return ctx.Query(tokenQueryParam)
}

// Authenticate resolves the request identity from its token and loads the
// user with its permissions.
func Authenticate(config AuthConfig) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		tokenStr := extractToken(ctx)
		if tokenStr == "" {
			return api.ErrNotAuthenticated
		}
		claims, err := config.Tokens.Verify(tokenStr)
		if err != nil {
			return api.ErrTokenNotValid
		}
		switch claims.TokenType {
		case auth.TokenTypeAccess:
		case auth.TokenTypeRecovery:
			if !config.AllowRecovery {
				return api.ErrTokenNotValid
			}
			if err := config.Tokens.CheckRecoveryToken(ctx.Context(), claims); err != nil {
				if errors.Is(err, auth.ErrRecoveryConsumed) {
					return api.ErrTokenNotValid
				}
				return err
			}
		default:
			return api.ErrTokenNotValid
		}

		user, err := config.Users.GetUserByID(ctx.Context(), claims.UserID)
		if errors.Is(err, users.ErrUserNotFound) {
			return api.ErrUserNotFound
		}
		if err != nil {
			return err
		}
		if !user.IsActive {
			return api.ErrUserInactive
		}
		api.SetIdentity(ctx, user, claims)
		return ctx.Next()
	}
}

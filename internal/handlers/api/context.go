package api

import (
	"bytes"
	"encoding/json"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/khanghh/kcentral/internal/auth"
	"github.com/khanghh/kcentral/internal/filters"
	"github.com/khanghh/kcentral/internal/validation"
	"github.com/khanghh/kcentral/model"
	"gorm.io/gorm"
)

const (
	localsUser   = "user"
	localsClaims = "claims"
)

// SetIdentity stores the authenticated user and its token claims on the request.
func SetIdentity(ctx *fiber.Ctx, user *model.User, claims *auth.Claims) {
	ctx.Locals(localsUser, user)
	ctx.Locals(localsClaims, claims)
}

func CurrentUser(ctx *fiber.Ctx) *model.User {
	user, _ := ctx.Locals(localsUser).(*model.User)
	return user
}

func CurrentClaims(ctx *fiber.Ctx) *auth.Claims {
	claims, _ := ctx.Locals(localsClaims).(*auth.Claims)
	return claims
}

// parseBody decodes a JSON object body. An empty body is an empty object.
func parseBody(ctx *fiber.Ctx) (map[string]any, error) {
	body := bytes.TrimSpace(ctx.Body())
	data := map[string]any{}
	if len(body) == 0 {
		return data, nil
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&data); err != nil {
		return nil, ErrJSONParse
	}
	if dec.More() {
		return nil, ErrJSONParse
	}
	return data, nil
}

func parseForm(ctx *fiber.Ctx, partial bool) (*validation.Form, error) {
	data, err := parseBody(ctx)
	if err != nil {
		return nil, err
	}
	return validation.NewForm(data, partial), nil
}

// pathID reads the :id route parameter. Ids that can not name a row are not found.
func pathID(ctx *fiber.Ctx) (uint, error) {
	id, ok := validation.ParseID(ctx.Params("id"))
	if !ok {
		return 0, ErrNotFound
	}
	return id, nil
}

// isPartial reports whether the request updates only the supplied fields.
func isPartial(ctx *fiber.Ctx) bool {
	return ctx.Method() == fiber.MethodPatch
}

// listScope turns the query string into a scope with the filters, search and
// ordering of fs.
func listScope(ctx *fiber.Ctx, fs *filters.FilterSet) (func(*gorm.DB) *gorm.DB, error) {
	return fs.Apply(ctx.Queries())
}

// notFound maps the lookup errors of a service to a 404 response.
func notFound(err error, targets ...error) error {
	for _, target := range targets {
		if errors.Is(err, target) {
			return ErrNotFound
		}
	}
	return err
}

// formErrors merges the field errors of the form with those found by the
// service so the client sees all of them at once.
func formErrors(form *validation.Form, serviceErrs validation.Errors) error {
	errs := validation.Errors{}
	errs.Merge(form.Errors())
	errs.Merge(serviceErrs)
	return errs.Err()
}

func noContent(ctx *fiber.Ctx) error {
	return ctx.SendStatus(fiber.StatusNoContent)
}

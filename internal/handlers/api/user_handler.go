package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/khanghh/kcentral/internal/users"
	"github.com/khanghh/kcentral/internal/validation"
	"github.com/khanghh/kcentral/params"
)

type UserHandler struct {
	userService UserService
}

// readAccountFields reads the fields a user may set on their own account.
func readAccountFields(form *validation.Form) users.UserInput {
	var in users.UserInput
	if username, ok := form.Username("username", true, params.UsernameMaxLength); ok {
		in.Username = &username
	}
	if email, ok := form.Email("email", true, params.EmailMaxLength); ok {
		in.Email = &email
	}
	if password, ok := form.String("password", true, params.PasswordMaxLength); ok {
		in.Password = &password
	}
	if firstName, ok := form.String("first_name", false, params.NameMaxLength); ok {
		in.FirstName = &firstName
	}
	if lastName, ok := form.String("last_name", false, params.NameMaxLength); ok {
		in.LastName = &lastName
	}
	return in
}

// readUserFields reads every writable user field, privileges and relations
// included.
func readUserFields(form *validation.Form) users.UserInput {
	in := readAccountFields(form)
	if isActive, ok := form.Bool("is_active"); ok {
		in.IsActive = &isActive
	}
	if isStaff, ok := form.Bool("is_staff"); ok {
		in.IsStaff = &isStaff
	}
	if isSuperuser, ok := form.Bool("is_superuser"); ok {
		in.IsSuperuser = &isSuperuser
	}
	if groupIDs, ok := form.PrimaryKeys("groups"); ok {
		in.GroupIDs, in.SetGroups = groupIDs, true
	}
	if permIDs, ok := form.PrimaryKeys("user_permissions"); ok {
		in.PermissionIDs, in.SetPerms = permIDs, true
	}
	return in
}

func (h *UserHandler) GetUsers(ctx *fiber.Ctx) error {
	scope, err := listScope(ctx, userFilterSet)
	if err != nil {
		return err
	}
	userList, err := h.userService.ListUsers(ctx.Context(), scope)
	if err != nil {
		return err
	}
	return ctx.JSON(serializeList(userList, serializeUser))
}

func (h *UserHandler) PostUser(ctx *fiber.Ctx) error {
	form, err := parseForm(ctx, false)
	if err != nil {
		return err
	}
	in := readUserFields(form)
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

func (h *UserHandler) GetUser(ctx *fiber.Ctx) error {
	userID, err := pathID(ctx)
	if err != nil {
		return err
	}
	user, err := h.userService.GetUserByID(ctx.Context(), userID)
	if err != nil {
		return notFound(err, users.ErrUserNotFound)
	}
	return ctx.JSON(serializeUser(user))
}

// PutUser replaces the user. PATCH requests are routed here as well and only
// touch the supplied fields.
func (h *UserHandler) PutUser(ctx *fiber.Ctx) error {
	userID, err := pathID(ctx)
	if err != nil {
		return err
	}
	user, err := h.userService.GetUserByID(ctx.Context(), userID)
	if err != nil {
		return notFound(err, users.ErrUserNotFound)
	}

	form, err := parseForm(ctx, isPartial(ctx))
	if err != nil {
		return err
	}
	in := readUserFields(form)
	serviceErrs, err := h.userService.ValidateUser(ctx.Context(), user, in)
	if err != nil {
		return err
	}
	if err := formErrors(form, serviceErrs); err != nil {
		return err
	}

	user, err = h.userService.UpdateUser(ctx.Context(), user, in)
	if err != nil {
		return err
	}
	return ctx.JSON(serializeUser(user))
}

func (h *UserHandler) DeleteUser(ctx *fiber.Ctx) error {
	userID, err := pathID(ctx)
	if err != nil {
		return err
	}
	if err := h.userService.DeleteUser(ctx.Context(), userID); err != nil {
		return notFound(err, users.ErrUserNotFound)
	}
	return noContent(ctx)
}

func NewUserHandler(userService UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

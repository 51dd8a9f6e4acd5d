package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/khanghh/kcentral/internal/users"
	"github.com/khanghh/kcentral/internal/validation"
	"github.com/khanghh/kcentral/params"
)

type GroupHandler struct {
	groupService GroupService
}

func readGroupFields(form *validation.Form) users.GroupInput {
	var in users.GroupInput
	if name, ok := form.String("name", true, params.GroupNameMaxLength); ok {
		in.Name = &name
	}
	if permIDs, ok := form.PrimaryKeys("permissions"); ok {
		in.PermissionIDs, in.SetPerms = permIDs, true
	}
	return in
}

func (h *GroupHandler) GetGroups(ctx *fiber.Ctx) error {
	scope, err := listScope(ctx, groupFilterSet)
	if err != nil {
		return err
	}
	groups, err := h.groupService.ListGroups(ctx.Context(), scope)
	if err != nil {
		return err
	}
	return ctx.JSON(serializeList(groups, serializeGroup))
}

func (h *GroupHandler) PostGroup(ctx *fiber.Ctx) error {
	form, err := parseForm(ctx, false)
	if err != nil {
		return err
	}
	in := readGroupFields(form)
	serviceErrs, err := h.groupService.ValidateGroup(ctx.Context(), nil, in)
	if err != nil {
		return err
	}
	if err := formErrors(form, serviceErrs); err != nil {
		return err
	}

	group, err := h.groupService.CreateGroup(ctx.Context(), in)
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusCreated).JSON(serializeGroup(group))
}

func (h *GroupHandler) GetGroup(ctx *fiber.Ctx) error {
	groupID, err := pathID(ctx)
	if err != nil {
		return err
	}
	group, err := h.groupService.GetGroupByID(ctx.Context(), groupID)
	if err != nil {
		return notFound(err, users.ErrGroupNotFound)
	}
	return ctx.JSON(serializeGroup(group))
}

func (h *GroupHandler) PutGroup(ctx *fiber.Ctx) error {
	groupID, err := pathID(ctx)
	if err != nil {
		return err
	}
	group, err := h.groupService.GetGroupByID(ctx.Context(), groupID)
	if err != nil {
		return notFound(err, users.ErrGroupNotFound)
	}

	form, err := parseForm(ctx, isPartial(ctx))
	if err != nil {
		return err
	}
	in := readGroupFields(form)
	serviceErrs, err := h.groupService.ValidateGroup(ctx.Context(), group, in)
	if err != nil {
		return err
	}
	if err := formErrors(form, serviceErrs); err != nil {
		return err
	}

	group, err = h.groupService.UpdateGroup(ctx.Context(), group, in)
	if err != nil {
		return err
	}
	return ctx.JSON(serializeGroup(group))
}

func (h *GroupHandler) DeleteGroup(ctx *fiber.Ctx) error {
	groupID, err := pathID(ctx)
	if err != nil {
		return err
	}
	if err := h.groupService.DeleteGroup(ctx.Context(), groupID); err != nil {
		return notFound(err, users.ErrGroupNotFound)
	}
	return noContent(ctx)
}

func NewGroupHandler(groupService GroupService) *GroupHandler {
	return &GroupHandler{
		groupService: groupService,
	}
}

package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/khanghh/kcentral/internal/logs"
	"github.com/khanghh/kcentral/internal/validation"
	"github.com/khanghh/kcentral/model"
)

type EventHandler struct {
	eventService EventService
}

func readEventFields(form *validation.Form) logs.EventInput {
	var in logs.EventInput
	if level, ok := form.Choice("level", true, model.Levels); ok {
		in.Level = &level
	}
	if description, ok := form.String("description", true, 0); ok {
		in.Description = &description
	}
	if details, ok := form.String("details", true, 0); ok {
		in.Details = &details
	}
	if datetime, ok := form.DateTime("datetime"); ok {
		in.Datetime, in.SetDatetime = datetime, true
	}
	if archived, ok := form.Bool("archived"); ok {
		in.Archived = &archived
	}
	if agentID, ok := form.PrimaryKey("agent"); ok {
		in.AgentID, in.SetAgent = agentID, true
	}
	if userID, ok := form.PrimaryKey("user"); ok {
		in.UserID, in.SetUser = userID, true
	}
	return in
}

func (h *EventHandler) GetEvents(ctx *fiber.Ctx) error {
	scope, err := listScope(ctx, eventFilterSet)
	if err != nil {
		return err
	}
	events, err := h.eventService.ListEvents(ctx.Context(), scope)
	if err != nil {
		return err
	}
	return ctx.JSON(serializeList(events, serializeEvent))
}

func (h *EventHandler) PostEvent(ctx *fiber.Ctx) error {
	form, err := parseForm(ctx, false)
	if err != nil {
		return err
	}
	in := readEventFields(form)
	serviceErrs, err := h.eventService.ValidateEvent(ctx.Context(), in)
	if err != nil {
		return err
	}
	if err := formErrors(form, serviceErrs); err != nil {
		return err
	}

	event, err := h.eventService.CreateEvent(ctx.Context(), in)
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusCreated).JSON(serializeEvent(event))
}

func (h *EventHandler) GetEvent(ctx *fiber.Ctx) error {
	eventID, err := pathID(ctx)
	if err != nil {
		return err
	}
	event, err := h.eventService.GetEventByID(ctx.Context(), eventID)
	if err != nil {
		return notFound(err, logs.ErrEventNotFound)
	}
	return ctx.JSON(serializeEvent(event))
}

func (h *EventHandler) PutEvent(ctx *fiber.Ctx) error {
	eventID, err := pathID(ctx)
	if err != nil {
		return err
	}
	event, err := h.eventService.GetEventByID(ctx.Context(), eventID)
	if err != nil {
		return notFound(err, logs.ErrEventNotFound)
	}

	form, err := parseForm(ctx, isPartial(ctx))
	if err != nil {
		return err
	}
	in := readEventFields(form)
	serviceErrs, err := h.eventService.ValidateEvent(ctx.Context(), in)
	if err != nil {
		return err
	}
	if err := formErrors(form, serviceErrs); err != nil {
		return err
	}

	event, err = h.eventService.UpdateEvent(ctx.Context(), event, in)
	if err != nil {
		return err
	}
	return ctx.JSON(serializeEvent(event))
}

func (h *EventHandler) DeleteEvent(ctx *fiber.Ctx) error {
	eventID, err := pathID(ctx)
	if err != nil {
		return err
	}
	if err := h.eventService.DeleteEvent(ctx.Context(), eventID); err != nil {
		return notFound(err, logs.ErrEventNotFound)
	}
	return noContent(ctx)
}

func NewEventHandler(eventService EventService) *EventHandler {
	return &EventHandler{
		eventService: eventService,
	}
}

package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/khanghh/kcentral/internal/logs"
	"github.com/khanghh/kcentral/internal/validation"
	"github.com/khanghh/kcentral/model"
	"github.com/khanghh/kcentral/params"
)

type AgentHandler struct {
	agentService AgentService
}

func readAgentFields(form *validation.Form) logs.AgentInput {
	var in logs.AgentInput
	if name, ok := form.String("name", true, params.AgentNameMaxLength); ok {
		in.Name = &name
	}
	if env, ok := form.Choice("environment", true, model.Environments); ok {
		in.Environment = &env
	}
	if userID, ok := form.PrimaryKey("user"); ok {
		in.UserID, in.SetUser = userID, true
	}
	if address, ok := form.IPAddress("address"); ok {
		in.Address, in.SetAddress = address, true
	}
	return in
}

func (h *AgentHandler) GetAgents(ctx *fiber.Ctx) error {
	scope, err := listScope(ctx, agentFilterSet)
	if err != nil {
		return err
	}
	agents, err := h.agentService.ListAgents(ctx.Context(), scope)
	if err != nil {
		return err
	}
	return ctx.JSON(serializeList(agents, serializeAgent))
}

func (h *AgentHandler) PostAgent(ctx *fiber.Ctx) error {
	form, err := parseForm(ctx, false)
	if err != nil {
		return err
	}
	in := readAgentFields(form)
	serviceErrs, err := h.agentService.ValidateAgent(ctx.Context(), in)
	if err != nil {
		return err
	}
	if err := formErrors(form, serviceErrs); err != nil {
		return err
	}

	agent, err := h.agentService.CreateAgent(ctx.Context(), in)
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusCreated).JSON(serializeAgent(agent))
}

func (h *AgentHandler) GetAgent(ctx *fiber.Ctx) error {
	agentID, err := pathID(ctx)
	if err != nil {
		return err
	}
	agent, err := h.agentService.GetAgentByID(ctx.Context(), agentID)
	if err != nil {
		return notFound(err, logs.ErrAgentNotFound)
	}
	return ctx.JSON(serializeAgent(agent))
}

func (h *AgentHandler) PutAgent(ctx *fiber.Ctx) error {
	agentID, err := pathID(ctx)
	if err != nil {
		return err
	}
	agent, err := h.agentService.GetAgentByID(ctx.Context(), agentID)
	if err != nil {
		return notFound(err, logs.ErrAgentNotFound)
	}

	form, err := parseForm(ctx, isPartial(ctx))
	if err != nil {
		return err
	}
	in := readAgentFields(form)
	serviceErrs, err := h.agentService.ValidateAgent(ctx.Context(), in)
	if err != nil {
		return err
	}
	if err := formErrors(form, serviceErrs); err != nil {
		return err
	}

	agent, err = h.agentService.UpdateAgent(ctx.Context(), agent, in)
	if err != nil {
		return err
	}
	return ctx.JSON(serializeAgent(agent))
}

func (h *AgentHandler) DeleteAgent(ctx *fiber.Ctx) error {
	agentID, err := pathID(ctx)
	if err != nil {
		return err
	}
	if err := h.agentService.DeleteAgent(ctx.Context(), agentID); err != nil {
		return notFound(err, logs.ErrAgentNotFound)
	}
	return noContent(ctx)
}

func NewAgentHandler(agentService AgentService) *AgentHandler {
	return &AgentHandler{
		agentService: agentService,
	}
}

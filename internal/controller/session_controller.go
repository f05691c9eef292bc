package controller

import (
	"github.com/gofiber/fiber/v2"

	"pharmarag-chat/internal/dto"
	"pharmarag-chat/internal/pkg/serverutils"
	"pharmarag-chat/internal/service"
)

type ISessionController interface {
	RegisterRoutes(r fiber.Router)
	Start(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	SetView(ctx *fiber.Ctx) error
	SetDraft(ctx *fiber.Ctx) error
}

type sessionController struct {
	service service.ISessionService
	auth    fiber.Handler
}

func NewSessionController(service service.ISessionService, auth fiber.Handler) ISessionController {
	return &sessionController{service: service, auth: auth}
}

func (c *sessionController) RegisterRoutes(r fiber.Router) {
	r.Post("/session/v1", c.Start)

	h := r.Group("/workspace/v1")
	h.Use(c.auth)
	h.Get("", c.Show)
	h.Put("view", c.SetView)
	h.Put("draft", c.SetDraft)
}

func (c *sessionController) Start(ctx *fiber.Ctx) error {
	res, err := c.service.Start(ctx.UserContext())
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success start session", res))
}

func (c *sessionController) Show(ctx *fiber.Ctx) error {
	sessionID, err := serverutils.SessionID(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.Show(ctx.UserContext(), sessionID)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success show workspace", res))
}

func (c *sessionController) SetView(ctx *fiber.Ctx) error {
	sessionID, err := serverutils.SessionID(ctx)
	if err != nil {
		return err
	}

	var req dto.SetViewRequest
	if err := parseBody(ctx, &req); err != nil {
		return err
	}

	res, err := c.service.SetView(ctx.UserContext(), sessionID, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success set view", res))
}

func (c *sessionController) SetDraft(ctx *fiber.Ctx) error {
	sessionID, err := serverutils.SessionID(ctx)
	if err != nil {
		return err
	}

	var req dto.SetDraftRequest
	if err := parseBody(ctx, &req); err != nil {
		return err
	}

	if err := c.service.SetDraft(ctx.UserContext(), sessionID, &req); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("Success set draft", nil))
}

// parseBody decodes and validates a JSON request body.
func parseBody(ctx *fiber.Ctx, req interface{}) error {
	if err := ctx.BodyParser(req); err != nil {
		return serverutils.BadRequest("Invalid request body")
	}
	return serverutils.ValidateRequest(req)
}

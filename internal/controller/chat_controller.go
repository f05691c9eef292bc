package controller

import (
	"github.com/gofiber/fiber/v2"

	"pharmarag-chat/internal/dto"
	"pharmarag-chat/internal/pkg/serverutils"
	"pharmarag-chat/internal/service"
)

type IChatController interface {
	RegisterRoutes(r fiber.Router)
	Send(ctx *fiber.Ctx) error
	ClickCitation(ctx *fiber.Ctx) error
	SelectTab(ctx *fiber.Ctx) error
	SelectSource(ctx *fiber.Ctx) error
}

type chatController struct {
	service service.IChatService
	auth    fiber.Handler
}

func NewChatController(service service.IChatService, auth fiber.Handler) IChatController {
	return &chatController{service: service, auth: auth}
}

func (c *chatController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/chat/v1")
	h.Use(c.auth)
	h.Post("send", c.Send)
	h.Post("citation", c.ClickCitation)

	panel := r.Group("/context/v1")
	panel.Use(c.auth)
	panel.Put("tab", c.SelectTab)
	panel.Put("source", c.SelectSource)
}

func (c *chatController) Send(ctx *fiber.Ctx) error {
	sessionID, err := serverutils.SessionID(ctx)
	if err != nil {
		return err
	}

	var req dto.SendMessageRequest
	if err := parseBody(ctx, &req); err != nil {
		return err
	}

	res, err := c.service.Send(ctx.UserContext(), sessionID, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success send message", res))
}

func (c *chatController) ClickCitation(ctx *fiber.Ctx) error {
	sessionID, err := serverutils.SessionID(ctx)
	if err != nil {
		return err
	}

	var req dto.CitationClickRequest
	if err := parseBody(ctx, &req); err != nil {
		return err
	}

	res, err := c.service.ClickCitation(ctx.UserContext(), sessionID, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success follow citation", res))
}

func (c *chatController) SelectTab(ctx *fiber.Ctx) error {
	sessionID, err := serverutils.SessionID(ctx)
	if err != nil {
		return err
	}

	var req dto.SelectTabRequest
	if err := parseBody(ctx, &req); err != nil {
		return err
	}

	res, err := c.service.SelectTab(ctx.UserContext(), sessionID, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success select tab", res))
}

func (c *chatController) SelectSource(ctx *fiber.Ctx) error {
	sessionID, err := serverutils.SessionID(ctx)
	if err != nil {
		return err
	}

	var req dto.SelectSourceRequest
	if err := parseBody(ctx, &req); err != nil {
		return err
	}

	res, err := c.service.SelectSource(ctx.UserContext(), sessionID, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success select source", res))
}

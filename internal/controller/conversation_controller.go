package controller

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"

	"pharmarag-chat/internal/dto"
	"pharmarag-chat/internal/pkg/serverutils"
	"pharmarag-chat/internal/service"
)

type IConversationController interface {
	RegisterRoutes(r fiber.Router)
	GetAll(ctx *fiber.Ctx) error
	Create(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	Select(ctx *fiber.Ctx) error
	Rename(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
}

type conversationController struct {
	service service.IConversationService
	auth    fiber.Handler
}

func NewConversationController(service service.IConversationService, auth fiber.Handler) IConversationController {
	return &conversationController{service: service, auth: auth}
}

func (c *conversationController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/conversation/v1")
	h.Use(c.auth)
	h.Get("", c.GetAll)
	h.Post("", c.Create)
	h.Get(":id", c.Show)
	h.Put(":id/select", c.Select)
	h.Put(":id/title", c.Rename)
	h.Delete(":id", c.Delete)
}

func (c *conversationController) GetAll(ctx *fiber.Ctx) error {
	sessionID, err := serverutils.SessionID(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.GetAll(ctx.UserContext(), sessionID)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get all conversation", res))
}

func (c *conversationController) Create(ctx *fiber.Ctx) error {
	sessionID, err := serverutils.SessionID(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.Create(ctx.UserContext(), sessionID)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success create conversation", res))
}

func (c *conversationController) Show(ctx *fiber.Ctx) error {
	sessionID, err := serverutils.SessionID(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.Show(ctx.UserContext(), sessionID, conversationID(ctx))
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success show conversation", res))
}

func (c *conversationController) Select(ctx *fiber.Ctx) error {
	sessionID, err := serverutils.SessionID(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.Select(ctx.UserContext(), sessionID, conversationID(ctx))
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success select conversation", res))
}

func (c *conversationController) Rename(ctx *fiber.Ctx) error {
	sessionID, err := serverutils.SessionID(ctx)
	if err != nil {
		return err
	}

	var req dto.RenameConversationRequest
	if err := parseBody(ctx, &req); err != nil {
		return err
	}
	req.Id = conversationID(ctx)

	res, err := c.service.Rename(ctx.UserContext(), sessionID, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success rename conversation", res))
}

func (c *conversationController) Delete(ctx *fiber.Ctx) error {
	sessionID, err := serverutils.SessionID(ctx)
	if err != nil {
		return err
	}

	if err := c.service.Delete(ctx.UserContext(), sessionID, conversationID(ctx)); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("Success delete conversation", nil))
}

// conversationID copies the path param out of the request buffer, which
// fasthttp reuses once the handler returns.
func conversationID(ctx *fiber.Ctx) string {
	return utils.CopyString(ctx.Params("id"))
}

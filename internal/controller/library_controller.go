package controller

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"

	"pharmarag-chat/internal/dto"
	"pharmarag-chat/internal/pkg/serverutils"
	"pharmarag-chat/internal/service"
)

type ILibraryController interface {
	RegisterRoutes(r fiber.Router)
	Show(ctx *fiber.Ctx) error
	LoadNames(ctx *fiber.Ctx) error
	Search(ctx *fiber.Ctx) error
	GoToPage(ctx *fiber.Ctx) error
	NextPage(ctx *fiber.Ctx) error
	PreviousPage(ctx *fiber.Ctx) error
	SelectDocument(ctx *fiber.Ctx) error
	ClearDocument(ctx *fiber.Ctx) error
}

type libraryController struct {
	service service.ILibraryService
	auth    fiber.Handler
}

func NewLibraryController(service service.ILibraryService, auth fiber.Handler) ILibraryController {
	return &libraryController{service: service, auth: auth}
}

func (c *libraryController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/library/v1")
	h.Use(c.auth)
	h.Get("", c.Show)
	h.Get("names", c.LoadNames)
	h.Post("search", c.Search)
	h.Post("next", c.NextPage)
	h.Post("previous", c.PreviousPage)
	h.Post("page/:page", c.GoToPage)

	doc := r.Group("/document/v1")
	doc.Use(c.auth)
	doc.Post("select", c.SelectDocument)
	doc.Delete("selection", c.ClearDocument)
}

func (c *libraryController) Show(ctx *fiber.Ctx) error {
	sessionID, err := serverutils.SessionID(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.Show(ctx.UserContext(), sessionID)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success show library", res))
}

func (c *libraryController) LoadNames(ctx *fiber.Ctx) error {
	sessionID, err := serverutils.SessionID(ctx)
	if err != nil {
		return err
	}

	var req dto.LoadNamesRequest
	if err := ctx.QueryParser(&req); err != nil {
		return serverutils.BadRequest("Invalid query parameters")
	}
	req.Query = utils.CopyString(req.Query)
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.LoadNames(ctx.UserContext(), sessionID, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success load names", res))
}

// Search answers 202: the debounced load finishes after the response.
func (c *libraryController) Search(ctx *fiber.Ctx) error {
	sessionID, err := serverutils.SessionID(ctx)
	if err != nil {
		return err
	}

	var req dto.SearchNamesRequest
	if err := parseBody(ctx, &req); err != nil {
		return err
	}

	res, err := c.service.Search(ctx.UserContext(), sessionID, &req)
	if err != nil {
		return err
	}

	body := serverutils.SuccessResponse("Search scheduled", res)
	body.Code = fiber.StatusAccepted
	return ctx.Status(fiber.StatusAccepted).JSON(body)
}

func (c *libraryController) GoToPage(ctx *fiber.Ctx) error {
	sessionID, err := serverutils.SessionID(ctx)
	if err != nil {
		return err
	}

	page, err := ctx.ParamsInt("page")
	if err != nil {
		return serverutils.BadRequest("page must be a number")
	}

	res, err := c.service.GoToPage(ctx.UserContext(), sessionID, page)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success go to page", res))
}

func (c *libraryController) NextPage(ctx *fiber.Ctx) error {
	sessionID, err := serverutils.SessionID(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.NextPage(ctx.UserContext(), sessionID)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success next page", res))
}

func (c *libraryController) PreviousPage(ctx *fiber.Ctx) error {
	sessionID, err := serverutils.SessionID(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.PreviousPage(ctx.UserContext(), sessionID)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success previous page", res))
}

func (c *libraryController) SelectDocument(ctx *fiber.Ctx) error {
	sessionID, err := serverutils.SessionID(ctx)
	if err != nil {
		return err
	}

	var req dto.SelectDocumentRequest
	if err := parseBody(ctx, &req); err != nil {
		return err
	}

	res, err := c.service.SelectDocument(ctx.UserContext(), sessionID, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success select document", res))
}

func (c *libraryController) ClearDocument(ctx *fiber.Ctx) error {
	sessionID, err := serverutils.SessionID(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.ClearDocument(ctx.UserContext(), sessionID)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success clear document", res))
}

package controller

import (
	"ai-discovery-be/internal/dto"
	"ai-discovery-be/internal/pkg/serverutils"
	"ai-discovery-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IResourceController interface {
	RegisterRoutes(r fiber.Router)
	CreatePaper(ctx *fiber.Ctx) error
	CreateModel(ctx *fiber.Ctx) error
}

type resourceController struct {
	service service.IResourceService
}

func NewResourceController(service service.IResourceService) IResourceController {
	return &resourceController{service: service}
}

func (c *resourceController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/resource/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Post("/papers", c.CreatePaper)
	h.Post("/models", c.CreateModel)
}

func (c *resourceController) CreatePaper(ctx *fiber.Ctx) error {
	var req dto.CreatePaperRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.CreatePaper(ctx.Context(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success create paper", res))
}

func (c *resourceController) CreateModel(ctx *fiber.Ctx) error {
	var req dto.CreateModelRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.CreateModel(ctx.Context(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success create model", res))
}

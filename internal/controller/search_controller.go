package controller

import (
	"ai-discovery-be/internal/dto"
	"ai-discovery-be/internal/pkg/serverutils"
	"ai-discovery-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ISearchController interface {
	RegisterRoutes(r fiber.Router)
	Search(ctx *fiber.Ctx) error
}

type searchController struct {
	service service.ISearchService
}

func NewSearchController(service service.ISearchService) ISearchController {
	return &searchController{service: service}
}

func (c *searchController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/search/v1")
	h.Use(serverutils.OptionalJwtMiddleware) // public, auth only enriches
	h.Post("", c.Search)
}

func (c *searchController) Search(ctx *fiber.Ctx) error {
	var req dto.SearchRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Search(ctx.Context(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success search", res))
}

package controller

import (
	"crm-analytics-be/internal/pkg/serverutils"
	"crm-analytics-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IDashboardController interface {
	RegisterRoutes(r fiber.Router)
	ListProducts(ctx *fiber.Ctx) error
	ShowProduct(ctx *fiber.Ctx) error
}

type dashboardController struct {
	dashboardService service.IDashboardService
}

func NewDashboardController(dashboardService service.IDashboardService) IDashboardController {
	return &dashboardController{
		dashboardService: dashboardService,
	}
}

func (c *dashboardController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/dashboard/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Get("products", c.ListProducts)
	h.Get("products/:id", c.ShowProduct)
}

func (c *dashboardController) ListProducts(ctx *fiber.Ctx) error {
	res := c.dashboardService.ListProducts(ctx.Context())
	return ctx.JSON(serverutils.SuccessResponse("Success list products", res))
}

func (c *dashboardController) ShowProduct(ctx *fiber.Ctx) error {
	id := ctx.Params("id")

	res, err := c.dashboardService.ShowProduct(ctx.Context(), id)
	if err != nil {
		return err
	}
	if res == nil {
		return fiber.NewError(fiber.StatusNotFound, "Product not found")
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get product", res))
}

package controller

import (
	"strconv"

	"ai-filesearch-be/internal/dto"
	"ai-filesearch-be/internal/pkg/apperror"
	"ai-filesearch-be/internal/pkg/serverutils"
	"ai-filesearch-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IStorefrontController interface {
	RegisterRoutes(r fiber.Router)
	Products(ctx *fiber.Ctx) error
	Cart(ctx *fiber.Ctx) error
	AddItem(ctx *fiber.Ctx) error
	UpdateItem(ctx *fiber.Ctx) error
	RemoveItem(ctx *fiber.Ctx) error
	ClearCart(ctx *fiber.Ctx) error
	AnalyzeCart(ctx *fiber.Ctx) error
}

type storefrontController struct {
	service service.IStorefrontService
}

func NewStorefrontController(service service.IStorefrontService) IStorefrontController {
	return &storefrontController{service: service}
}

func (c *storefrontController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/store/v1")
	h.Get("/products", c.Products)
	h.Get("/cart", c.Cart)
	h.Post("/cart/items", c.AddItem)
	h.Put("/cart/items/:productId", c.UpdateItem)
	h.Delete("/cart/items/:productId", c.RemoveItem)
	h.Delete("/cart", c.ClearCart)
	h.Post("/cart/analyze", c.AnalyzeCart)
}

func (c *storefrontController) Products(ctx *fiber.Ctx) error {
	res := c.service.Products(ctx.Query("q"))
	return ctx.JSON(serverutils.SuccessResponse("Success get products", res))
}

func (c *storefrontController) Cart(ctx *fiber.Ctx) error {
	res, err := c.service.Cart(ctx.Context(), deviceId(ctx))
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get cart", res))
}

func (c *storefrontController) AddItem(ctx *fiber.Ctx) error {
	var req dto.AddCartItemRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.AddItem(ctx.Context(), deviceId(ctx), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Item added to cart", res))
}

func (c *storefrontController) UpdateItem(ctx *fiber.Ctx) error {
	productId, err := strconv.Atoi(ctx.Params("productId"))
	if err != nil {
		return apperror.NewValidation("invalid product id")
	}

	var req dto.UpdateCartItemRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.UpdateItem(ctx.Context(), deviceId(ctx), productId, req.Quantity)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Cart item updated", res))
}

func (c *storefrontController) RemoveItem(ctx *fiber.Ctx) error {
	productId, err := strconv.Atoi(ctx.Params("productId"))
	if err != nil {
		return apperror.NewValidation("invalid product id")
	}

	res, err := c.service.RemoveItem(ctx.Context(), deviceId(ctx), productId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Cart item removed", res))
}

func (c *storefrontController) ClearCart(ctx *fiber.Ctx) error {
	if err := c.service.ClearCart(ctx.Context(), deviceId(ctx)); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Cart cleared", nil))
}

func (c *storefrontController) AnalyzeCart(ctx *fiber.Ctx) error {
	res, err := c.service.AnalyzeCart(ctx.Context(), deviceId(ctx))
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Cart analyzed", res))
}

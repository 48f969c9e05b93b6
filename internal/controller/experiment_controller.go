package controller

import (
	"ai-filesearch-be/internal/dto"
	"ai-filesearch-be/internal/pkg/apperror"
	"ai-filesearch-be/internal/pkg/serverutils"
	"ai-filesearch-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IExperimentController interface {
	RegisterRoutes(r fiber.Router)
	Variant(ctx *fiber.Ctx) error
	Exposure(ctx *fiber.Ctx) error
}

type experimentController struct {
	service service.IExperimentService
}

func NewExperimentController(service service.IExperimentService) IExperimentController {
	return &experimentController{service: service}
}

func (c *experimentController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/experiment/v1")
	h.Get("/:experiment/variant", c.Variant)
	h.Post("/:experiment/exposure", c.Exposure)
}

func (c *experimentController) Variant(ctx *fiber.Ctx) error {
	experiment := ctx.Params("experiment")
	if experiment == "" {
		return apperror.NewValidation("experiment name is required")
	}

	res := c.service.Variant(deviceId(ctx), experiment)
	return ctx.JSON(serverutils.SuccessResponse("Variant assigned", res))
}

func (c *experimentController) Exposure(ctx *fiber.Ctx) error {
	experiment := ctx.Params("experiment")
	if experiment == "" {
		return apperror.NewValidation("experiment name is required")
	}

	var req dto.ExposureRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	id := deviceId(ctx)
	variant := req.Variant
	if variant == "" {
		variant = c.service.Variant(id, experiment).Variant
	}

	c.service.Exposure(id, experiment, variant)
	return ctx.JSON(serverutils.SuccessResponse("Exposure recorded", nil))
}

package controller

import (
	"strconv"

	"ai-filesearch-be/internal/pkg/logger"
	"ai-filesearch-be/internal/pkg/serverutils"

	"github.com/gofiber/fiber/v2"
)

type IAdminController interface {
	RegisterRoutes(r fiber.Router)
	GetLogs(ctx *fiber.Ctx) error
	GetLogDetail(ctx *fiber.Ctx) error
}

// adminController exposes the rotating log file for operational debugging.
type adminController struct {
	logger logger.ILogger
}

func NewAdminController(log logger.ILogger) IAdminController {
	return &adminController{logger: log}
}

func (c *adminController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/admin/v1")
	h.Get("/logs", c.GetLogs)
	h.Get("/logs/:id", c.GetLogDetail)
}

func (c *adminController) GetLogs(ctx *fiber.Ctx) error {
	page, _ := strconv.Atoi(ctx.Query("page", "1"))
	limit, _ := strconv.Atoi(ctx.Query("limit", "10"))
	level := ctx.Query("level", "")
	if page < 1 {
		page = 1
	}

	logs, err := c.logger.GetLogs(level, limit, (page-1)*limit)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("System logs", fiber.Map{
		"logs":  logs,
		"page":  page,
		"limit": limit,
	}))
}

func (c *adminController) GetLogDetail(ctx *fiber.Ctx) error {
	// Log ids are line hashes, not UUIDs.
	entry, err := c.logger.GetLogById(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(serverutils.ErrorResponse(404, "Log not found"))
	}

	return ctx.JSON(serverutils.SuccessResponse("Log detail", entry))
}

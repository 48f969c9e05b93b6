package controller

import (
	"io"
	"strings"

	"ai-filesearch-be/internal/dto"
	"ai-filesearch-be/internal/pkg/apperror"
	"ai-filesearch-be/internal/pkg/serverutils"
	"ai-filesearch-be/internal/service"
	"ai-filesearch-be/pkg/gemini"

	"github.com/gofiber/fiber/v2"
)

type IFileSearchController interface {
	RegisterRoutes(r fiber.Router)
	CreateStore(ctx *fiber.Ctx) error
	ListStores(ctx *fiber.Ctx) error
	ShowStore(ctx *fiber.Ctx) error
	DeleteStore(ctx *fiber.Ctx) error
	Upload(ctx *fiber.Ctx) error
	Operations(ctx *fiber.Ctx) error
	OperationStatus(ctx *fiber.Ctx) error
	Chat(ctx *fiber.Ctx) error
}

type fileSearchController struct {
	service service.IFileSearchService
}

func NewFileSearchController(service service.IFileSearchService) IFileSearchController {
	return &fileSearchController{service: service}
}

func (c *fileSearchController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/filesearch/v1")
	h.Get("/stores", c.ListStores)
	h.Post("/stores", c.CreateStore)
	h.Get("/operations", c.Operations)
	h.Get("/operations/*", c.OperationStatus)
	h.Post("/upload", c.Upload)
	h.Post("/chat", c.Chat)
	// Store resource names contain slashes, so these take a wildcard.
	h.Get("/stores/*", c.ShowStore)
	h.Delete("/stores/*", c.DeleteStore)
}

// storeNameParam accepts both the bare store id and the full resource name.
func storeNameParam(ctx *fiber.Ctx) string {
	name := ctx.Params("*")
	if name != "" && !strings.HasPrefix(name, "fileSearchStores/") {
		name = "fileSearchStores/" + name
	}
	return name
}

func (c *fileSearchController) CreateStore(ctx *fiber.Ctx) error {
	var req dto.CreateStoreRequest
	if err := ctx.BodyParser(&req); err != nil && err != fiber.ErrUnprocessableEntity {
		return err
	}

	res, err := c.service.CreateStore(ctx.Context(), req.DisplayName)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success create store", res))
}

func (c *fileSearchController) ListStores(ctx *fiber.Ctx) error {
	res, err := c.service.ListStores(ctx.Context())
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get all stores", res))
}

func (c *fileSearchController) ShowStore(ctx *fiber.Ctx) error {
	name := storeNameParam(ctx)
	if name == "" {
		return apperror.NewValidation("store name is required")
	}

	res, err := c.service.GetStoreDetails(ctx.Context(), name)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success show store", res))
}

func (c *fileSearchController) DeleteStore(ctx *fiber.Ctx) error {
	name := storeNameParam(ctx)
	if name == "" {
		return apperror.NewValidation("store name is required")
	}

	if err := c.service.DeleteStore(ctx.Context(), name); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success delete store", nil))
}

func (c *fileSearchController) Upload(ctx *fiber.Ctx) error {
	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		return apperror.NewValidation("file is required")
	}
	if fileHeader.Size > gemini.MaxUploadBytes {
		return apperror.NewValidation("file too large, maximum size is 100MB")
	}

	storeName := ctx.FormValue("store_name")
	if storeName == "" {
		storeName = ctx.FormValue("fileSearchStoreName")
	}
	displayName := ctx.FormValue("display_name")
	if displayName == "" {
		displayName = fileHeader.Filename
	}

	file, err := fileHeader.Open()
	if err != nil {
		return err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return err
	}

	res, err := c.service.UploadFile(ctx.Context(), data, storeName, displayName, fileHeader.Header.Get("Content-Type"))
	if err != nil {
		return err
	}

	return ctx.Status(fiber.StatusAccepted).JSON(serverutils.SuccessResponse("Upload started", res))
}

func (c *fileSearchController) Operations(ctx *fiber.Ctx) error {
	return ctx.JSON(serverutils.SuccessResponse("Success get operations", c.service.Operations()))
}

func (c *fileSearchController) OperationStatus(ctx *fiber.Ctx) error {
	name := ctx.Params("*")
	if name == "" {
		return apperror.NewValidation("operation name is required")
	}

	res, err := c.service.OperationStatus(ctx.Context(), name)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get operation status", res))
}

func (c *fileSearchController) Chat(ctx *fiber.Ctx) error {
	var req dto.FileSearchChatRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Ask(ctx.Context(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success", res))
}

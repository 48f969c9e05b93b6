package controller

import (
	"ai-filesearch-be/internal/dto"
	"ai-filesearch-be/internal/pkg/serverutils"
	"ai-filesearch-be/pkg/analytics"

	"github.com/gofiber/fiber/v2"
)

type IAnalyticsController interface {
	RegisterRoutes(r fiber.Router)
	TrackEvent(ctx *fiber.Ctx) error
	Identity(ctx *fiber.Ctx) error
}

// analyticsController accepts client-side events and hands them to the same
// bus the backend instruments itself with.
type analyticsController struct {
	tracker  analytics.ITracker
	identity analytics.Identity
}

func NewAnalyticsController(tracker analytics.ITracker, identity analytics.Identity) IAnalyticsController {
	return &analyticsController{tracker: tracker, identity: identity}
}

func (c *analyticsController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/analytics/v1")
	h.Post("/events", c.TrackEvent)
	h.Get("/identity", c.Identity)
}

func (c *analyticsController) TrackEvent(ctx *fiber.Ctx) error {
	var req dto.TrackEventRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	properties := req.Properties
	if properties == nil {
		properties = map[string]interface{}{}
	}
	properties["client_device_id"] = deviceId(ctx)

	c.tracker.Track(req.Event, properties)
	return ctx.JSON(serverutils.SuccessResponse("Event tracked", nil))
}

func (c *analyticsController) Identity(ctx *fiber.Ctx) error {
	return ctx.JSON(serverutils.SuccessResponse("Analytics identity", fiber.Map{
		"device_id":  c.identity.DeviceId,
		"session_id": c.identity.SessionId,
	}))
}

package controller

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const deviceCookieName = "device_id"

// deviceId returns the caller's device identifier, minting one in a
// long-lived cookie on first contact. Carts and experiment assignments key
// off this value.
func deviceId(ctx *fiber.Ctx) string {
	if id := ctx.Cookies(deviceCookieName); id != "" {
		return id
	}

	id := uuid.NewString()
	ctx.Cookie(&fiber.Cookie{
		Name:     deviceCookieName,
		Value:    id,
		Expires:  time.Now().AddDate(1, 0, 0),
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return id
}

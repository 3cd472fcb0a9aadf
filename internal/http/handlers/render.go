package handlers

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"secondhand/internal/log"
	"secondhand/internal/repos"
	"secondhand/internal/validate"
)

const (
	sessionCookie = "sid"
	msgTimeout    = "The request took too long. Please try again."
)

func render(c *fiber.Ctx, tmpl string, data fiber.Map) error {
	if data == nil {
		data = fiber.Map{}
	}
	// Pick up the token the CSRF middleware put into Locals
	if tok, _ := c.Locals("CSRFToken").(string); tok != "" {
		data["CSRFToken"] = tok
	} else if tok := c.Cookies("csrf_"); tok != "" {
		data["CSRFToken"] = tok
	}
	return c.Render(tmpl, data)
}

// sessionID returns the cart session id, issuing a cookie on first contact.
func sessionID(c *fiber.Ctx) string {
	sid := c.Cookies(sessionCookie)
	if _, ok := validate.ID(sid); !ok {
		sid = uuid.NewString()
		c.Cookie(&fiber.Cookie{Name: sessionCookie, Value: sid, Path: "/", HTTPOnly: true, SameSite: "Lax"})
	}
	return sid
}

func jsonError(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(fiber.Map{"error": msg})
}

// storeError maps repository errors to responses. Anything unexpected goes to
// the app error handler.
func storeError(c *fiber.Ctx, action string, err error, fields map[string]any) error {
	switch {
	case errors.Is(err, repos.ErrNotFound):
		log.Info(c, action+".notfound", fields)
		return jsonError(c, fiber.StatusNotFound, "This item is no longer available")
	case errors.Is(err, repos.ErrVersionConflict):
		log.Info(c, action+".conflict", fields)
		return jsonError(c, fiber.StatusConflict, "Listing was changed by someone else, reload and retry")
	case errors.Is(err, context.DeadlineExceeded):
		log.Error(c, action+".timeout", err, fields)
		return jsonError(c, fiber.StatusGatewayTimeout, msgTimeout)
	}
	return err
}

func validationError(c *fiber.Ctx, err error) error {
	var fe validate.FieldErrors
	if errors.As(err, &fe) {
		log.Security(c, "validation.fail", map[string]any{"fields": fe})
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "validation failed", "fields": fe})
	}
	return err
}

package handlers

import (
	"errors"

	"secondhand/internal/log"
	"secondhand/internal/webhook"

	"github.com/gofiber/fiber/v2"
)

type WebhookHandler struct {
	Secret     string
	Dispatcher *webhook.Dispatcher
}

// Receive verifies the signature over the raw body before reading anything in it.
// Once verified the provider always gets {received: true}, even if applying the
// event failed; failures are logged.
func (h *WebhookHandler) Receive(c *fiber.Ctx) error {
	body := append([]byte(nil), c.Body()...)
	sig := c.Get(webhook.SignatureHeader)

	if err := webhook.Verify(body, sig, h.Secret); err != nil {
		log.Security(c, "webhook.auth.fail", map[string]any{"reason": err.Error()})
		if errors.Is(err, webhook.ErrMissingSignature) {
			return jsonError(c, fiber.StatusUnauthorized, "Missing signature or webhook secret")
		}
		return jsonError(c, fiber.StatusUnauthorized, "Invalid webhook signature")
	}

	ev, err := webhook.Parse(body)
	if err != nil {
		log.Error(c, "webhook.parse", err, nil)
		return jsonError(c, fiber.StatusInternalServerError, "Webhook processing failed")
	}

	fields := map[string]any{"event_id": ev.ID, "event_type": ev.Type, "charge_id": ev.Data.ID}
	if err := h.Dispatcher.Dispatch(c.UserContext(), ev); err != nil {
		log.Error(c, "webhook.dispatch", err, fields)
	} else {
		log.Audit(c, "webhook.received", fields)
	}
	return c.JSON(fiber.Map{"received": true})
}

package handlers

import (
	"encoding/json"
	"errors"

	"secondhand/internal/checkout"
	"secondhand/internal/commerce"
	"secondhand/internal/log"

	"github.com/gofiber/fiber/v2"
)

const (
	msgMissingAPIKey = "Missing Coinbase Commerce API key"
	msgChargeFailed  = "Failed to create charge"
)

type CheckoutHandler struct {
	Initiator *checkout.Initiator
}

type checkoutBody struct {
	ProductIDs []string `json:"product_ids"`
}

// Checkout serves POST /api/checkout. An empty product_ids pays for the whole cart.
func (h *CheckoutHandler) Checkout(c *fiber.Ctx) error {
	sid := sessionID(c)
	var body checkoutBody
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&body); err != nil {
			return jsonError(c, fiber.StatusBadRequest, "Invalid body")
		}
	}

	charge, err := h.Initiator.Initiate(c.UserContext(), sid, body.ProductIDs)
	if err != nil {
		return chargeError(c, "checkout", err)
	}
	log.Audit(c, "checkout.charge", map[string]any{"charge_id": charge.ID, "items": len(body.ProductIDs)})
	return c.JSON(fiber.Map{"id": charge.ID, "hosted_url": charge.HostedURL})
}

func chargeError(c *fiber.Ctx, action string, err error) error {
	var up *commerce.UpstreamError
	switch {
	case errors.Is(err, checkout.ErrMinimumOrder):
		log.Info(c, action+".minimum", nil)
		return jsonError(c, fiber.StatusUnprocessableEntity, checkout.MinimumOrderMessage)
	case errors.Is(err, commerce.ErrMissingAPIKey):
		log.Error(c, action+".config", err, nil)
		return jsonError(c, fiber.StatusInternalServerError, msgMissingAPIKey)
	case errors.As(err, &up):
		log.Error(c, action+".upstream", err, map[string]any{"upstream_status": up.Status})
		return jsonError(c, up.Status, up.Error())
	}
	log.Error(c, action+".fail", err, nil)
	return jsonError(c, fiber.StatusInternalServerError, msgChargeFailed)
}

// ChargesHandler forwards a client-built charge so the API key stays server-side.
type ChargesHandler struct {
	Commerce *commerce.Client
}

func (h *ChargesHandler) Create(c *fiber.Ctx) error {
	raw := append([]byte(nil), c.Body()...)
	if !json.Valid(raw) {
		log.Security(c, "validation.fail", map[string]any{"field": "charge"})
		return jsonError(c, fiber.StatusBadRequest, "Invalid charge details")
	}
	charge, err := h.Commerce.CreateChargeRaw(c.UserContext(), raw)
	if err != nil {
		return chargeError(c, "charges", err)
	}
	log.Audit(c, "charges.create", map[string]any{"charge_id": charge.ID})
	return c.JSON(fiber.Map{"id": charge.ID})
}

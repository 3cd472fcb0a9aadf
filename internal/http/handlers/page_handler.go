package handlers

import (
	"context"

	"secondhand/internal/cart"
	"secondhand/internal/domain"
	"secondhand/internal/log"

	"github.com/gofiber/fiber/v2"
)

type ChargeLister interface {
	BySession(ctx context.Context, sid string) ([]domain.ChargeRecord, error)
}

// PageHandler serves the provider's return and cancel landing pages.
type PageHandler struct {
	Charges ChargeLister
	Carts   *cart.Registry
}

func (h *PageHandler) Complete(c *fiber.Ctx) error {
	sid := sessionID(c)
	data := fiber.Map{}
	recs, err := h.Charges.BySession(c.UserContext(), sid)
	if err != nil {
		log.Error(c, "checkout.complete.lookup", err, nil)
	} else if len(recs) > 0 {
		data["Charge"] = recs[0]
	}
	return render(c, "checkout_complete", data)
}

func (h *PageHandler) Cancel(c *fiber.Ctx) error {
	sid := sessionID(c)
	n := 0
	if store, ok := h.Carts.Peek(sid); ok {
		n = len(store.Items())
	}
	log.Info(c, "checkout.cancel", map[string]any{"items": n})
	return render(c, "checkout_cancel", fiber.Map{"Items": n})
}

func (h *PageHandler) NotFound(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).Render("notfound", fiber.Map{"Message": "Page not found"})
}

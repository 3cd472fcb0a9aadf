package handlers

import (
	"errors"

	"secondhand/internal/cart"
	"secondhand/internal/checkout"
	"secondhand/internal/log"
	"secondhand/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type CartHandler struct {
	Carts *cart.Registry
}

type cartView struct {
	Items  []cart.Line             `json:"items"`
	Counts map[cart.LineStatus]int `json:"counts"`
	Total  string                  `json:"total"`
}

func view(lines []cart.Line) cartView {
	if lines == nil {
		lines = []cart.Line{}
	}
	return cartView{Items: lines, Counts: cart.Counts(lines), Total: checkout.Total(lines, nil).StringFixed(2)}
}

func (h *CartHandler) View(c *fiber.Ctx) error {
	sid := sessionID(c)
	var lines []cart.Line
	if store, ok := h.Carts.Peek(sid); ok {
		lines = store.Items()
	}
	return c.JSON(view(lines))
}

type addBody struct {
	ProductID string `json:"product_id" form:"product_id"`
}

func (h *CartHandler) Add(c *fiber.Ctx) error {
	sid := sessionID(c)
	var body addBody
	if err := c.BodyParser(&body); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "Invalid body")
	}
	id, ok := validate.ID(body.ProductID)
	if !ok {
		log.Security(c, "validation.fail", map[string]any{"field": "product_id"})
		return jsonError(c, fiber.StatusBadRequest, "missing product_id")
	}
	store := h.Carts.Get(sid)
	if err := store.AddItem(c.UserContext(), id); err != nil {
		if errors.Is(err, cart.ErrProductNotFound) {
			log.Info(c, "cart.add.notfound", map[string]any{"product_id": id})
			return jsonError(c, fiber.StatusNotFound, "This item is no longer available")
		}
		return err
	}
	log.Info(c, "cart.add", map[string]any{"product_id": id})
	return c.JSON(view(store.Items()))
}

func (h *CartHandler) Remove(c *fiber.Ctx) error {
	store, ok := h.Carts.Peek(sessionID(c))
	if !ok {
		return c.JSON(view(nil))
	}
	store.RemoveItem(c.Params("id"))
	return c.JSON(view(store.Items()))
}

type updateBody struct {
	Quantity *int    `json:"quantity"`
	Status   *string `json:"status"`
}

// Update serves PATCH /api/cart/items/:id with a quantity, a status or both.
func (h *CartHandler) Update(c *fiber.Ctx) error {
	sid := sessionID(c)
	var body updateBody
	if err := c.BodyParser(&body); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "Invalid body")
	}
	if body.Quantity == nil && body.Status == nil {
		return jsonError(c, fiber.StatusBadRequest, "quantity or status required")
	}
	if body.Quantity != nil && *body.Quantity < 1 {
		log.Security(c, "validation.fail", map[string]any{"field": "quantity"})
		return jsonError(c, fiber.StatusBadRequest, cart.ErrInvalidQuantity.Error())
	}
	if body.Status != nil && !cart.LineStatus(*body.Status).Valid() {
		log.Security(c, "validation.fail", map[string]any{"field": "status"})
		return jsonError(c, fiber.StatusBadRequest, cart.ErrInvalidStatus.Error())
	}
	store, ok := h.Carts.Peek(sid)
	if !ok {
		return c.JSON(view(nil))
	}
	id := c.Params("id")
	if body.Quantity != nil {
		if err := store.UpdateQuantity(id, *body.Quantity); err != nil {
			return jsonError(c, fiber.StatusBadRequest, err.Error())
		}
	}
	if body.Status != nil {
		if err := store.UpdateStatus(id, cart.LineStatus(*body.Status)); err != nil {
			return jsonError(c, fiber.StatusBadRequest, err.Error())
		}
	}
	return c.JSON(view(store.Items()))
}

func (h *CartHandler) Clear(c *fiber.Ctx) error {
	sid := sessionID(c)
	if store, ok := h.Carts.Peek(sid); ok {
		store.Clear()
	}
	return c.JSON(view(nil))
}

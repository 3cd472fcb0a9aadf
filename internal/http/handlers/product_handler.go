package handlers

import (
	"secondhand/internal/log"
	"secondhand/internal/services"
	"secondhand/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type ProductHandler struct {
	Catalog *services.CatalogService
}

func (h *ProductHandler) Detail(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		log.Security(c, "validation.fail", map[string]any{"field": "product"})
		return jsonError(c, fiber.StatusNotFound, "This item is no longer available")
	}
	p, err := h.Catalog.GetProduct(c.UserContext(), id)
	if err != nil {
		return storeError(c, "product", err, map[string]any{"product_id": id})
	}
	return c.JSON(p)
}

// BySeller serves GET /api/sellers/:name/products.
func (h *ProductHandler) BySeller(c *fiber.Ctx) error {
	name, ok := validate.Name(c.Params("name"))
	if !ok {
		log.Security(c, "validation.fail", map[string]any{"field": "seller"})
		return jsonError(c, fiber.StatusBadRequest, "Invalid seller name")
	}
	products, err := h.Catalog.BySeller(c.UserContext(), name)
	if err != nil {
		return storeError(c, "seller", err, map[string]any{"seller": name})
	}
	return c.JSON(fiber.Map{"seller": name, "products": products, "count": len(products)})
}

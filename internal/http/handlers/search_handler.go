package handlers

import (
	"context"
	"errors"
	"strings"

	"secondhand/internal/domain"
	"secondhand/internal/log"
	"secondhand/internal/services"
	"secondhand/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type SearchHandler struct {
	Catalog *services.CatalogService
}

// List serves GET /api/products?q=&category=&status=.
func (h *SearchHandler) List(c *fiber.Ctx) error {
	f := services.Filter{}

	if rawQ := c.Query("q"); strings.TrimSpace(rawQ) != "" {
		q, ok := validate.Q(rawQ)
		if !ok {
			log.Security(c, "validation.fail", map[string]any{"field": "q", "value": rawQ})
			return jsonError(c, fiber.StatusBadRequest, "Enter a valid keyword (letters/numbers only)")
		}
		f.Q = q
	}

	if cat := strings.ToLower(strings.TrimSpace(c.Query("category"))); cat != "" && cat != "all" {
		if _, ok := domain.CategoryForSlug(cat); !ok {
			log.Security(c, "validation.fail", map[string]any{"field": "category"})
			return jsonError(c, fiber.StatusBadRequest, "Invalid category")
		}
		f.Category = cat
	}

	if raw := c.Query("status"); raw != "" {
		st, ok := validate.Status(raw)
		if !ok {
			log.Security(c, "validation.fail", map[string]any{"field": "status"})
			return jsonError(c, fiber.StatusBadRequest, "Invalid filter")
		}
		f.Status = st
	}

	products, err := h.Catalog.List(c.UserContext(), f)
	if errors.Is(err, context.DeadlineExceeded) {
		return storeError(c, "search", err, nil)
	}
	if err != nil {
		log.Error(c, "search.error", err, nil)
		return jsonError(c, fiber.StatusInternalServerError, "Could not load results. Please retry.")
	}
	return c.JSON(fiber.Map{"products": products, "count": len(products)})
}

package handlers

import (
	"errors"
	"strings"

	"secondhand/internal/log"
	"secondhand/internal/repos"
	"secondhand/internal/services"
	"secondhand/internal/validate"

	"github.com/gofiber/fiber/v2"
)

const maxImageBytes = 5 << 20

type ListingHandler struct {
	Listings *services.ListingService
}

// Create serves the multipart listing form. The image field is optional.
func (h *ListingHandler) Create(c *fiber.Ctx) error {
	var in services.ListingInput
	if err := c.BodyParser(&in); err != nil {
		log.Security(c, "validation.fail", map[string]any{"field": "form"})
		return jsonError(c, fiber.StatusBadRequest, "Invalid listing form")
	}

	var img *services.ImageUpload
	if fh, err := c.FormFile("image"); err == nil {
		ct := fh.Header.Get("Content-Type")
		if !strings.HasPrefix(ct, "image/") || fh.Size > maxImageBytes {
			log.Security(c, "listing.image.reject", map[string]any{"content_type": ct, "size": fh.Size})
			return jsonError(c, fiber.StatusBadRequest, "Image must be a picture under 5 MB")
		}
		f, err := fh.Open()
		if err != nil {
			return err
		}
		defer f.Close()
		img = &services.ImageUpload{Filename: fh.Filename, ContentType: ct, Body: f}
	}

	p, err := h.Listings.Create(c.UserContext(), in, img)
	var fe validate.FieldErrors
	if errors.As(err, &fe) {
		return validationError(c, fe)
	}
	if err != nil {
		log.Error(c, "listing.create.fail", err, nil)
		return err
	}
	log.Audit(c, "listing.create", map[string]any{"product_id": p.ID, "seller": p.Seller.Name})
	return c.Status(fiber.StatusCreated).JSON(p)
}

type statusBody struct {
	Status  string `json:"status"`
	Version *int64 `json:"version"`
}

// UpdateStatus serves PATCH /api/listings/:id/status. Without a version the
// write is unconditional.
func (h *ListingHandler) UpdateStatus(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return jsonError(c, fiber.StatusNotFound, "This item is no longer available")
	}
	var body statusBody
	if err := c.BodyParser(&body); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "Invalid body")
	}
	status, ok := validate.Status(body.Status)
	if !ok {
		log.Security(c, "validation.fail", map[string]any{"field": "status", "value": body.Status})
		return jsonError(c, fiber.StatusBadRequest, "Invalid status")
	}
	version := repos.AnyVersion
	if body.Version != nil {
		version = *body.Version
	}
	fields := map[string]any{"product_id": id, "status": status, "version": version}
	if err := h.Listings.UpdateStatus(c.UserContext(), id, status, version); err != nil {
		return storeError(c, "listing.status", err, fields)
	}
	log.Audit(c, "listing.status", fields)
	return c.JSON(fiber.Map{"id": id, "status": status})
}

func (h *ListingHandler) Copy(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return jsonError(c, fiber.StatusNotFound, "This item is no longer available")
	}
	newID, err := h.Listings.Copy(c.UserContext(), id)
	if err != nil {
		return storeError(c, "listing.copy", err, map[string]any{"product_id": id})
	}
	log.Audit(c, "listing.copy", map[string]any{"product_id": id, "new_id": newID})
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"id": newID})
}

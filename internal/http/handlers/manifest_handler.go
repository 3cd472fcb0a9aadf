package handlers

import (
	"secondhand/internal/config"

	"github.com/gofiber/fiber/v2"
)

type ManifestHandler struct {
	Cfg config.Config
}

// Manifest serves /.well-known/farcaster.json.
func (h *ManifestHandler) Manifest(c *fiber.Ctx) error {
	return c.JSON(BuildManifest(h.Cfg))
}

// BuildManifest assembles the mini-app manifest from branding config. Empty
// frame values are left out.
func BuildManifest(cfg config.Config) fiber.Map {
	base := cfg.PublicURL
	m := cfg.Manifest
	or := func(v, fallback string) string {
		if v != "" {
			return v
		}
		return fallback
	}

	frame := fiber.Map{}
	put := func(k string, v any) {
		switch t := v.(type) {
		case string:
			if t == "" {
				return
			}
		case []string:
			if len(t) == 0 {
				return
			}
		case bool:
			if !t {
				return
			}
		}
		frame[k] = v
	}
	put("version", "1")
	put("name", cfg.AppName)
	put("subtitle", cfg.AppSubtitle)
	put("description", cfg.AppDescription)
	put("homeUrl", base)
	put("iconUrl", or(cfg.AppIcon, base+"/icon.png"))
	put("splashImageUrl", or(cfg.AppSplash, base+"/splash.png"))
	put("splashBackgroundColor", m.SplashColor)
	put("webhookUrl", base+"/api/webhook")
	put("primaryCategory", m.PrimaryCategory)
	put("tags", []string{"secondhand", "marketplace", "children", "crypto", "sustainable"})
	put("heroImageUrl", or(m.HeroImage, base+"/hero.png"))
	put("tagline", m.Tagline)
	put("ogTitle", m.OGTitle)
	put("ogDescription", m.OGDescription)
	put("ogImageUrl", or(m.OGImage, base+"/hero.png"))
	put("screenshotUrls", []string{base + "/screenshot1.png", base + "/screenshot2.png", base + "/screenshot3.png"})
	put("noindex", cfg.Env == "development")

	addrs := m.AllowedAddresses
	if addrs == nil {
		addrs = []string{}
	}
	return fiber.Map{
		"accountAssociation": fiber.Map{
			"header":    m.Header,
			"payload":   m.Payload,
			"signature": m.Signature,
		},
		"baseBuilder": fiber.Map{"allowedAddresses": addrs},
		"frame":       frame,
	}
}

package handlers

import (
	"context"
	"embed"
	"errors"
	"io/fs"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	html "github.com/gofiber/template/html/v2"

	"secondhand/internal/config"
	"secondhand/internal/log"
)

//go:embed views/*.html
var views embed.FS

const (
	webhookPath = "/api/commerce-webhook"
	chargesPath = "/api/charges"
)

// NewEngine returns the html engine over the embedded views.
func NewEngine() *html.Engine {
	sub, err := fs.Sub(views, "views")
	if err != nil {
		panic(err)
	}
	return html.NewFileSystem(http.FS(sub), ".html")
}

func isAPI(c *fiber.Ctx) bool { return strings.HasPrefix(c.Path(), "/api/") }

// ErrorHandler logs and answers with a friendly message, never the error text.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	msg := "Something went wrong. Please try again."
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe) && fe.Code < 500:
		code = fe.Code
		msg = http.StatusText(code)
	case errors.Is(err, context.DeadlineExceeded):
		code = fiber.StatusGatewayTimeout
		msg = msgTimeout
	}
	log.Error(c, "server.error", err, map[string]any{"code": code})
	if isAPI(c) {
		return c.Status(code).JSON(fiber.Map{"error": msg})
	}
	// best-effort render
	if rerr := c.Status(code).Render("notfound", fiber.Map{"Message": msg}); rerr != nil {
		return c.Status(code).SendString(msg)
	}
	return nil
}

// NewApp builds the Fiber app with the middleware chain and every route.
func NewApp(cfg config.Config, deps *Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		Views:        NewEngine(),
		ErrorHandler: ErrorHandler,
		UnescapePath: true,
		BodyLimit:    8 << 20, // multipart listing images; JSON routes are tiny
	})

	// ---------- Middlewares ----------
	app.Use(requestid.New())
	// every store, ledger and storage call runs under the request deadline
	app.Use(func(c *fiber.Ctx) error {
		if cfg.HTTPTimeout <= 0 {
			return c.Next()
		}
		ctx, cancel := context.WithTimeout(c.UserContext(), cfg.HTTPTimeout)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	})
	app.Use(logger.New(logger.Config{
		Format: "${time} ${locals:requestid} ${status} ${method} ${path} ${latency}\n",
	}))
	app.Use(helmet.New())
	app.Use(limiter.New(limiter.Config{
		Max:        60,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			p := c.Path()
			return strings.HasPrefix(p, "/media/") || p == webhookPath
		},
		LimitReached: func(c *fiber.Ctx) error {
			log.Security(c, "rate.global.hit", nil)
			return jsonError(c, fiber.StatusTooManyRequests, "rate limit exceeded, retry soon")
		},
	}))
	app.Use(csrf.New(csrf.Config{
		KeyLookup:      "header:X-CSRF-Token",
		CookieName:     "csrf_",
		CookieSameSite: "Lax",
		ContextKey:     "csrf",
		CookieSecure:   cfg.Env == "production",
		Next: func(c *fiber.Ctx) bool {
			// server-to-server callers carry no browser cookie
			p := c.Path()
			return p == webhookPath || p == chargesPath
		},
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			log.Security(c, "csrf.fail", map[string]any{"header": c.Get("X-CSRF-Token") != ""})
			if isAPI(c) {
				return jsonError(c, fiber.StatusForbidden, "Security check failed. Please refresh and try again.")
			}
			return c.Status(fiber.StatusForbidden).Render("notfound", fiber.Map{"Message": "Security check failed. Please refresh and try again."})
		},
	}))
	app.Use(func(c *fiber.Ctx) error {
		if tok, ok := c.Locals("csrf").(string); ok {
			c.Locals("CSRFToken", tok)
		}
		return c.Next()
	})

	// ---------- Media ----------
	mediaDir := cfg.MediaDir
	if !filepath.IsAbs(mediaDir) {
		if abs, err := filepath.Abs(mediaDir); err == nil {
			mediaDir = abs
		}
	}
	// Guarded media to avoid traversal
	app.Get("/media/*", func(c *fiber.Ctx) error {
		path := c.Params("*")
		rawLower := strings.ToLower(path)
		// Block encoded traversal attempts as well as raw .. or null bytes
		if strings.Contains(rawLower, "..") || strings.Contains(rawLower, "%2e") || strings.Contains(rawLower, "\x00") {
			log.Security(c, "media.traversal.block", map[string]any{"path": path})
			return c.SendStatus(fiber.StatusNotFound)
		}
		clean := filepath.Clean(path)
		if clean == "." || strings.Contains(clean, "..") || filepath.IsAbs(clean) {
			log.Security(c, "media.traversal.block", map[string]any{"path": path})
			return c.SendStatus(fiber.StatusNotFound)
		}
		return c.SendFile(filepath.Join(mediaDir, clean), true)
	})

	// ---------- API ----------
	api := app.Group("/api")
	api.Get("/products", limiter.New(limiter.Config{Max: 30, Expiration: time.Minute}), deps.SearchHandler.List)
	api.Get("/products/:id", deps.ProductHandler.Detail)
	api.Get("/sellers/:name/products", deps.ProductHandler.BySeller)

	api.Post("/listings", deps.ListingHandler.Create)
	api.Patch("/listings/:id/status", deps.ListingHandler.UpdateStatus)
	api.Post("/listings/:id/copy", deps.ListingHandler.Copy)

	api.Get("/cart", deps.CartHandler.View)
	api.Delete("/cart", deps.CartHandler.Clear)
	api.Post("/cart/items", deps.CartHandler.Add)
	api.Delete("/cart/items/:id", deps.CartHandler.Remove)
	api.Patch("/cart/items/:id", deps.CartHandler.Update)

	chargeLimiter := limiter.New(limiter.Config{
		Max:        10,
		Expiration: time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP() + "|charge"
		},
		LimitReached: func(c *fiber.Ctx) error {
			log.Security(c, "rate.charge.hit", nil)
			return jsonError(c, fiber.StatusTooManyRequests, "rate limit exceeded, retry soon")
		},
	})
	api.Post("/checkout", chargeLimiter, deps.CheckoutHandler.Checkout)
	api.Post("/charges", chargeLimiter, deps.ChargesHandler.Create)
	api.Post("/commerce-webhook", deps.WebhookHandler.Receive)

	// ---------- Pages ----------
	app.Get("/checkout/complete", deps.PageHandler.Complete)
	app.Get("/checkout/cancel", deps.PageHandler.Cancel)
	app.Get("/.well-known/farcaster.json", deps.ManifestHandler.Manifest)

	// Health & 404
	app.Get("/healthz", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"ok": true}) })
	app.Use(func(c *fiber.Ctx) error {
		if isAPI(c) {
			return jsonError(c, fiber.StatusNotFound, "Not found")
		}
		return deps.PageHandler.NotFound(c)
	})
	return app
}

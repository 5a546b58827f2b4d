package handlers

import (
	"path/filepath"
	"strings"

	"megastore/internal/config"
	applog "megastore/internal/log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

const maxBodySize = 8 << 20 // avatars and product images

// NewApp builds the fiber app with the shared middleware and every route.
// Extra middleware, such as the access logger, runs right after the request
// id is assigned.
func NewApp(d *Deps, cfg config.Config, lim Limits, middleware ...fiber.Handler) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: ErrorHandler,
		BodyLimit:    maxBodySize,
	})

	app.Use(requestid.New())
	for _, m := range middleware {
		app.Use(m)
	}
	app.Use(helmet.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigin,
		AllowCredentials: cfg.CORSOrigin != "" && cfg.CORSOrigin != "*",
	}))

	if cfg.BlobBackend == config.BlobLocal && cfg.MediaDir != "" {
		mediaDir := cfg.MediaDir
		if abs, err := filepath.Abs(mediaDir); err == nil {
			mediaDir = abs
		}
		app.Get("/media/*", media(mediaDir))
	}

	Routes(app.Group("/api/v1"), d, lim)

	app.Get("/healthz", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"ok": true}) })
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"success": false, "message": "Route not found"})
	})
	return app
}

// media serves uploaded blobs from dir and refuses traversal attempts.
func media(dir string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		path := c.Params("*")
		rawLower := strings.ToLower(path)
		if strings.Contains(rawLower, "..") || strings.Contains(rawLower, "%2e") || strings.Contains(rawLower, "\x00") {
			applog.Security(c, "media.traversal.block", map[string]any{"path": path})
			return c.SendStatus(fiber.StatusNotFound)
		}
		clean := filepath.Clean(path)
		if clean == "." || strings.Contains(clean, "..") || filepath.IsAbs(clean) {
			applog.Security(c, "media.traversal.block", map[string]any{"path": path})
			return c.SendStatus(fiber.StatusNotFound)
		}
		return c.SendFile(filepath.Join(dir, clean), true)
	}
}

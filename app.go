package main

import (
	"time"

	"shoplab/internal/config"
	"shoplab/internal/handlers"
	"shoplab/internal/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"go.uber.org/zap"
)

// NewApp builds the Fiber application with its middleware and every route.
func NewApp(cfg *config.Config, svc handlers.Services, log *zap.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		ErrorHandler:          handlers.ErrorHandler(log, cfg.IsDevelopment()),
		DisableStartupMessage: true,
		BodyLimit:             8 * 1024 * 1024, // product images
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(logger.FiberMiddleware(log))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	apiV1 := app.Group("/api/v1")
	handlers.RegisterRoutes(apiV1, svc, cfg.Cookie)

	return app
}

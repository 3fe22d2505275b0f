package api

import (
	"expense-bot/docs"
	"expense-bot/internal/api/handlers"
	"expense-bot/pkg/auth"
	"expense-bot/pkg/config"
	"expense-bot/pkg/metrics"
	"expense-bot/pkg/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
	"go.uber.org/zap"
)

type Handlers struct {
	Webhook *handlers.WebhookHandler
	Expense *handlers.ExpenseHandler
}

func SetupRouter(
	h Handlers,
	serverCfg config.ServerConfig,
	jwtManager *auth.JWTManager,
	m *metrics.Metrics,
	appLogger *zap.Logger,
) *fiber.App {
	app := fiber.New(fiber.Config{
		ReadTimeout:  serverCfg.ReadTimeout,
		WriteTimeout: serverCfg.WriteTimeout,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			if code == fiber.StatusInternalServerError {
				appLogger.Error("Request failed", zap.String("path", c.Path()), zap.Error(err))
				return c.Status(code).JSON(fiber.Map{"error": "Internal server error"})
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	// Middleware
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))
	app.Use(logger.New())

	_ = docs.SwaggerInfo
	app.Get("/swagger/*", swagger.HandlerDefault)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/metrics", adaptor.HTTPHandler(m.Handler()))

	// Transport webhook (public, answered with empty TwiML)
	app.Post("/webhook", h.Webhook.Receive)

	// Protected routes
	protected := app.Group("/api/v1", middleware.AuthMiddleware(jwtManager, appLogger))
	protected.Get("/expenses", h.Expense.ListExpenses)
	protected.Post("/query", h.Expense.Query)

	return app
}

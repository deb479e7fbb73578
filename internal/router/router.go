package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/insight-go-api/internal/config"
	"github.com/noah-isme/insight-go-api/internal/handler"
	"github.com/noah-isme/insight-go-api/internal/middleware"
	"github.com/noah-isme/insight-go-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	ReportHandler      *handler.ReportHandler
	ContextHandler     *handler.ContextHandler
	AnalysisHandler    *handler.AnalysisHandler
	PredictionHandler  *handler.PredictionHandler
	StrategyHandler    *handler.StrategyHandler
	AchievementHandler *handler.AchievementHandler
	SeedHandler        *handler.SeedHandler
	JWTMiddleware      fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	// Common v1 group for health & headers
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))

	if deps.SeedHandler != nil {
		deps.SeedHandler.Register(api.Group("/seed"))
	}

	app.Get("/metrics", observability.MetricsHandler())

	// Use provided JWT middleware, or a no-op if nil
	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	insight := app.Group("/api/v2/insight", jwtMiddleware)

	// Draft generation is the only route that spends model tokens.
	insight.Use("/analysis/draft", middleware.RateLimit("analysis_draft", 6, time.Minute))

	if deps.ReportHandler != nil {
		deps.ReportHandler.Register(insight)
	}
	if deps.ContextHandler != nil {
		deps.ContextHandler.Register(insight)
	}
	if deps.AnalysisHandler != nil {
		deps.AnalysisHandler.Register(insight)
	}
	if deps.PredictionHandler != nil {
		deps.PredictionHandler.Register(insight)
	}
	if deps.StrategyHandler != nil {
		deps.StrategyHandler.Register(insight)
	}
	if deps.AchievementHandler != nil {
		deps.AchievementHandler.Register(insight)
	}
}

package http

import (
	nethttp "net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/websocket/v2"
)

// SetupRoutes configures all HTTP routes. metrics may be nil.
func SetupRoutes(app *fiber.App, deps Deps, metrics nethttp.Handler) *Handler {
	handler := NewHandler(deps)

	// Health check
	app.Get("/health", handler.HealthCheck)

	if metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(metrics))
	}

	// API v1 routes
	api := app.Group("/api/v1")
	{
		// Plantation endpoints
		api.Get("/plots", handler.GetPlots)
		api.Post("/plots/:id/readings", handler.PostReading)
		api.Get("/kpis", handler.GetKPIs)

		// Robot and forward sensor
		api.Get("/robot", handler.GetRobot)
		api.Put("/robot", handler.PutRobot)
		api.Get("/scan", handler.GetScan)
		api.Post("/scan", handler.PostScan)
		api.Get("/palette", handler.GetPalette)

		// History
		api.Get("/detections/history", handler.GetDetectionHistory)
		api.Get("/readings/history", handler.GetReadingHistory)
	}

	// WebSocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/feed", websocket.New(handler.Feed))

	return handler
}

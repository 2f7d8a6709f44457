package routes

import (
	"os"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"mock-exchange/src/handlers"
	"mock-exchange/src/middleware"
)

func SetupRoutes(app *fiber.App, exchangeHandler *handlers.ExchangeHandler) {
	rateLimitDisabled := os.Getenv("RATE_LIMIT_DISABLED") == "1"

	maxRequests := 100
	if envMax := os.Getenv("RATE_LIMIT_MAX"); envMax != "" {
		if parsed, err := strconv.Atoi(envMax); err == nil && parsed > 0 {
			maxRequests = parsed
		}
	}

	windowDuration := time.Second
	if envWindow := os.Getenv("RATE_LIMIT_WINDOW"); envWindow != "" {
		if parsed, err := time.ParseDuration(envWindow); err == nil && parsed > 0 {
			windowDuration = parsed
		}
	}

	serviceAvailability := middleware.DefaultServiceAvailability()
	app.Use(serviceAvailability.Middleware())
	app.Use(middleware.RequestLogger())

	api := app.Group("/api/v1")

	if !rateLimitDisabled {
		rateLimiter := middleware.NewRateLimiter(maxRequests, windowDuration)
		api.Use(rateLimiter.Middleware())
	}

	api.Post("/accounts", exchangeHandler.AcceptAccount)
	api.Get("/accounts/:key/balance", exchangeHandler.GetBalance)
	api.Post("/orders", exchangeHandler.CreateOrder)
	api.Delete("/orders/:id", exchangeHandler.CancelOrder)
	api.Get("/orders/:id", exchangeHandler.GetOrderStatus)
	api.Get("/strategies", exchangeHandler.ListStrategies)

	app.Get("/health", exchangeHandler.HealthCheck)
	app.Get("/metrics", exchangeHandler.Metrics)
}

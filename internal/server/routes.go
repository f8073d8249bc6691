package server

import (
	"github.com/labstack/echo/v4"

	"example.com/ai-tour-quote/backend/internal/handlers"
)

func registerRoutes(
	e *echo.Echo,
	healthHandler *handlers.HealthHandler,
	authHandler *handlers.AuthHandler,
	priceHandler *handlers.PriceHandler,
	itineraryHandler *handlers.ItineraryHandler,
	quoteHandler *handlers.QuoteHandler,
	notificationHandler *handlers.NotificationHandler,
	adminHandler *handlers.AdminHandler,
	authMiddleware echo.MiddlewareFunc,
	adminMiddleware echo.MiddlewareFunc,
	authRateLimiter echo.MiddlewareFunc,
	aiRateLimiter echo.MiddlewareFunc,
) {
	e.GET("/health", healthHandler.Health)

	api := e.Group("/api/v1")
	authGroup := api.Group("/auth", authRateLimiter)

	authGroup.POST("/register", authHandler.Register)
	authGroup.POST("/login", authHandler.Login)
	authGroup.GET("/me", authHandler.Me, authMiddleware)

	prices := api.Group("/prices", authMiddleware)
	prices.GET("", priceHandler.Get)
	prices.GET("/lookup", priceHandler.Lookup)
	prices.POST("/refresh", priceHandler.Refresh)
	prices.PUT("", priceHandler.Replace, adminMiddleware)

	itineraries := api.Group("/itineraries", authMiddleware)
	itineraries.POST("/parse", itineraryHandler.Parse)
	itineraries.POST("/extract", itineraryHandler.Extract, aiRateLimiter)

	quotes := api.Group("/quotes", authMiddleware)
	quotes.POST("/preview", quoteHandler.Preview)
	quotes.POST("", quoteHandler.Create)
	quotes.GET("", quoteHandler.List)
	quotes.GET("/:id", quoteHandler.Get)
	quotes.GET("/:id/export/json", quoteHandler.ExportJSON)
	quotes.GET("/:id/export/csv", quoteHandler.ExportCSV)
	quotes.DELETE("/:id", quoteHandler.Delete)

	notifications := api.Group("/notifications", authMiddleware)
	notifications.GET("/stream", notificationHandler.Stream)

	admin := api.Group("/admin", authMiddleware, adminMiddleware)
	admin.GET("/users", adminHandler.ListUsers)
	admin.GET("/extractions", adminHandler.ListExtractions)
	admin.GET("/usage", adminHandler.Usage)
}

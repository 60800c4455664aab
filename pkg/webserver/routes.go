package webserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	// Health check endpoint (no auth required)
	s.router.GET("/health", s.healthCheck)

	// API v1 routes
	v1 := s.router.Group("/api/v1")
	{
		// Public routes (no authentication required)
		auth := v1.Group("/auth")
		{
			auth.POST("/token", s.issueToken)
		}

		// Connection type metadata for configuration tooling
		v1.GET("/connection-types", s.getConnectionTypes)

		// Protected routes (JWT authentication when an admin key is set)
		protected := v1.Group("")
		protected.Use(s.authMiddleware())
		{
			// Bot management
			bots := protected.Group("/bots")
			{
				bots.GET("", s.getBots)
				bots.POST("", s.createBot)
				bots.GET("/:id", s.getBot)
				bots.PUT("/:id", s.updateBot)
				bots.DELETE("/:id", s.deleteBot)
				bots.PUT("/:id/status", s.updateBotStatus)
				bots.POST("/:id/test", s.testBotConnection)
				bots.POST("/:id/run", s.runBot)
				bots.POST("/:id/send", s.sendBotMessage)
				bots.POST("/:id/message", s.routeBotMessage)
				bots.POST("/:id/poll", s.pollBotMessages)
				bots.GET("/:id/connection", s.getBotConnection)

				// Run accounting
				bots.POST("/:id/runs", s.recordBotRun)
				bots.GET("/:id/runs", s.getBotRuns)
				bots.GET("/:id/stats", s.getBotStats)
			}

			// Service directory
			services := protected.Group("/services")
			{
				services.GET("", s.getServices)
				services.POST("", s.registerService)
				services.POST("/:id/ping", s.pingService)
				services.DELETE("/:id", s.deleteService)
			}

			// Dashboard statistics
			protected.GET("/dashboard", s.getDashboardStats)
		}
	}

	s.router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Route not found"})
	})
}

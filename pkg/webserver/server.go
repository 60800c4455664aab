package webserver

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/hamedafzali/bot-manager/pkg/config"
	"github.com/hamedafzali/bot-manager/pkg/db"
	"github.com/hamedafzali/bot-manager/pkg/log"
	"github.com/hamedafzali/bot-manager/pkg/registry"
	"github.com/hamedafzali/bot-manager/pkg/utils"
)

// Server represents the HTTP server
type Server struct {
	config     *config.Config
	db         *db.DB
	registry   *registry.Manager
	logger     *log.Logger
	router     *gin.Engine
	httpServer *http.Server
	jwtManager *utils.JWTManager
	validator  *utils.Validator
}

// New creates a new HTTP server instance
func New(cfg *config.Config, database *db.DB, reg *registry.Manager, logger *log.Logger) (*Server, error) {
	jwtManager := utils.NewJWTManager(cfg.Security.JWTSecret, cfg.Security.JWTExpirationHours)
	validator := utils.NewValidator()

	// Set Gin mode
	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	server := &Server{
		config:     cfg,
		db:         database,
		registry:   reg,
		logger:     logger,
		router:     router,
		jwtManager: jwtManager,
		validator:  validator,
	}

	server.setupMiddleware()
	server.setupRoutes()

	server.httpServer = &http.Server{
		Addr:         cfg.Server.GetServerAddr(),
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	return server, nil
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware() {
	// Recovery middleware
	s.router.Use(gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		s.logger.WithFields(log.Fields{"panic": recovered}).Error("Panic recovered")
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse("Internal server error"))
		c.Abort()
	}))

	// Logging middleware
	s.router.Use(s.loggingMiddleware())

	// CORS middleware
	s.router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000", "http://localhost:5173"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Rate limiting middleware
	if s.config.Security.RateLimitEnabled {
		s.router.Use(s.rateLimitMiddleware())
	}

	// Security headers middleware
	s.router.Use(s.securityHeadersMiddleware())
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		latency := time.Since(start)

		s.logger.LogRequest(
			c.Request.Method,
			path,
			c.Request.UserAgent(),
			c.ClientIP(),
			c.Writer.Status(),
			latency.Milliseconds(),
		)
	}
}

// rateLimitMiddleware implements rate limiting
func (s *Server) rateLimitMiddleware() gin.HandlerFunc {
	limiter := rate.NewLimiter(
		rate.Limit(s.config.Security.RateLimitPerMinute)/60, // per second
		s.config.Security.RateLimitBurstSize,
	)

	return func(c *gin.Context) {
		if !limiter.Allow() {
			s.logger.LogSecurity("rate_limit_exceeded", c.ClientIP(), map[string]interface{}{
				"path":   c.Request.URL.Path,
				"method": c.Request.Method,
			})
			c.JSON(http.StatusTooManyRequests, utils.NewErrorResponse("Rate limit exceeded"))
			c.Abort()
			return
		}
		c.Next()
	}
}

// securityHeadersMiddleware adds security headers
func (s *Server) securityHeadersMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-XSS-Protection", "1; mode=block")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Header("Content-Security-Policy", "default-src 'self'")
		c.Next()
	}
}

// authMiddleware validates JWT tokens. Auth is only enforced when an
// admin API key is configured; otherwise the instance runs open, which
// suits local single-operator deployments.
func (s *Server) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.config.Security.AdminAPIKey == "" {
			c.Next()
			return
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, utils.NewErrorResponse("Authorization header required"))
			c.Abort()
			return
		}

		tokenString := ""
		if len(authHeader) > 7 && authHeader[:7] == "Bearer " {
			tokenString = authHeader[7:]
		} else {
			c.JSON(http.StatusUnauthorized, utils.NewErrorResponse("Invalid authorization header format"))
			c.Abort()
			return
		}

		claims, err := s.jwtManager.ValidateToken(tokenString)
		if err != nil {
			s.logger.LogSecurity("invalid_token", c.ClientIP(), map[string]interface{}{
				"error": err.Error(),
			})
			c.JSON(http.StatusUnauthorized, utils.NewErrorResponse("Invalid token"))
			c.Abort()
			return
		}

		c.Set("operator", claims.Name)
		c.Next()
	}
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Info(fmt.Sprintf("Starting server on %s", s.config.Server.GetServerAddr()))

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping server...")

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	s.logger.Info("Server stopped")
	return nil
}

// Health check endpoint
func (s *Server) healthCheck(c *gin.Context) {
	if err := s.db.HealthCheck(); err != nil {
		c.JSON(http.StatusServiceUnavailable, utils.NewErrorResponse("Database unavailable"))
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse(map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"version":   "1.0.0",
	}, "Service is healthy"))
}

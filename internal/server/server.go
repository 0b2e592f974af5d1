// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"exon/internal/cache"
	"exon/internal/config"
	"exon/internal/database"
	"exon/internal/ledger"
	"exon/internal/middleware"
	"exon/internal/models"
	"exon/internal/notifications"
	"exon/internal/repository"
	"exon/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

var (
	promOnce sync.Once
	prom     *fiberprometheus.FiberPrometheus
)

// promMiddleware returns the process-wide Prometheus middleware. Collectors
// register on the default registry, so this must only happen once even when
// several Server instances exist (as in tests).
func promMiddleware() *fiberprometheus.FiberPrometheus {
	promOnce.Do(func() {
		prom = fiberprometheus.New("exon-api")
	})
	return prom
}

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc

	userRepo         repository.UserRepository
	interactionRepo  repository.InteractionRepository
	messageRepo      repository.MessageRepository
	subscriptionRepo repository.SubscriptionRepository

	ledger   *ledger.Ledger
	notifier *notifications.Notifier
	chatHub  *notifications.ChatHub

	authService         *service.AuthService
	profileService      *service.ProfileService
	matchService        *service.MatchService
	chatService         *service.ChatService
	imageService        *service.ImageService
	subscriptionService *service.SubscriptionService
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)
	return NewServerWithDeps(cfg, db, cache.GetClient())
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Use this in tests or when a bootstrap layer establishes DB/Redis and
// optionally performs explicit seeding.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	server := &Server{
		config:           cfg,
		db:               db,
		redis:            redisClient,
		promMiddleware:   promMiddleware(),
		userRepo:         repository.NewUserRepository(db),
		interactionRepo:  repository.NewInteractionRepository(db),
		messageRepo:      repository.NewMessageRepository(db),
		subscriptionRepo: repository.NewSubscriptionRepository(db),
		ledger:           ledger.New(db),
	}

	if redisClient != nil {
		server.notifier = notifications.NewNotifier(redisClient)
		server.chatHub = notifications.NewChatHub()
	}

	server.authService = service.NewAuthService(server.userRepo, server.ledger, cfg)
	server.profileService = service.NewProfileService(server.userRepo, cfg)
	server.matchService = service.NewMatchService(server.userRepo, server.interactionRepo, server.notifier)
	server.chatService = service.NewChatService(server.messageRepo, server.userRepo, server.ledger, server.notifier)
	server.imageService = service.NewImageService(cfg)
	server.subscriptionService = service.NewSubscriptionService(server.subscriptionRepo)

	return server, nil
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	// Context Middleware to propagate Request ID and User ID
	app.Use(middleware.ContextMiddleware())

	// Prometheus Metrics
	if s.promMiddleware != nil {
		app.Use(s.promMiddleware.Middleware)
	}

	// Security headers
	app.Use(helmet.New())

	// Structured Logging middleware (after requestid and context middleware)
	app.Use(middleware.StructuredLogger())

	// CORS middleware should run before middlewares that can short-circuit
	// (e.g. limiter) so browser clients still receive CORS headers on error
	// responses.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173"
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))

	// Global rate limiting (100 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		// Never rate-limit preflight requests; they should be handled by CORS.
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	api := app.Group("/api")

	// Health checks
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)

	// Metrics endpoint for Prometheus
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}
	api.Get("/metrics/dashboard", monitor.New(monitor.Config{
		Title: "Exon Backend Metrics Dashboard",
	}))

	// Processed profile images
	app.Static("/media/i", s.imageService.UploadDir())

	// Public routes
	api.Post("/subscribe", middleware.RateLimit(
		s.redis, 5, 10*time.Minute, "subscribe"), s.Subscribe)
	api.Post("/auth/connect", middleware.RateLimit(
		s.redis, 10, 5*time.Minute, "connect"), s.Connect)

	// Protected routes
	protected := api.Group("", s.AuthRequired())

	// WebSocket ticket issuance
	protected.Post("/ws/ticket", s.IssueWSTicket)

	// User routes
	users := protected.Group("/users")
	users.Get("/me", s.GetMyProfile)
	users.Put("/me", s.UpdateMyProfile)
	users.Post("/me/image", middleware.RateLimit(
		s.redis, 10, 10*time.Minute, "image_upload"), s.UploadProfileImage)
	users.Get("/discover", s.Discover)
	users.Get("/matches", s.GetMatches)
	// Specific /:id/:resource routes BEFORE generic /:id route
	users.Post("/:id/like", middleware.RateLimit(
		s.redis, 60, time.Minute, "swipe"), s.LikeUser)
	users.Post("/:id/dislike", middleware.RateLimit(
		s.redis, 60, time.Minute, "swipe"), s.DislikeUser)
	users.Get("/:id", s.GetUserProfile)

	// Token routes
	tokens := protected.Group("/tokens")
	tokens.Get("/", s.GetTokens)
	tokens.Post("/daily", middleware.RateLimit(
		s.redis, 10, time.Minute, "claim_daily"), s.ClaimDaily)
	tokens.Get("/social", s.GetSocialPlatforms)
	tokens.Post("/social", middleware.RateLimit(
		s.redis, 10, time.Minute, "claim_social"), s.ClaimSocial)

	// Chat routes
	messages := protected.Group("/messages")
	messages.Get("/:userId", s.GetMessages)
	messages.Post("/:userId", middleware.RateLimit(
		s.redis, 15, time.Minute, "send_chat"), s.SendMessage)

	// Websocket endpoint - protected by AuthRequired (ticket-based)
	ws := api.Group("/ws", s.AuthRequired())
	ws.Get("/chat", s.WebSocketChatHandler())
}

// AuthRequired returns the authentication middleware.
func (s *Server) AuthRequired() fiber.Handler {
	return middleware.AuthRequired(s.config.JWTSecret, s.redis)
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "healthy"
	if s.redis != nil {
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	} else {
		// Realtime delivery and WS tickets need Redis, so readiness degrades
		// without it.
		redisStatus = "unavailable"
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus == "unhealthy" || redisStatus != "healthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// Start starts the server
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.shutdownCtx = ctx
	s.shutdownFn = cancel

	app := fiber.New(fiber.Config{
		AppName: "Exon API",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			log.Printf("Error: %v", err)
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
		},
	})
	s.app = app

	s.SetupMiddleware(app)
	s.SetupRoutes(app)

	if s.notifier != nil && s.chatHub != nil {
		go func() {
			if err := s.chatHub.StartWiring(s.shutdownCtx, s.notifier); err != nil {
				log.Printf("failed to start %s wiring: %v", s.chatHub.Name(), err)
			}
		}()
	}

	log.Printf("Server starting on port %s...", s.config.Port)
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	// Cancel the server-scoped context to stop all wiring goroutines
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			log.Printf("error shutting down HTTP server: %v", err)
		}
	}

	if s.chatHub != nil {
		if err := s.chatHub.Shutdown(ctx); err != nil {
			log.Printf("error shutting down %s: %v", s.chatHub.Name(), err)
		}
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			log.Printf("error closing sql DB: %v", cerr)
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			log.Printf("error closing redis: %v", rerr)
		}
	}

	log.Println("Server shutdown complete")
	return nil
}

// Package server contains the HTTP handlers and route wiring of the
// classifieds API.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"secondmain/internal/auth"
	"secondmain/internal/cache"
	"secondmain/internal/config"
	"secondmain/internal/database"
	"secondmain/internal/middleware"
	"secondmain/internal/models"
	"secondmain/internal/repository"
	"secondmain/internal/service"
	"secondmain/internal/storage"
)

const (
	serviceName = "secondmain-api"
	apiVersion  = "1.0.0"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	logger         *slog.Logger
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	limiter        *middleware.RateLimiter
	store          storage.Store
	authService    *service.AuthService
	listingService *service.ListingService
}

// NewServer creates a new server instance, connecting the database, Redis
// and the upload store described by cfg.
func NewServer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Server, error) {
	db, err := database.Connect(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	// Redis is optional; without it the per-route limits fall back to their
	// fail policy.
	redisClient := cache.NewRedisClient(ctx, cfg.RedisURL, logger)

	store, err := storage.NewStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("storage init failed: %w", err)
	}

	return NewServerWithDeps(cfg, db, redisClient, store, logger)
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Use this in tests or when a bootstrap layer establishes DB/Redis itself.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, store storage.Store, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}

	tokens, err := auth.NewTokenService(cfg.JWTSecret, cfg.JWTIssuer, cfg.TokenTTL())
	if err != nil {
		return nil, err
	}

	userRepo := repository.NewUserRepository(db, cfg.BcryptCost)
	listingRepo := repository.NewListingRepository(db)

	var rdb redis.Cmdable
	if redisClient != nil {
		rdb = redisClient
	}

	s := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		logger:         logger,
		promMiddleware: middleware.InitMetrics(serviceName),
		limiter:        middleware.NewRateLimiter(rdb, cfg.Env, logger),
		store:          store,
	}
	// Verification codes are only echoed back outside production, where no
	// SMS gateway exists.
	s.authService = service.NewAuthService(userRepo, tokens, logger, !cfg.IsProduction())
	s.listingService = service.NewListingService(listingRepo, store, logger,
		cfg.UploadMaxFiles, cfg.UploadMaxSizeBytes())

	return s, nil
}

// App returns the Fiber application with middleware and routes installed.
func (s *Server) App() *fiber.App {
	if s.app == nil {
		s.app = s.NewApp()
	}
	return s.app
}

// NewApp builds a fresh Fiber application wired to this server.
func (s *Server) NewApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName: "SecondMain API",
		// Room for the maximum number of photos plus the form fields.
		BodyLimit:    s.config.UploadMaxFiles*int(s.config.UploadMaxSizeBytes()) + 1024*1024,
		ErrorHandler: s.errorHandler,
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

func (s *Server) errorHandler(c *fiber.Ctx, err error) error {
	status := models.StatusOf(err)
	if status >= fiber.StatusInternalServerError {
		s.logger.ErrorContext(c.UserContext(), "unhandled error",
			slog.String("path", c.Path()),
			slog.String("error", err.Error()),
		)
	}
	return models.RespondWithError(c, status, err)
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	app.Use(middleware.TracingMiddleware())

	// Context Middleware to propagate Request ID and Trace ID
	app.Use(middleware.ContextMiddleware())

	// Prometheus Metrics
	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	// Uploaded photos are embedded by front-ends served from other origins.
	app.Use(helmet.New(helmet.Config{
		CrossOriginResourcePolicy: "cross-origin",
	}))

	app.Use(middleware.StructuredLogger(s.logger))

	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "*"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: origins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		MaxAge:       86400, // 24 hours
	}))

	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions || !s.limiterEnabled()
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(models.ErrorResponse{
				Message: "Too many requests, please try again later",
				Code:    "RATE_LIMITED",
			})
		},
	}))
}

// limiterEnabled reports whether the in-memory global limiter applies.
// Test runs issue many requests from a single address.
func (s *Server) limiterEnabled() bool {
	return s.config.Env != "test"
}

func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/", s.Root)
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	if local, ok := s.store.(*storage.LocalStore); ok {
		app.Static(strings.TrimSuffix(storage.UploadsPath, "/"), local.Dir(), fiber.Static{
			MaxAge: 3600,
		})
	}

	api := app.Group("/api")
	gate := middleware.Gate(s.authService)

	authRoutes := api.Group("/auth")
	authRoutes.Post("/register", s.limiter.Limit("register", 5, 10*time.Minute, middleware.FailOpen), s.Register)
	authRoutes.Post("/login", s.limiter.Limit("login", 10, 5*time.Minute, middleware.FailOpen), s.Login)
	authRoutes.Get("/me", gate, s.Me)
	authRoutes.Put("/profile", gate, s.UpdateProfile)
	authRoutes.Put("/password", gate, s.ChangePassword)
	authRoutes.Post("/verify-phone", gate, s.VerifyPhone)
	authRoutes.Post("/resend-otp", gate,
		s.limiter.Limit("resend_otp", 3, 10*time.Minute, middleware.FailClosed), s.ResendOTP)

	listings := api.Group("/annonces")
	listings.Get("/", s.SearchListings)
	// Literal segments come before /:id so they are not parsed as IDs.
	listings.Get("/my/annonces", gate, s.GetMyListings)
	listings.Get("/user/:userId", s.GetUserListings)
	listings.Get("/:id", s.GetListing)
	listings.Post("/", gate,
		s.limiter.Limit("create_listing", 20, time.Hour, middleware.FailOpen), s.CreateListing)
	listings.Put("/:id", gate, s.UpdateListing)
	listings.Delete("/:id", gate, s.DeleteListing)
	listings.Patch("/:id/featured", gate, middleware.RequireRole(models.RoleAdmin), s.SetListingFeatured)

	admin := api.Group("/admin", gate, middleware.RequireRole(models.RoleAdmin))
	admin.Put("/users/:id/active", s.SetUserActive)

	app.Use(s.NotFound)
}

// Root handles GET /
func (s *Server) Root(c *fiber.Ctx) error {
	return respondOK(c, fiber.StatusOK, "SecondMain API", fiber.Map{
		"name":    serviceName,
		"version": apiVersion,
		"env":     s.config.Env,
	})
}

// NotFound answers every unmatched route.
func (s *Server) NotFound(c *fiber.Ctx) error {
	return models.RespondWithError(c, fiber.StatusNotFound,
		&models.AppError{Code: models.CodeNotFound, Message: "Route not found"})
}

func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck reports database and Redis health. Redis only counts when
// it was configured and connected at startup.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "disabled"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := cache.Ping(ctx, s.redis); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus == "unhealthy" || redisStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"version": apiVersion,
		"status":  overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// Start builds the app and listens on the configured port until Shutdown.
func (s *Server) Start() error {
	app := s.App()
	s.logger.Info("server starting", slog.String("port", s.config.Port), slog.String("env", s.config.Env))
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			s.logger.Error("error shutting down HTTP server", slog.String("error", err.Error()))
		}
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			s.logger.Error("error closing sql DB", slog.String("error", cerr.Error()))
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			s.logger.Error("error closing redis", slog.String("error", rerr.Error()))
		}
	}

	s.logger.Info("server shutdown complete")
	return nil
}

// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"context"
	"log/slog"
	"time"

	_ "postshare/docs" // swagger docs
	"postshare/internal/config"
	"postshare/internal/featureflags"
	"postshare/internal/middleware"
	"postshare/internal/models"
	"postshare/internal/notifications"
	"postshare/internal/repository"
	"postshare/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const (
	handlerTimeout      = 5 * time.Second
	relayRewireInterval = 5 * time.Second
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc

	userRepo repository.UserRepository
	postRepo repository.PostRepository
	images   service.ImageStore

	notifier     *notifications.Notifier
	hub          *notifications.Hub
	featureFlags *featureflags.Manager

	engagement *service.EngagementService
	posts      *service.PostQueryService
	graph      *service.SocialGraphService
	inbox      *service.NotificationService
	users      *service.UserService
}

// Option customizes a Server built by NewServerWithDeps.
type Option func(*Server)

// WithImageStore replaces the local filesystem image store.
func WithImageStore(store service.ImageStore) Option {
	return func(s *Server) { s.images = store }
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// A nil redisClient disables caching and cross-instance fan-out; the relay stays local.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, opts ...Option) (*Server, error) {
	middleware.InitMiddleware(cfg)

	s := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("postshare-api"),
		userRepo:       repository.NewUserRepository(db),
		postRepo:       repository.NewPostRepository(db),
		images:         service.NewLocalImageStore(cfg),
		featureFlags:   featureflags.NewManager(cfg.FeatureFlags),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.notifier = notifications.NewNotifier(redisClient)
	s.hub = notifications.NewHub(s.notifier)

	s.engagement = service.NewEngagementService(s.postRepo, s.userRepo, s.images)
	s.posts = service.NewPostQueryService(s.postRepo, s.userRepo)
	s.graph = service.NewSocialGraphService(s.userRepo)
	s.inbox = service.NewNotificationService(s.userRepo)
	s.users = service.NewUserService(s.userRepo, s.images)

	return s, nil
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.TracingMiddleware())
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	// Uploaded images are embedded by the browser client from another origin.
	app.Use(helmet.New(helmet.Config{CrossOriginResourcePolicy: "cross-origin"}))
	app.Use(middleware.StructuredLogger())

	// CORS runs before the limiter so rejected requests still carry CORS headers.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:3000"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowCredentials: origins != "*",
		MaxAge:           86400,
	}))

	perMinute := s.config.RateLimitPerMinute
	if perMinute <= 0 {
		perMinute = 100
	}
	app.Use(limiter.New(limiter.Config{
		Max:        perMinute,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(models.ErrorResponse{
				Message: "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}
	app.Get("/swagger/*", swagger.HandlerDefault)

	if local, ok := s.images.(*service.LocalImageStore); ok {
		app.Static(service.UploadsRoute, local.Dir(), fiber.Static{MaxAge: 86400})
	}

	api := app.Group("/api")
	api.Get("/features", middleware.OptionalAuth, s.GetFeatureFlags)

	auth := api.Group("/auth")
	auth.Post("/register", middleware.RateLimit(s.redis, 5, 10*time.Minute, "register"), s.Register)
	auth.Post("/login", middleware.RateLimit(s.redis, 10, 5*time.Minute, "login"), s.Login)
	auth.Get("/users", s.ListUsers)
	auth.Get("/profile/:id", s.GetProfile)
	auth.Put("/profile/:id", middleware.MutationAuth, s.UpdateProfile)
	auth.Post("/follow/:id", middleware.MutationAuth, s.ToggleFollow)
	auth.Get("/notifications/:id", middleware.MutationAuth, s.GetNotifications)
	auth.Put("/notifications/:id", middleware.MutationAuth, s.MarkNotificationRead)

	// Fixed paths are registered before the generic /:id lookup.
	post := api.Group("/post")
	post.Get("/getPosts", s.ListPosts)
	post.Post("/createPost", middleware.MutationAuth, s.CreatePost)
	post.Patch("/updatePost/:id", middleware.MutationAuth, s.UpdatePost)
	post.Delete("/deletePost/:id", middleware.MutationAuth, s.DeletePost)
	post.Post("/:id/like", middleware.MutationAuth, s.ToggleLike)
	post.Post("/:id/comment", middleware.MutationAuth, s.AddComment)
	post.Post("/:postId/comment/:commentId/like", middleware.MutationAuth, s.ToggleCommentLike)
	post.Get("/:id", s.GetPost)

	app.Get("/ws", middleware.WebSocketAuth, s.UpgradeRequired, s.WebsocketHandler())
}

// App builds the Fiber application with middleware and routes installed.
func (s *Server) App() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:   "postshare API",
		BodyLimit: 12 * 1024 * 1024,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if fe, ok := err.(*fiber.Error); ok {
				return c.Status(fe.Code).JSON(models.ErrorResponse{Message: fe.Message})
			}
			middleware.Logger.ErrorContext(c.UserContext(), "unhandled error", slog.String("error", err.Error()))
			return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
		},
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests. Redis is optional: without it the
// service runs without cache and with a local-only relay.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), handlerTimeout)
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
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus != "healthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	} else if redisStatus == "unhealthy" {
		overallStatus = "degraded"
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

// Start wires the relay to Redis and serves until the listener stops.
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.shutdownCtx = ctx
	s.shutdownFn = cancel

	s.app = s.App()

	if err := s.hub.StartWiring(s.shutdownCtx); err != nil {
		// Local delivery until the subscription is up.
		middleware.Logger.Warn("relay wiring failed, retrying in background", slog.String("error", err.Error()))
		s.hub.WireInBackground(s.shutdownCtx, relayRewireInterval)
	}

	middleware.Logger.Info("Server starting", slog.String("port", s.config.Port))
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", slog.String("error", err.Error()))
		}
	}

	if err := s.hub.Shutdown(ctx); err != nil {
		middleware.Logger.Error("error shutting down hub", slog.String("error", err.Error()))
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			middleware.Logger.Error("error closing sql DB", slog.String("error", cerr.Error()))
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			middleware.Logger.Error("error closing redis", slog.String("error", rerr.Error()))
		}
	}

	middleware.Logger.Info("Server shutdown complete")
	return nil
}

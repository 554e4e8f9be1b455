package routes

import (
	"time"

	"gatherly-api/internal/adapters/http/handlers"
	"gatherly-api/internal/adapters/http/middleware"
	"gatherly-api/internal/adapters/persistence/repositories"
	"gatherly-api/internal/config"
	"gatherly-api/internal/core/domain"
	"gatherly-api/internal/core/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"gorm.io/gorm"
)

// Setup configures all routes for the application
func Setup(app *fiber.App, db *gorm.DB, cfg *config.Config) {
	// Initialize repositories
	userRepo := repositories.NewUserRepository(db)
	refreshTokenRepo := repositories.NewRefreshTokenRepository(db)
	groupRepo := repositories.NewGroupRepository(db)

	// Initialize services
	authService := services.NewAuthService(userRepo, refreshTokenRepo, cfg)
	userService := services.NewUserService(userRepo, refreshTokenRepo)
	groupService := services.NewGroupService(groupRepo, domain.Money(cfg.Funding.HighCostThresholdKobo))

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler()
	authHandler := handlers.NewAuthHandler(authService, cfg)
	userHandler := handlers.NewUserHandler(userService)
	groupHandler := handlers.NewGroupHandler(groupService)

	// Health check & root routes
	app.Get("/", healthHandler.Root)
	app.Get("/health", healthHandler.HealthCheck)

	// Swagger documentation
	app.Get("/swagger/*", swagger.HandlerDefault)

	// API v1 group
	apiV1 := app.Group("/api/v1")
	setupAPIV1Routes(apiV1, healthHandler, authHandler, userHandler, groupHandler, cfg)
}

// setupAPIV1Routes configures API v1 routes
func setupAPIV1Routes(
	router fiber.Router,
	healthHandler *handlers.HealthHandler,
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	groupHandler *handlers.GroupHandler,
	cfg *config.Config,
) {
	// API Info
	router.Get("/", healthHandler.APIInfo)

	// Auth routes (public)
	authRoutes := router.Group("/auth")
	setupAuthRoutes(authRoutes, authHandler, cfg)

	// Group routes (Authenticated users)
	groupRoutes := router.Group("/groups")
	groupRoutes.Use(middleware.AuthMiddleware(cfg))
	setupGroupRoutes(groupRoutes, groupHandler)

	// Member routes (Authenticated users)
	memberRoutes := router.Group("/members")
	memberRoutes.Use(middleware.AuthMiddleware(cfg))
	memberRoutes.Patch("/:id", groupHandler.UpdateMember)

	// Profile routes (Authenticated users)
	profileRoutes := router.Group("/profile")
	profileRoutes.Use(middleware.AuthMiddleware(cfg))
	setupProfileRoutes(profileRoutes, userHandler)

	// User management routes (Admin only)
	userRoutes := router.Group("/users")
	userRoutes.Use(middleware.AuthMiddleware(cfg))
	userRoutes.Use(middleware.AdminOnly())
	setupUserRoutes(userRoutes, userHandler)
}

// setupAuthRoutes configures authentication routes
func setupAuthRoutes(router fiber.Router, handler *handlers.AuthHandler, cfg *config.Config) {
	// Public routes (rate limited against credential stuffing)
	router.Post("/register", middleware.AuthRateLimiter(), handler.Register)
	router.Post("/login", middleware.AuthRateLimiter(), handler.Login)
	router.Post("/refresh", handler.RefreshToken)
	router.Post("/logout", handler.Logout)

	// Protected routes
	router.Get("/me", middleware.AuthMiddleware(cfg), handler.Me)
	router.Post("/logout-all", middleware.AuthMiddleware(cfg), handler.LogoutAll)
}

// setupGroupRoutes configures group funding routes
func setupGroupRoutes(router fiber.Router, handler *handlers.GroupHandler) {
	// Wizard
	router.Post("/", handler.Create)
	router.Post("/preview", handler.Preview)

	// Reads; progress is never cached
	router.Get("/", middleware.NoCacheHeaders(), handler.List)
	router.Get("/:id", middleware.NoCacheHeaders(), handler.Get)
	router.Get("/:id/members", middleware.NoCacheHeaders(), handler.Members)

	// Joining
	router.Post("/:id/join", middleware.JoinRateLimiter(), handler.Join)

	// Items; static once added, short public cache is fine
	router.Post("/:id/items", handler.AddItem)
	router.Get("/:id/items", middleware.CacheControl(5*time.Minute), handler.Items)
}

// setupProfileRoutes configures profile routes (Authenticated)
func setupProfileRoutes(router fiber.Router, handler *handlers.UserHandler) {
	router.Get("/", handler.GetProfile)
	router.Put("/", handler.UpdateProfile)
	router.Put("/password", handler.ChangePassword)
}

// setupUserRoutes configures user management routes (Admin only)
func setupUserRoutes(router fiber.Router, handler *handlers.UserHandler) {
	router.Get("/", handler.ListUsers)
	router.Post("/:id/deactivate", handler.DeactivateUser)
}

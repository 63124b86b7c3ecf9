package main

import (
	"github.com/gin-contrib/sessions"
	redisStore "github.com/gin-contrib/sessions/redis"
	"github.com/gin-gonic/gin"

	"github.com/carbonforge/onboarding-api/internal/config"
	"github.com/carbonforge/onboarding-api/internal/constants"
	"github.com/carbonforge/onboarding-api/internal/database"
	"github.com/carbonforge/onboarding-api/internal/handlers"
	"github.com/carbonforge/onboarding-api/internal/middleware"
	"github.com/carbonforge/onboarding-api/internal/repository"
	"github.com/carbonforge/onboarding-api/internal/services"
	"github.com/carbonforge/onboarding-api/pkg/logger"
)

func main() {
	// Load configuration
	cfg := config.Load()

	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.LogPretty,
	})

	// Set Gin mode
	gin.SetMode(cfg.GinMode)

	// Connect to database
	if err := database.Connect(cfg); err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}

	// Run migrations and load the template catalog
	if err := database.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}
	if err := database.SeedTemplates(database.GetDB()); err != nil {
		log.Fatal().Err(err).Msg("failed to seed task templates")
	}

	// Initialize Gin router
	r := gin.Default()

	// Setup session middleware with Redis
	redisAddr := cfg.RedisHost + ":" + cfg.RedisPort
	store, err := redisStore.NewStore(
		10,        // Redis pool size
		"tcp",     // network type
		redisAddr, // Redis address from config
		"",        // password (empty = no password)
		[]byte(cfg.SessionSecret), // authentication key
	)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create Redis store")
	}
	isProduction := cfg.GinMode == "release"
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7, // 7 days
		HttpOnly: true,
		Secure:   isProduction,
		SameSite: 2, // SameSite=Lax
	})
	r.Use(sessions.Sessions(constants.SessionCookieName, store))

	// Wire repositories and services
	db := database.GetDB()
	userRepo := repository.NewUserRepository(db)
	onboardingRepo := repository.NewOnboardingRepository(db)
	templateRepo := repository.NewTemplateRepository(db)
	taskRepo := repository.NewTaskRepository(db)

	authService := services.NewAuthService(userRepo, nil)
	taskService := services.NewTaskService(taskRepo, templateRepo)
	onboardingService := services.NewOnboardingService(onboardingRepo, taskService, authService)

	authHandler := handlers.NewAuthHandler(authService)
	onboardingHandler := handlers.NewOnboardingHandler(onboardingService, taskService)
	taskHandler := handlers.NewTaskHandler(taskService)

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"message": "Onboarding API is running",
		})
	})

	// API routes
	api := r.Group("/api")
	{
		// Auth routes (public)
		auth := api.Group("/auth")
		{
			auth.POST("/signup", authHandler.Signup)
			auth.POST("/login", authHandler.Login)
			auth.POST("/logout", authHandler.Logout)
			auth.POST("/verify", authHandler.VerifyEmail)
			auth.GET("/me", middleware.RequireAuth(), authHandler.GetCurrentUser)
		}

		// Onboarding routes
		onboarding := api.Group("/onboarding")
		{
			// The submission itself works for both anonymous and
			// authenticated callers.
			onboarding.POST("", middleware.OptionalAuth(), onboardingHandler.Complete)
			onboarding.POST("/:role/complete", middleware.RequireAuth(), onboardingHandler.MarkQuestionnaireComplete)
			onboarding.GET("/:role/answers", middleware.RequireAuth(), onboardingHandler.GetAnswers)
			onboarding.GET("/progress", middleware.RequireAuth(), onboardingHandler.GetProgress)
			onboarding.GET("/roles", middleware.RequireAuth(), onboardingHandler.ListRoles)
		}

		// Profile (protected)
		api.GET("/profile", middleware.RequireAuth(), onboardingHandler.GetProfile)

		// Task routes (protected)
		tasks := api.Group("/tasks")
		tasks.Use(middleware.RequireAuth())
		{
			tasks.GET("", taskHandler.ListTasks)
			tasks.POST("/:id/toggle", taskHandler.ToggleStatus)
			tasks.PATCH("/:id/status", taskHandler.SetStatus)
		}
	}

	// Start server
	log.Info().Msg("server starting on :8080")
	if err := r.Run(":8080"); err != nil {
		log.Fatal().Err(err).Msg("failed to start server")
	}
}

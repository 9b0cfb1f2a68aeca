package main

import (
	"log"

	"github.com/gin-contrib/sessions"
	redisStore "github.com/gin-contrib/sessions/redis"
	"github.com/gin-gonic/gin"
	"github.com/orderdesk/order-management-api/internal/config"
	"github.com/orderdesk/order-management-api/internal/constants"
	"github.com/orderdesk/order-management-api/internal/database"
	"github.com/orderdesk/order-management-api/internal/handlers"
	"github.com/orderdesk/order-management-api/internal/middleware"
	"github.com/orderdesk/order-management-api/internal/repository"
	"github.com/orderdesk/order-management-api/internal/services"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Set Gin mode
	gin.SetMode(cfg.GinMode)

	// Connect to database
	if err := database.Connect(cfg); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Run migrations
	if err := database.Migrate(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Initialize Gin router
	r := gin.Default()
	r.Use(middleware.RequestID())
	r.Use(middleware.RateLimit())

	// Setup session middleware with Redis
	redisAddr := cfg.RedisHost + ":" + cfg.RedisPort
	store, err := redisStore.NewStore(
		10,                        // Redis pool size
		"tcp",                     // network type
		redisAddr,                 // Redis address from config
		"",                        // password (empty = no password)
		[]byte(cfg.SessionSecret), // authentication key
	)
	if err != nil {
		log.Fatalf("Failed to create Redis store: %v", err)
	}
	// Configure session options based on environment
	isProduction := cfg.GinMode == "release"
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7, // 7 days
		HttpOnly: true,
		Secure:   isProduction,
		SameSite: 2, // SameSite=Lax (1=Strict, 2=Lax, 3=None)
	})
	r.Use(sessions.Sessions(constants.SessionCookieName, store))

	// Initialize repositories
	db := database.GetDB()
	userRepo := repository.NewUserRepository(db)
	teamRepo := repository.NewTeamRepository(db)
	catalogRepo := repository.NewCatalogRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	askingTaskRepo := repository.NewAskingTaskRepository(db)
	auditRepo := repository.NewAuditLogRepository(db)

	// Initialize services
	authService := services.NewAuthService(userRepo)
	teamService := services.NewTeamService(teamRepo, userRepo)
	catalogService := services.NewCatalogService(catalogRepo)
	orderService := services.NewOrderService(orderRepo, taskRepo, askingTaskRepo, catalogService, teamRepo, userRepo)
	taskService := services.NewTaskService(taskRepo, orderRepo, teamRepo)
	askingTaskService := services.NewAskingTaskService(askingTaskRepo, teamRepo)
	auditLogService := services.NewAuditLogService(auditRepo)

	// Seed the admin account from env; signup never grants ADMIN
	if err := authService.SeedAdmin(cfg.AdminUsername, cfg.AdminPassword); err != nil {
		log.Fatalf("Failed to seed admin user: %v", err)
	}

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	teamHandler := handlers.NewTeamHandler(teamService)
	catalogHandler := handlers.NewCatalogHandler(catalogService)
	orderHandler := handlers.NewOrderHandler(orderService)
	taskHandler := handlers.NewTaskHandler(taskService)
	askingTaskHandler := handlers.NewAskingTaskHandler(askingTaskService)
	auditLogHandler := handlers.NewAuditLogHandler(auditLogService)

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"message": "Order Management API is running",
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
			auth.GET("/me", middleware.RequireAuth(), authHandler.GetCurrentUser)
		}

		// Order routes (protected)
		orders := api.Group("/orders")
		orders.Use(middleware.RequireAuth())
		{
			orders.POST("", orderHandler.CreateOrder)
			orders.GET("", orderHandler.ListOrders)
			orders.GET("/:id", orderHandler.GetOrder)
			orders.GET("/:id/tasks", taskHandler.ListOrderTasks)
			orders.GET("/:id/asking-tasks", askingTaskHandler.ListOrderAskingTasks)
			orders.PATCH("/:id/folder-link", orderHandler.AttachFolderLink)
			orders.PATCH("/:id/verify", orderHandler.VerifyOrder)
			orders.POST("/:id/deliver", orderHandler.DeliverOrder)
			orders.POST("/:id/convert-to-revision", orderHandler.ConvertToRevision)
			orders.POST("/:id/complete-revision", orderHandler.CompleteRevision)
			orders.POST("/:id/revision-tasks", orderHandler.AddRevisionTask)
		}

		// Task routes (protected)
		tasks := api.Group("/tasks")
		tasks.Use(middleware.RequireAuth())
		{
			tasks.GET("/:id", taskHandler.GetTask)
			tasks.POST("/:id/assign", taskHandler.AssignTask)
			tasks.PATCH("/:id/reassign", taskHandler.ReassignTask)
			tasks.DELETE("/:id/discard", taskHandler.DiscardTask)
			tasks.POST("/:id/start", taskHandler.StartTask)
			tasks.POST("/:id/pause", taskHandler.PauseTask)
			tasks.POST("/:id/resume", taskHandler.ResumeTask)
			tasks.PATCH("/:id/complete", taskHandler.CompleteTask)
		}

		// Asking task routes (protected)
		askingTasks := api.Group("/asking-tasks")
		askingTasks.Use(middleware.RequireAuth())
		{
			askingTasks.GET("/:id", askingTaskHandler.GetAskingTask)
			askingTasks.GET("/:id/stages", askingTaskHandler.StageHistory)
			askingTasks.POST("/:id/stage", askingTaskHandler.AdvanceStage)
			askingTasks.PATCH("/:id/flag", askingTaskHandler.SetFlag)
			askingTasks.PATCH("/:id/notes", askingTaskHandler.UpdateNotes)
		}

		// Team routes (protected)
		teams := api.Group("/teams")
		teams.Use(middleware.RequireAuth())
		{
			teams.POST("", teamHandler.CreateTeam)
			teams.POST("/:id/members", teamHandler.AddMember)
			teams.DELETE("/:id/members/:userId", teamHandler.RemoveMember)
		}

		// Catalog routes (protected)
		orderTypes := api.Group("/order-types")
		orderTypes.Use(middleware.RequireAuth())
		{
			orderTypes.POST("", catalogHandler.CreateOrderType)
			orderTypes.GET("", catalogHandler.ListOrderTypes)
			orderTypes.DELETE("/:id", catalogHandler.DeleteOrderType)
		}
		catalogServices := api.Group("/services")
		catalogServices.Use(middleware.RequireAuth())
		{
			catalogServices.POST("", catalogHandler.CreateService)
			catalogServices.GET("", catalogHandler.ListServices)
		}

		// Audit log routes (protected)
		auditLogs := api.Group("/audit-logs")
		auditLogs.Use(middleware.RequireAuth())
		{
			auditLogs.GET("", auditLogHandler.ListAuditLogs)
		}
	}

	// Start server
	log.Printf("Server starting on %s", cfg.ListenAddr)
	if err := r.Run(cfg.ListenAddr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

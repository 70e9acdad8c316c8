package main

import (
	"log"
	"os"
	"time"

	"techfix-backend/configs"
	"techfix-backend/internal/cache"
	"techfix-backend/internal/database"
	"techfix-backend/internal/handlers"
	"techfix-backend/internal/middleware"
	"techfix-backend/internal/models"
	"techfix-backend/internal/ratelimit"
	"techfix-backend/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using default configuration")
	}

	// Load configuration
	if err := configs.LoadConfig(); err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	// Initialize database and seed the first admin account
	dbManager := database.GetDBManager()
	dbManager.SeedAdminUser()
	db := dbManager.DB

	// Initialize cache
	cacheMgr := cache.GetCacheManager()

	// Rate limiters: one general budget for the whole API, a tighter
	// one for the public ticket form
	generalLimiter := ratelimit.New(configs.AppConfig.RateLimitMax, configs.AppConfig.RateLimitWindow)
	ticketLimiter := ratelimit.New(configs.AppConfig.TicketLimitMax, configs.AppConfig.TicketLimitWindow)

	stopSweep := make(chan struct{})
	generalLimiter.StartSweeper(configs.AppConfig.RateLimitSweepPeriod, stopSweep)
	ticketLimiter.StartSweeper(configs.AppConfig.RateLimitSweepPeriod, stopSweep)

	// Initialize services
	authService := services.NewAuthService(db)
	clientService := services.NewClientService(db)
	ticketService := services.NewTicketService(db)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	publicHandler := handlers.NewPublicHandler(db, clientService, ticketService, cacheMgr)
	clientHandler := handlers.NewClientHandler(db, clientService)
	ticketHandler := handlers.NewTicketHandler(db, ticketService, cacheMgr)
	userHandler := handlers.NewUserHandler(db, authService)
	catalogHandler := handlers.NewCatalogHandler(db, cacheMgr)
	wsHandler := handlers.NewWebSocketHandler()

	go wsHandler.RunHub(cacheMgr.Updates())

	// Setup Gin router
	if os.Getenv("GIN_MODE") != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()

	// Global middleware. The limiter comes first so every request is
	// counted and carries X-RateLimit-* headers, even ones validation
	// rejects afterwards.
	router.Use(middleware.RateLimitMiddleware(generalLimiter))
	router.Use(middleware.ValidationMiddleware())
	router.Use(gin.Recovery())

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// Public routes
	api := router.Group("/api")
	api.POST("/tickets", middleware.TicketRateLimitMiddleware(ticketLimiter), publicHandler.CreateTicket)
	api.POST("/quotes", publicHandler.CreateQuote)
	api.GET("/testimonials", publicHandler.ListTestimonials)
	api.POST("/testimonials", publicHandler.CreateTestimonial)
	api.GET("/services", publicHandler.ListServices)

	api.POST("/admin/login", authHandler.Login)

	// Admin routes
	admin := router.Group("/api/admin")
	admin.Use(middleware.AuthMiddleware(authService, models.RoleAdmin, models.RoleTechnician))

	admin.POST("/logout", authHandler.Logout)
	admin.GET("/me", authHandler.Me)

	admin.GET("/clients", clientHandler.ListClients)
	admin.GET("/clients/:id", clientHandler.GetClient)
	admin.POST("/clients", clientHandler.CreateClient)
	admin.PUT("/clients/:id", clientHandler.UpdateClient)

	admin.GET("/tickets", ticketHandler.ListTickets)
	admin.GET("/tickets/:id", ticketHandler.GetTicket)
	admin.PUT("/tickets/:id", ticketHandler.UpdateTicket)
	admin.GET("/tickets/:id/comments", ticketHandler.ListComments)
	admin.POST("/tickets/:id/comments", ticketHandler.AddComment)

	admin.GET("/quotes", catalogHandler.ListQuotes)
	admin.PUT("/quotes/:id", catalogHandler.UpdateQuote)

	admin.GET("/testimonials", catalogHandler.ListPendingTestimonials)
	admin.PUT("/testimonials/:id/approve", catalogHandler.ApproveTestimonial)
	admin.DELETE("/testimonials/:id", catalogHandler.DeleteTestimonial)

	admin.GET("/services", catalogHandler.ListServices)
	admin.POST("/services", catalogHandler.CreateService)
	admin.PUT("/services/:id", catalogHandler.UpdateService)

	admin.GET("/stats", catalogHandler.GetStats)

	if configs.AppConfig.EnableWebSocket {
		admin.GET("/ws", wsHandler.HandleConnections)
	}

	// Destructive admin operations require the ADMIN role
	adminOnly := router.Group("/api/admin")
	adminOnly.Use(middleware.AuthMiddleware(authService, models.RoleAdmin))

	adminOnly.DELETE("/clients/:id", clientHandler.DeleteClient)
	adminOnly.DELETE("/tickets/:id", ticketHandler.DeleteTicket)
	adminOnly.DELETE("/services/:id", catalogHandler.DeleteService)

	adminOnly.GET("/users", userHandler.ListUsers)
	adminOnly.POST("/users", userHandler.CreateUser)
	adminOnly.PUT("/users/:id", userHandler.UpdateUser)
	adminOnly.DELETE("/users/:id", userHandler.DeleteUser)

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":    "healthy",
			"timestamp": time.Now().Unix(),
			"services": map[string]string{
				"database": "connected",
				"redis": func() string {
					if cacheMgr.IsAvailable() {
						return "connected"
					} else {
						return "local_cache_only"
					}
				}(),
			},
		})
	})

	// Start server
	port := ":" + configs.AppConfig.ServerPort
	log.Printf("Server starting on port %s", port)

	if err := router.Run(port); err != nil {
		close(stopSweep)
		log.Fatal("Failed to start server:", err)
	}
}

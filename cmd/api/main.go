// main.go
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/skillbridge/skillbridge-backend/internal/api/handlers"
	"github.com/skillbridge/skillbridge-backend/internal/api/middleware"
	"github.com/skillbridge/skillbridge-backend/internal/config"
	"github.com/skillbridge/skillbridge-backend/internal/cron"
	"github.com/skillbridge/skillbridge-backend/internal/db"
	"github.com/skillbridge/skillbridge-backend/internal/email"
	"github.com/skillbridge/skillbridge-backend/internal/matchscore"
	"github.com/skillbridge/skillbridge-backend/internal/notification"
	"github.com/skillbridge/skillbridge-backend/internal/payment"
	"github.com/skillbridge/skillbridge-backend/internal/repository"
	"github.com/skillbridge/skillbridge-backend/internal/seed"
	"github.com/skillbridge/skillbridge-backend/internal/service"
	"github.com/skillbridge/skillbridge-backend/internal/socket"
)

func main() {
	// ============================================
	// Load environment variables
	// ============================================
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// ============================================
	// Load configuration
	// ============================================
	cfg := config.Load()

	// ============================================
	// Set Gin mode
	// ============================================
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// ============================================
	// Run Database Migrations FIRST
	// ============================================
	log.Println("🔄 Running database migrations...")
	migrationsPath := "./internal/db/migrations"
	if err := db.RunMigrations(cfg.DatabaseURL, migrationsPath); err != nil {
		log.Fatalf("❌ Migration failed: %v", err)
	}
	log.Println("✅ Database migrations completed")

	// ============================================
	// Initialize PostgreSQL (pgxpool + sqlx)
	// ============================================
	pg, err := db.NewPostgresDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("❌ Failed to create pgx pool: %v", err)
	}
	defer pg.Close()

	sqlxDB, err := sqlx.Connect("pgx", cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("❌ Failed to open sqlx DB: %v", err)
	}
	defer sqlxDB.Close()

	// ============================================
	// Initialize Repositories
	// ============================================
	repos := repository.NewRepositories(pg.Pool, sqlxDB)
	log.Println("📦 Repositories initialized")

	// ============================================
	// Initialize Redis (optional)
	// ============================================
	var redisDB *db.RedisDB
	if cfg.RedisURL != "" {
		redisDB, err = db.NewRedisDB(cfg.RedisURL)
		if err != nil {
			log.Printf("⚠️ Failed to connect to Redis: %v (continuing without cache)", err)
			redisDB = nil
		} else {
			defer redisDB.Close()
			log.Println("⚡ Redis cache enabled")
		}
	}

	// ============================================
	// Initialize Email Service (optional)
	// ============================================
	var emailSvc *email.Service
	if cfg.SMTPHost != "" {
		emailSvc = email.NewService(&email.Config{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			User:     cfg.SMTPUser,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
			FromName: cfg.SMTPFromName,
			UseTLS:   cfg.SMTPUseTLS,
		})
		log.Println("📧 Email service initialized")
	} else {
		log.Println("⚠️  Email not configured (SMTP_HOST not set)")
	}

	// ============================================
	// Initialize WebSocket Hub
	// ============================================
	hub := socket.NewHub()
	go hub.Run()
	broadcaster := socket.NewBroadcaster(hub)

	// WebSocket handler with JWT secret for self-authentication
	wsHandler := socket.NewHandler(hub, cfg.JWTSecret)
	log.Println("🔌 WebSocket hub initialized")

	// ============================================
	// Seed Data (for development)
	// ============================================
	if cfg.Environment != "production" {
		log.Println("🌱 Seeding development data...")
		seed.SeedData(repos)
	}

	// ============================================
	// Initialize Notification Service
	// ============================================
	notificationSvc := notification.NewService(repos.NotificationRepo)
	notificationSvc.SetBroadcaster(broadcaster)

	// ============================================
	// Initialize All Services
	// ============================================
	services := service.NewServices(&service.ServiceDeps{
		Config:      cfg,
		Repos:       repos,
		Cache:       redisDB,
		Gateway:     payment.NewDevGateway(),
		Scorer:      matchscore.NewKeywordScorer(),
		NotifSvc:    notificationSvc,
		EmailSvc:    emailSvc,
		Broadcaster: broadcaster,
	})
	log.Println("✨ All services initialized")

	// ============================================
	// Initialize Handlers
	// ============================================
	h := handlers.NewHandlers(services)

	// ============================================
	// Initialize Cron Scheduler
	// ============================================
	cronScheduler := cron.NewScheduler(
		cfg,
		services,
		emailSvc,
		repos.DisputeRepo,
		repos.ProjectRepo,
		repos.NotificationRepo,
	)
	cronScheduler.Start()
	defer cronScheduler.Stop()

	// ============================================
	// Create Gin Router
	// ============================================
	r := gin.Default()

	// Configure CORS
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000", "http://localhost:5173"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":     "healthy",
			"timestamp":  time.Now(),
			"database":   "connected",
			"cache":      getCacheStatus(redisDB),
			"websocket":  "active",
			"ws_clients": hub.GetConnectedClientsCount(),
			"email":      getEmailStatus(emailSvc),
		})
	})

	// API routes
	api := r.Group("/api")
	{
		// ============================================
		// Public routes (no auth required)
		// ============================================
		auth := api.Group("/auth")
		{
			auth.POST("/register", h.Auth.Register)
			auth.POST("/login", h.Auth.Login)
			auth.POST("/refresh", h.Auth.Refresh)
			auth.POST("/logout", h.Auth.Logout)
		}

		// WebSocket route
		api.GET("/ws", wsHandler.HandleWebSocket)

		// ============================================
		// Protected routes (require auth middleware)
		// ============================================
		protected := api.Group("")
		protected.Use(middleware.AuthMiddleware(services.Auth))
		{
			// Project routes
			projects := protected.Group("/projects")
			{
				projects.GET("", h.Project.ListOpen)
				projects.GET("/my", h.Project.ListMine)
				projects.POST("/intent", h.Project.CreateIntent)
				projects.POST("/fund", h.Project.Fund)
				projects.GET("/:id", h.Project.Get)
				projects.GET("/:id/escrow", h.Project.GetEscrow)
				projects.GET("/:id/dispute", h.Dispute.GetByProject)

				// Workflow transitions
				projects.POST("/:id/request-completion", h.Project.RequestCompletion)
				projects.POST("/:id/approve-completion", h.Project.ApproveCompletion)
				projects.POST("/:id/request-changes", h.Project.RequestChanges)
				projects.POST("/:id/reject-completion", h.Project.RejectCompletion)
				projects.POST("/:id/cancel", h.Project.Cancel)

				// Applications
				projects.GET("/:id/applications", h.Application.ListByProject)
				projects.POST("/:id/applications", h.Application.Apply)
			}

			// Application routes
			applications := protected.Group("/applications")
			{
				applications.GET("/my", h.Application.ListMine)
				applications.GET("/:id", h.Application.Get)
				applications.POST("/:id/review", h.Application.MarkReviewed)
				applications.POST("/:id/shortlist", h.Application.Shortlist)
				applications.POST("/:id/accept", h.Application.Accept)
				applications.POST("/:id/reject", h.Application.Reject)
				applications.POST("/:id/withdraw", h.Application.Withdraw)

				// Interviews
				applications.GET("/:id/interviews", h.Interview.ListByApplication)
			}

			// Interview routes
			interviews := protected.Group("/interviews")
			{
				interviews.POST("", h.Interview.Schedule)
				interviews.GET("/:id", h.Interview.Get)
				interviews.POST("/:id/complete", h.Interview.Complete)
				interviews.POST("/:id/cancel", h.Interview.Cancel)
			}

			// Dispute routes
			disputes := protected.Group("/disputes")
			{
				disputes.GET("/:id", h.Dispute.Get)
				disputes.POST("/:id/counter-statement", h.Dispute.FileCounterStatement)
			}

			// Notification routes
			notifications := protected.Group("/notifications")
			{
				notifications.GET("", h.Notification.List)
				notifications.GET("/count", h.Notification.Count)
				notifications.PUT("/:id/read", h.Notification.MarkRead)
				notifications.PUT("/read-all", h.Notification.MarkAllRead)
			}

			// Admin routes
			admin := protected.Group("/admin")
			admin.Use(middleware.RequireAdmin())
			{
				admin.GET("/disputes", h.Admin.ListOpenDisputes)
				admin.POST("/projects/:id/approve-payment", h.Admin.ApprovePayment)
				admin.POST("/projects/:id/approve-refund", h.Admin.ApproveRefund)
				admin.POST("/projects/:id/revert", h.Admin.Revert)
				admin.POST("/projects/:id/suspend", h.Admin.Suspend)
			}
		}
	}

	// Create server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server
	go func() {
		log.Printf("🚀 Server starting on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}

func getCacheStatus(redisDB *db.RedisDB) string {
	if redisDB != nil {
		return "connected"
	}
	return "disabled"
}

func getEmailStatus(emailSvc *email.Service) string {
	if emailSvc != nil {
		return "configured"
	}
	return "disabled"
}

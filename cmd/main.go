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

	"github.com/razour08/tgbot-verify/internal/auth"
	"github.com/razour08/tgbot-verify/internal/config"
	"github.com/razour08/tgbot-verify/internal/database"
	"github.com/razour08/tgbot-verify/internal/handlers"
	"github.com/razour08/tgbot-verify/internal/jobs"
	"github.com/razour08/tgbot-verify/internal/limiter"
	"github.com/razour08/tgbot-verify/internal/models"
	"github.com/razour08/tgbot-verify/internal/notify"
	"github.com/razour08/tgbot-verify/internal/services"
	"github.com/razour08/tgbot-verify/internal/sheerid"
	"github.com/razour08/tgbot-verify/internal/verifier"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize JWT
	auth.InitJWT(cfg.App.JWTSecret)

	// Connect to database
	db, err := database.Connect(cfg.GetDSN())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Run migrations
	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Initialize services
	ledgerService := services.NewLedgerService(db)
	checkInService := services.NewCheckinService(db)
	redemptionService := services.NewRedemptionService(db)
	attemptService := services.NewAttemptService(db)
	broadcastService := services.NewBroadcastService(ledgerService, notify.LogNotifier{}, 50*time.Millisecond)

	// Per-service verifier concurrency caps
	capacities := make(map[models.ServiceType]int64, len(cfg.Verify.Concurrency))
	for name, slots := range cfg.Verify.Concurrency {
		svc, ok := models.ParseServiceType(name)
		if !ok {
			log.Fatalf("Unknown service in concurrency config: %s", name)
		}
		capacities[svc] = slots
	}
	lim, err := limiter.New(capacities)
	if err != nil {
		log.Fatalf("Failed to build concurrency limiter: %v", err)
	}

	// One verifier per supported program
	registry := verifier.NewRegistry(
		verifier.NewSheerIDVerifier(models.ServiceGeminiOnePro, "collectStudentPersonalInfo", cfg.SheerID.BaseURL),
		verifier.NewSheerIDVerifier(models.ServiceChatGPTK12, "collectTeacherPersonalInfo", cfg.SheerID.BaseURL),
		verifier.NewSheerIDVerifier(models.ServiceSpotifyStudent, "collectStudentPersonalInfo", cfg.SheerID.BaseURL),
		verifier.NewSheerIDVerifier(models.ServiceBoltTeacher, "collectTeacherPersonalInfo", cfg.SheerID.BaseURL),
		verifier.NewSheerIDVerifier(models.ServiceYouTubeStudent, "collectStudentPersonalInfo", cfg.SheerID.BaseURL),
	)

	pollWindows := make(map[models.ServiceType]time.Duration, len(cfg.Verify.PollWindow))
	for name, window := range cfg.Verify.PollWindow {
		svc, ok := models.ParseServiceType(name)
		if !ok {
			log.Fatalf("Unknown service in poll window config: %s", name)
		}
		pollWindows[svc] = window
	}

	sheerIDClient := sheerid.NewClient(cfg.SheerID.BaseURL)
	verificationService := services.NewVerificationService(
		db,
		ledgerService,
		attemptService,
		lim,
		registry,
		sheerIDClient,
		cfg.Verify.Cost,
		pollWindows,
		cfg.SheerID.PollInterval,
	)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(ledgerService, cfg.App.AdminExternalID)
	userHandler := handlers.NewUserHandler(ledgerService, checkInService, redemptionService, cfg.App.InviteLinkBase)
	verifyHandler := handlers.NewVerifyHandler(ledgerService, verificationService, attemptService)
	adminHandler := handlers.NewAdminHandler(ledgerService, redemptionService, broadcastService)

	// Background reconciliation of attempts whose poll window ran out
	if cfg.Verify.ReconcileInterval > 0 {
		reconciler := jobs.NewPendingReconciler(verificationService, attemptService, cfg.Verify.ReconcileInterval, cfg.Verify.ReconcileMinAge)
		go reconciler.Start()
		defer reconciler.Stop()
		log.Println("Pending reconciler job started")
	}

	// Set up Gin router
	router := gin.Default()

	// CORS middleware
	allowedOrigins := []string{
		"http://localhost:3000",
		"http://localhost:5173",
		"http://127.0.0.1:3000",
		"http://127.0.0.1:5173",
	}
	if frontendURL := os.Getenv("FRONTEND_URL"); frontendURL != "" {
		allowedOrigins = append(allowedOrigins, frontendURL)
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	// Registration (public)
	router.POST("/api/auth/register", authHandler.Register)

	// API routes (protected)
	api := router.Group("/api")
	api.Use(auth.AuthMiddleware())
	{
		api.GET("/me", userHandler.GetProfile)
		api.POST("/checkin", userHandler.CheckIn)
		api.GET("/invite", userHandler.GetInvite)
		api.POST("/codes/redeem", userHandler.RedeemCode)

		api.POST("/verifications", verifyHandler.Submit)
		api.GET("/verifications", verifyHandler.List)
		api.GET("/verifications/status/:verification_id", verifyHandler.Status)
	}

	// Admin routes
	admin := router.Group("/api/admin")
	admin.Use(auth.AuthMiddleware())
	admin.Use(auth.AdminMiddleware())
	{
		admin.POST("/users/:id/balance", adminHandler.AdjustBalance)
		admin.POST("/users/:id/block", adminHandler.Block)
		admin.POST("/users/:id/unblock", adminHandler.Unblock)
		admin.GET("/users/blocked", adminHandler.ListBlocked)

		admin.POST("/codes", adminHandler.CreateCode)
		admin.GET("/codes", adminHandler.ListCodes)

		admin.POST("/broadcast", adminHandler.Broadcast)
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Server starting on port %s", cfg.Server.Port)
		log.Printf("Health check: http://localhost:%s/health", cfg.Server.Port)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	// Graceful shutdown with 5 second timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}

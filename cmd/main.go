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

	"github.com/rtsant123/teer-betting-app/internal/auth"
	"github.com/rtsant123/teer-betting-app/internal/config"
	"github.com/rtsant123/teer-betting-app/internal/database"
	"github.com/rtsant123/teer-betting-app/internal/handlers"
	"github.com/rtsant123/teer-betting-app/internal/jobs"
	"github.com/rtsant123/teer-betting-app/internal/services"
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
	if err := database.Connect(cfg.GetDSN()); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Run migrations
	if err := database.AutoMigrate(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	db := database.GetDB()

	// Initialize services
	schedulerService := services.NewSchedulerService(db)
	referralService := services.NewReferralService(db)
	authService := services.NewAuthService(db)
	houseService := services.NewHouseService(db, cfg.App.DefaultTimezone)
	roundService := services.NewRoundService(db, schedulerService)
	walletService := services.NewWalletService(db)
	betService := services.NewBetService(db, schedulerService, referralService)
	settlementService := services.NewSettlementService(db, schedulerService, referralService)

	// Seed the configured admin account
	if err := authService.EnsureAdminUser(cfg.App.AdminUsername, cfg.App.AdminPassword); err != nil {
		log.Fatalf("Failed to seed admin user: %v", err)
	}

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	houseHandler := handlers.NewHouseHandler(houseService)
	roundHandler := handlers.NewRoundHandler(roundService)
	betHandler := handlers.NewBetHandler(betService)
	walletHandler := handlers.NewWalletHandler(walletService)
	referralHandler := handlers.NewReferralHandler(referralService)
	adminHandler := handlers.NewAdminHandler(settlementService, schedulerService)

	// Start the scheduling job
	schedulerJob := jobs.NewDailyScheduler(schedulerService, referralService, time.Minute)
	go schedulerJob.Start()
	log.Println("Daily scheduler job started")

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

	// Authentication routes (public)
	authRoutes := router.Group("/auth")
	{
		authRoutes.POST("/register", authHandler.Register)
		authRoutes.POST("/login", authHandler.Login)
	}

	// Authenticated profile routes
	authProtected := router.Group("/auth")
	authProtected.Use(auth.AuthMiddleware())
	{
		authProtected.GET("/me", authHandler.GetProfile)
		authProtected.POST("/change-password", authHandler.ChangePassword)
	}

	// Public browsing routes
	router.GET("/api/houses", houseHandler.GetHouses)
	router.GET("/api/houses/:id", houseHandler.GetHouse)
	router.GET("/api/rounds/upcoming", roundHandler.GetUpcomingRounds)
	router.GET("/api/rounds/results", roundHandler.GetResults)
	router.GET("/api/rounds/house/:house_id", roundHandler.GetActiveRoundsByHouse)
	router.GET("/api/rounds/forecast/:house_id", roundHandler.GetForecastRound)

	// API routes (protected)
	api := router.Group("/api")
	api.Use(auth.AuthMiddleware())
	{
		// Betting endpoints
		api.POST("/bet/ticket", betHandler.PlaceTicket)
		api.GET("/bet/tickets", betHandler.GetMyTickets)
		api.GET("/bet/summary", betHandler.GetBetSummary)

		// Wallet endpoints
		api.GET("/wallet", walletHandler.GetWallet)
		api.GET("/wallet/transactions", walletHandler.GetTransactions)
		api.GET("/wallet/payment-methods", walletHandler.GetPaymentMethods)
		api.POST("/wallet/deposit", walletHandler.RequestDeposit)
		api.POST("/wallet/withdraw", walletHandler.RequestWithdrawal)

		// Referral endpoints
		api.GET("/referral/stats", referralHandler.GetStats)
		api.GET("/referral/commissions", referralHandler.GetCommissions)
		api.GET("/referral/chain", referralHandler.GetChain)
		api.POST("/referral/withdraw", referralHandler.RequestWithdrawal)
	}

	// Admin routes (protected + admin only)
	admin := router.Group("/api/admin")
	admin.Use(auth.AuthMiddleware())
	admin.Use(auth.AdminMiddleware())
	{
		// House management
		admin.POST("/houses", houseHandler.CreateHouse)
		admin.PUT("/houses/:id", houseHandler.UpdateHouse)
		admin.PUT("/houses/:id/active", houseHandler.SetHouseActive)
		admin.DELETE("/houses/:id", houseHandler.DeleteHouse)
		admin.PUT("/houses/:id/schedule", adminHandler.UpdateHouseSchedule)

		// Round management and results
		admin.GET("/rounds", roundHandler.ListRounds)
		admin.POST("/rounds", roundHandler.CreateRound)
		admin.POST("/rounds/:id/result", adminHandler.PublishResult)
		admin.PUT("/rounds/:id/result", adminHandler.ReprocessResult)
		admin.GET("/rounds/:id/winner-preview", adminHandler.WinnerPreview)
		admin.GET("/houses/:id/forecast-preview", adminHandler.ForecastWinnerPreview)
		admin.POST("/rounds/:id/cancel", adminHandler.CancelRound)
		admin.DELETE("/rounds/:id", adminHandler.DeleteRound)

		// Scheduling
		admin.POST("/schedule/daily", adminHandler.ScheduleDaily)
		admin.POST("/scheduling/houses/:id/auto-schedule", adminHandler.AutoScheduleHouse)
		admin.POST("/schedule/activate", adminHandler.ActivateDueRounds)

		// Wallet moderation
		admin.GET("/transactions/pending", walletHandler.GetPendingTransactions)
		admin.PUT("/transactions/:id/approve", walletHandler.ApproveTransaction)
		admin.PUT("/transactions/:id/reject", walletHandler.RejectTransaction)

		// Referral administration
		admin.GET("/referral/settings", referralHandler.GetSettings)
		admin.PUT("/referral/settings", referralHandler.UpdateSettings)
		admin.PUT("/referral/withdrawals/:id", referralHandler.ProcessWithdrawal)
	}

	// Start server with graceful shutdown
	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	go func() {
		log.Printf("Server starting on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	schedulerJob.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}

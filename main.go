package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"main/config"
	"main/handler"
	"main/middleware"
	"main/repository"
	"main/services"
	"main/utils"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func init() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil && os.Getenv("GO_ENV") != "test" {
		log.Printf("No .env file loaded: %v", err)
	}

	// Check required environment variables
	requiredEnvVars := []string{
		"MONGO_URI",
		"MONGO_DB",
		"JWT_SECRET",
	}

	for _, envVar := range requiredEnvVars {
		if os.Getenv(envVar) == "" && os.Getenv("GO_ENV") != "test" {
			log.Fatalf("Required environment variable %s is not set", envVar)
		}
	}

	utils.InitValidator()
	utils.InitMongoClient()
}

type application struct {
	auth      *services.AuthService
	twoFactor *services.TwoFactorService
	scanner   *services.Scanner
}

func buildApplication(cfg *config.Config) *application {
	userRepo := repository.GetUserRepo(utils.MongoClient)
	sessionRepo := repository.GetSessionRepo(utils.MongoClient)
	attemptRepo := repository.GetLoginAttemptRepo(utils.MongoClient)
	activityRepo := repository.GetActivityLogRepo(utils.MongoClient)
	monitorRepo := repository.GetMonitoredUserRepo(utils.MongoClient)

	activityLogger := services.NewActivityLogger(activityRepo)
	lockout := services.NewLockoutGuard(attemptRepo, cfg.MaxLoginAttempts, cfg.LockoutWindow)
	tokens := services.NewTokenService(cfg)

	return &application{
		auth:      services.NewAuthService(cfg, userRepo, sessionRepo, lockout, tokens, activityLogger),
		twoFactor: services.NewTwoFactorService(userRepo, activityLogger, cfg.Issuer),
		scanner:   services.NewScanner(cfg, activityRepo, userRepo, monitorRepo),
	}
}

func setupRouter(app *application) *gin.Engine {
	router := gin.Default()

	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.MetricsMiddleware())

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Public routes (no authentication required)
	public := router.Group("/api")
	{
		auth := public.Group("/auth")
		{
			auth.POST("/register", func(c *gin.Context) {
				handler.RegistrationHandler(c, app.auth)
			})
			auth.POST("/login", func(c *gin.Context) {
				handler.LoginHandler(c, app.auth)
			})
			auth.POST("/2fa/complete", func(c *gin.Context) {
				handler.TwoFactorLoginHandler(c, app.auth, app.twoFactor)
			})
			auth.POST("/refresh", func(c *gin.Context) {
				handler.RefreshHandler(c, app.auth)
			})
		}
	}

	// Protected routes (authentication required)
	protected := router.Group("/api")
	protected.Use(middleware.AuthMiddleware(app.auth))
	{
		protected.POST("/auth/logout", func(c *gin.Context) {
			handler.LogoutHandler(c, app.auth)
		})

		sessions := protected.Group("/sessions")
		{
			sessions.GET("/active", func(c *gin.Context) {
				handler.GetSessionsHandler(c, app.auth)
			})
			sessions.DELETE("/:id", func(c *gin.Context) {
				handler.RevokeSessionHandler(c, app.auth)
			})
			sessions.POST("/logout-all", func(c *gin.Context) {
				handler.LogoutAllHandler(c, app.auth)
			})
		}

		twoFactor := protected.Group("/2fa")
		{
			twoFactor.GET("/status", func(c *gin.Context) {
				handler.TwoFactorStatusHandler(c, app.twoFactor)
			})
			twoFactor.POST("/setup", func(c *gin.Context) {
				handler.TwoFactorSetupHandler(c, app.twoFactor)
			})
			twoFactor.POST("/enable", func(c *gin.Context) {
				handler.TwoFactorEnableHandler(c, app.twoFactor)
			})
			twoFactor.POST("/verify", func(c *gin.Context) {
				handler.TwoFactorVerifyHandler(c, app.twoFactor)
			})
			twoFactor.POST("/disable", func(c *gin.Context) {
				handler.TwoFactorDisableHandler(c, app.twoFactor)
			})
			twoFactor.POST("/backup-codes/regenerate", func(c *gin.Context) {
				handler.TwoFactorBackupCodesHandler(c, app.twoFactor)
			})
		}

		// Admin endpoints
		monitoring := protected.Group("/monitoring")
		monitoring.Use(middleware.AdminOnly())
		{
			monitoring.GET("/users", func(c *gin.Context) {
				handler.GetMonitoredUsersHandler(c, app.scanner)
			})
			monitoring.POST("/users/:id/resolve", func(c *gin.Context) {
				handler.ResolveMonitoredUserHandler(c, app.scanner)
			})
		}
	}

	return router
}

func main() {
	cfg := config.Load()

	db := utils.MongoClient.Database(os.Getenv("MONGO_DB"))
	if err := repository.SetupIndexes(db); err != nil {
		log.Fatalf("Failed to create indexes: %v", err)
	}

	app := buildApplication(cfg)

	if redisURL := os.Getenv("SESSION_CACHE_URL"); redisURL != "" {
		cache, err := services.NewSessionCache(redisURL)
		if err != nil {
			log.Printf("Warning: session cache disabled: %v", err)
		} else {
			services.GlobalSessionCache = cache
			cache.StartCleanupTask(cfg.SessionSweepPeriod)
		}
	}

	app.scanner.Start(cfg.ScanInterval)

	// Session maintenance sweep
	sweepStop := make(chan struct{})
	go func() {
		ticker := time.NewTicker(cfg.SessionSweepPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-sweepStop:
				return
			case <-ticker.C:
				app.auth.CleanupExpiredSessions(context.Background())
			}
		}
	}()

	utils.StartSystemMetricsCollector(30 * time.Second)

	router := setupRouter(app)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", port),
		Handler: router,
	}

	go func() {
		log.Printf("Server starting on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down")

	app.scanner.Stop()
	close(sweepStop)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Error shutting down server: %v", err)
	}

	if services.GlobalSessionCache != nil {
		if err := services.GlobalSessionCache.Close(); err != nil {
			log.Printf("Error closing session cache: %v", err)
		}
	}

	if err := utils.MongoClient.Disconnect(context.Background()); err != nil {
		log.Printf("Error disconnecting from MongoDB: %v", err)
	}
}

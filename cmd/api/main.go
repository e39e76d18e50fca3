package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/yourusername/learndocs-api/internal/config"
	"github.com/yourusername/learndocs-api/internal/handler"
	"github.com/yourusername/learndocs-api/internal/middleware"
	pgRepo "github.com/yourusername/learndocs-api/internal/repository/postgres"
	redisRepo "github.com/yourusername/learndocs-api/internal/repository/redis"
	"github.com/yourusername/learndocs-api/internal/service"
	"github.com/yourusername/learndocs-api/pkg/auth"
	"github.com/yourusername/learndocs-api/pkg/database"
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}
	log.Printf("Loading configuration from %s", configPath)

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Printf("Failed to load config: %v", err)
		os.Exit(1)
	}

	db, err := database.NewPostgresDB(cfg.Database.PostgresConnectionString())
	if err != nil {
		log.Printf("Failed to connect to database: %v", err)
		os.Exit(1)
	}

	if err := database.MigrateDB(db); err != nil {
		log.Printf("Failed to migrate database: %v", err)
		os.Exit(1)
	}

	redisClient, err := database.NewUniversalRedisClient(cfg.Redis)
	if err != nil {
		log.Printf("Failed to connect to Redis: %v", err)
		os.Exit(1)
	}
	log.Println("Successfully connected to Redis")

	// Repositories
	userRepo := pgRepo.NewUserRepo(db)
	profileRepo := pgRepo.NewProfileRepo(db)
	identityRepo := pgRepo.NewUserIdentityRepo(db)
	codeRepo := pgRepo.NewVerificationCodeRepo(db)

	stateRepo, err := redisRepo.NewStateRepo(redisClient)
	if err != nil {
		log.Printf("Failed to initialize StateRepo: %v", err)
		os.Exit(1)
	}

	// Session tokens
	jwtService, err := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.TokenTTL())
	if err != nil {
		log.Printf("Failed to initialize JWTService: %v", err)
		os.Exit(1)
	}

	// Email delivery. Without an API key codes and links go to the log.
	var emailService service.EmailService
	if cfg.Email.ResendAPIKey != "" {
		emailService, err = service.NewResendEmailService(cfg.Email.ResendAPIKey, cfg.Email.From)
		if err != nil {
			log.Printf("Failed to initialize ResendEmailService: %v", err)
			os.Exit(1)
		}
	} else {
		log.Println("RESEND_API_KEY not set, using noop email service")
		emailService = &service.NoopEmailService{}
	}

	// Services
	otpService, err := service.NewOTPService(userRepo, codeRepo, emailService, 5*time.Minute)
	if err != nil {
		log.Printf("Failed to initialize OTPService: %v", err)
		os.Exit(1)
	}

	authService, err := service.NewAuthService(userRepo, profileRepo, otpService, jwtService, emailService, cfg.Client.BaseURL, 15*time.Minute)
	if err != nil {
		log.Printf("Failed to initialize AuthService: %v", err)
		os.Exit(1)
	}

	var providers []service.ProviderClient
	if cfg.OAuth.Google.ClientID != "" {
		googleProvider, err := service.NewGoogleProvider(cfg.OAuth.Google)
		if err != nil {
			log.Printf("Failed to initialize Google provider: %v", err)
			os.Exit(1)
		}
		providers = append(providers, googleProvider)
	}
	if cfg.OAuth.Facebook.ClientID != "" {
		facebookProvider, err := service.NewFacebookProvider(cfg.OAuth.Facebook)
		if err != nil {
			log.Printf("Failed to initialize Facebook provider: %v", err)
			os.Exit(1)
		}
		providers = append(providers, facebookProvider)
	}
	if len(providers) == 0 {
		log.Println("No OAuth providers configured, federation endpoints will reject requests")
	}

	oauthService, err := service.NewOAuthService(userRepo, identityRepo, stateRepo, jwtService, providers)
	if err != nil {
		log.Printf("Failed to initialize OAuthService: %v", err)
		os.Exit(1)
	}

	isProduction := gin.Mode() == gin.ReleaseMode
	cookieSecure := cfg.Server.CookieSecure || isProduction

	// Handlers and middleware
	authHandler := handler.NewAuthHandler(authService, otpService, oauthService, jwtService, cfg.Client.BaseURL, cookieSecure)
	userHandler := handler.NewUserHandler(userRepo, profileRepo, authService, cookieSecure)
	authMiddleware := middleware.NewAuthMiddleware(jwtService, userRepo)
	rateLimiter := middleware.NewRateLimiter(redisClient)

	router := gin.Default()

	// Trusted proxies affect c.ClientIP(), which keys the rate limiter.
	if isProduction {
		if err := router.SetTrustedProxies(nil); err != nil {
			log.Printf("Warning: failed to set trusted proxies: %v", err)
		}
	} else {
		if err := router.SetTrustedProxies([]string{"127.0.0.1", "::1"}); err != nil {
			log.Printf("Warning: failed to set trusted proxies: %v", err)
		}
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.Client.BaseURL, "http://localhost:5173", "http://localhost:3000"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api/v1")
	{
		authGroup := api.Group("/auth")
		authGroup.Use(rateLimiter.LimitByIP(middleware.DefaultAuthRateLimitConfig()))
		{
			strict := middleware.StrictAuthRateLimitConfig()
			authGroup.POST("/send-otp", rateLimiter.Limit(strict), authHandler.SendOTP)
			authGroup.POST("/signup", authHandler.SignUp)
			authGroup.POST("/login", rateLimiter.Limit(strict), authHandler.Login)
			authGroup.POST("/logout", authHandler.Logout)
			authGroup.POST("/forgot-password", rateLimiter.Limit(strict), authHandler.ForgotPassword)
			authGroup.POST("/reset-password", authHandler.ResetPassword)

			authGroup.GET("/:provider", authHandler.OAuthRedirect)
			authGroup.GET("/:provider/callback", authHandler.OAuthCallback)

			authedAuth := authGroup.Group("/")
			authedAuth.Use(authMiddleware.RequireAuth())
			{
				authedAuth.POST("/change-password", authHandler.ChangePassword)
			}
		}

		users := api.Group("/users")
		users.Use(authMiddleware.RequireAuth())
		{
			users.GET("/me", userHandler.GetMe)
			users.DELETE("/me", userHandler.DeleteMe)
		}
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		log.Printf("Starting server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
		os.Exit(1)
	}

	if err := redisClient.Close(); err != nil {
		log.Printf("Error closing Redis client: %v", err)
	}

	log.Println("Server exited properly")
}

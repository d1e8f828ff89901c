package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/spf13/viper"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/fintracker/backend/internal/database"
	"github.com/fintracker/backend/internal/ledger"
	mW "github.com/fintracker/backend/internal/middleware"
	"github.com/fintracker/backend/internal/services"
)

// @title Finance Tracker API
// @version 1.0
// @description Personal finance tracking backend: credit cards, payments, bank accounts, deposits, portfolios, net worth
// @host localhost:8080
// @BasePath /api/v1
// @schemes http https

func main() {
	// Initialize config
	viper.SetConfigFile(".env") // explicitly point to .env file
	viper.AutomaticEnv()        // allow environment variables to override .env

	viper.BindEnv("database.host", "DATABASE_HOST")
	viper.BindEnv("database.port", "DATABASE_PORT")
	viper.BindEnv("database.user", "DATABASE_USER")
	viper.BindEnv("database.password", "DATABASE_PASSWORD")
	viper.BindEnv("database.name", "DATABASE_NAME")
	viper.BindEnv("database.ssl_mode", "DATABASE_SSL_MODE")

	viper.BindEnv("redis.host", "REDIS_HOST")
	viper.BindEnv("redis.port", "REDIS_PORT")
	viper.BindEnv("redis.password", "REDIS_PASSWORD")
	viper.BindEnv("redis.db", "REDIS_DB")

	viper.BindEnv("jwt.secret_key", "JWT_SECRET_KEY")
	viper.BindEnv("jwt.expiry_hours", "JWT_EXPIRY_HOURS")
	viper.BindEnv("argon2.time", "ARGON2_TIME")
	viper.BindEnv("argon2.memory", "ARGON2_MEMORY")
	viper.BindEnv("argon2.threads", "ARGON2_THREADS")
	viper.BindEnv("argon2.key_length", "ARGON2_KEY_LENGTH")
	viper.BindEnv("argon2.salt_length", "ARGON2_SALT_LENGTH")

	viper.SetDefault("jwt.expiry_hours", 24)
	viper.SetDefault("argon2.time", 1)
	viper.SetDefault("argon2.memory", 64*1024)
	viper.SetDefault("argon2.threads", 4)
	viper.SetDefault("argon2.key_length", 32)
	viper.SetDefault("argon2.salt_length", 16)

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Config file not found, using defaults: %v", err)
	}

	// Initialize services
	db := database.InitDatabase()
	defer db.Close()

	redisClient := database.InitRedis()
	if redisClient != nil {
		defer redisClient.Close()
	}

	ledgerService := ledger.NewService(db)

	authService := services.NewAuthService(db, redisClient)
	creditCardService := services.NewCreditCardService(db)
	paymentService := services.NewPaymentService(ledgerService)
	bankAccountService := services.NewBankAccountService(db)
	depositService := services.NewDepositService(db)
	portfolioService := services.NewPortfolioService(db)
	summaryService := services.NewSummaryService(db)

	// Initialize auth middleware with Redis
	mW.InitAuthMiddleware(redisClient)

	// Setup router
	r := chi.NewRouter()

	// Middleware
	r.Use(mW.SecurityHeaders)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(60 * time.Second))

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Access-Control-Allow-Origin"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
	})

	// Swagger documentation
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/openapi.yaml"),
	))

	// Serve OpenAPI spec
	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "./api/openapi.yaml")
	})

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		// Public endpoints (no auth required)
		r.Post("/auth/register", authService.Register)
		r.Post("/auth/login", authService.Login)
		r.Post("/auth/logout", authService.Logout)

		// Protected endpoints (auth required)
		r.Group(func(r chi.Router) {
			r.Use(mW.AuthMiddleware)

			r.Get("/auth/profile", authService.GetProfile)

			// Credit cards
			r.Get("/credit-cards", creditCardService.ListCreditCards)
			r.Post("/credit-cards", creditCardService.CreateCreditCard)
			r.Get("/credit-cards/{cardId}", creditCardService.GetCreditCard)
			r.Put("/credit-cards/{cardId}", creditCardService.UpdateCreditCard)
			r.Delete("/credit-cards/{cardId}", creditCardService.DeleteCreditCard)

			// Payments
			r.Get("/credit-cards/{cardId}/payments", paymentService.ListPayments)
			r.Post("/credit-cards/{cardId}/payments", paymentService.CreatePayment)
			r.Delete("/payments/{paymentId}", paymentService.DeletePayment)

			// Bank accounts
			r.Get("/bank-accounts", bankAccountService.ListBankAccounts)
			r.Post("/bank-accounts", bankAccountService.CreateBankAccount)
			r.Get("/bank-accounts/{accountId}", bankAccountService.GetBankAccount)
			r.Put("/bank-accounts/{accountId}", bankAccountService.UpdateBankAccount)
			r.Delete("/bank-accounts/{accountId}", bankAccountService.DeleteBankAccount)

			// Deposits
			r.Get("/deposits", depositService.ListDeposits)
			r.Post("/deposits", depositService.CreateDeposit)
			r.Get("/deposits/{depositId}", depositService.GetDeposit)
			r.Put("/deposits/{depositId}", depositService.UpdateDeposit)
			r.Delete("/deposits/{depositId}", depositService.DeleteDeposit)

			// Portfolios
			r.Get("/portfolios", portfolioService.ListPortfolios)
			r.Post("/portfolios", portfolioService.CreatePortfolio)
			r.Delete("/portfolios/{portfolioId}", portfolioService.DeletePortfolio)
			r.Get("/portfolios/{portfolioId}/snapshots", portfolioService.ListSnapshots)
			r.Post("/portfolios/{portfolioId}/snapshots", portfolioService.CreateSnapshot)

			// Summary & net worth
			r.Get("/summary", summaryService.GetSummary)
			r.Get("/net-worth/history", summaryService.GetNetWorthHistory)
			r.Post("/net-worth/snapshots", summaryService.CreateNetWorthSnapshot)
		})
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	// Start server
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Printf("Server starting on :%s", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server stopped")
}

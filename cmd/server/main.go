// Oakline - retail investment tracking platform
// Entry point for the web server
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/oaklinehq/oakline/internal/config"
	"github.com/oaklinehq/oakline/internal/handlers"
	"github.com/oaklinehq/oakline/internal/middleware"
	"github.com/oaklinehq/oakline/internal/services/analytics"
	"github.com/oaklinehq/oakline/internal/services/auth"
	"github.com/oaklinehq/oakline/internal/services/funds"
	"github.com/oaklinehq/oakline/internal/services/invest"
	"github.com/oaklinehq/oakline/internal/services/notify"
	"github.com/oaklinehq/oakline/internal/storage"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database
	db, err := storage.New(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Run migrations
	if err := db.Migrate(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Initialize repositories
	userRepo := storage.NewUserRepository(db)
	sessionRepo := storage.NewSessionRepository(db)
	balanceRepo := storage.NewBalanceRepository(db)
	investmentRepo := storage.NewInvestmentRepository(db)
	transactionRepo := storage.NewTransactionRepository(db)

	// Initialize services
	notifier := notify.NewLogNotifier()
	authService := auth.NewService(cfg, userRepo, sessionRepo)
	investService := invest.NewService(investmentRepo, balanceRepo, transactionRepo, userRepo, notifier, nil)
	fundsService := funds.NewService(balanceRepo, transactionRepo, notifier)
	analyticsService := analytics.NewService()

	// Initialize handlers and middleware
	h := handlers.New(cfg, authService, investService, fundsService, analyticsService, userRepo)
	authMiddleware := middleware.NewAuth(authService)
	authLimit := middleware.RateLimit(cfg.AuthRateLimit, cfg.AuthRateBurst)

	// Setup routes
	mux := http.NewServeMux()

	// Public routes
	mux.Handle("/register", authLimit(http.HandlerFunc(h.Register)))
	mux.Handle("/login", authLimit(http.HandlerFunc(h.Login)))
	mux.HandleFunc("/logout", h.Logout)
	mux.HandleFunc("/api/health", h.Health)

	// Protected routes (require authentication)
	mux.Handle("/api/me", authMiddleware.RequireAuth(http.HandlerFunc(h.Me)))
	mux.Handle("/api/investments", authMiddleware.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			h.CreateInvestment(w, r)
		case http.MethodGet:
			h.ListInvestments(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})))
	mux.Handle("/api/funds/deposit", authMiddleware.RequireAuth(http.HandlerFunc(h.Deposit)))
	mux.Handle("/api/funds/withdraw", authMiddleware.RequireAuth(http.HandlerFunc(h.Withdraw)))
	mux.Handle("/api/transactions", authMiddleware.RequireAuth(http.HandlerFunc(h.Transactions)))
	mux.Handle("/api/summary", authMiddleware.RequireAuth(http.HandlerFunc(h.Summary)))

	// Admin routes
	mux.Handle("/api/admin/users", authMiddleware.RequireAdmin(http.HandlerFunc(h.AdminUsers)))
	mux.Handle("/api/admin/investments", authMiddleware.RequireAdmin(http.HandlerFunc(h.AdminInvestments)))
	mux.Handle("/api/admin/transactions", authMiddleware.RequireAdmin(http.HandlerFunc(h.AdminPendingTransactions)))
	mux.Handle("/api/admin/transactions/", authMiddleware.RequireAdmin(http.HandlerFunc(h.AdminDecideTransaction)))

	// Apply global middleware
	handler := middleware.Chain(
		mux,
		middleware.Recover,
		middleware.SecurityHeaders,
		middleware.Logger,
	)

	// Start the accrual scheduler: once at startup, then periodically
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scheduler := invest.NewScheduler(investService, cfg.AccrualInterval)
	go scheduler.Start(ctx)

	// Start server
	addr := ":" + cfg.Port
	log.Printf("Oakline server starting on http://localhost%s", addr)
	log.Printf("Environment: %s, accrual interval: %s", cfg.Environment, cfg.AccrualInterval)

	server := &http.Server{Addr: addr, Handler: handler}
	go func() {
		<-ctx.Done()
		log.Print("Shutting down")
		server.Shutdown(context.Background())
	}()

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Server failed: %v", err)
	}
}

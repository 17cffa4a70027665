package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/urovesa/portal-api/internal/auth"
	"github.com/urovesa/portal-api/internal/config"
	"github.com/urovesa/portal-api/internal/database"
	"github.com/urovesa/portal-api/internal/directory"
	"github.com/urovesa/portal-api/internal/handlers"
	"github.com/urovesa/portal-api/internal/middleware"
	"github.com/urovesa/portal-api/internal/repositories"
	"github.com/urovesa/portal-api/internal/routes"
	"github.com/urovesa/portal-api/internal/services"
	"github.com/urovesa/portal-api/internal/therefore"
	pkghttp "github.com/urovesa/portal-api/pkg/http"
	pkglogger "github.com/urovesa/portal-api/pkg/logger"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("configuration loaded",
		slog.String("env", cfg.Server.Env),
		slog.Bool("mock_auth", cfg.Directory.MockAuth),
	)

	// Initialize database
	db, err := database.NewConnection(&cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	// Secret store with in-memory cache in front of Postgres
	secretStore := repositories.NewCachedSecretStore(repositories.NewPostgresSecretStore(db), logger)

	warmCtx, warmCancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := secretStore.Warm(warmCtx); err != nil {
		warmCancel()
		logger.Error("failed to warm secret cache", slog.Any("error", err))
		os.Exit(1)
	}
	warmCancel()

	// Directory backend
	var dir directory.Authenticator
	if cfg.Directory.MockAuth {
		logger.Warn("using mock directory backend, do not use in production")
		dir = directory.NewMockBackend()
	} else {
		dir = directory.NewLDAPBackend(cfg.Directory, logger)
	}

	// Auth primitives
	totpManager := auth.NewTOTPManager(cfg.Auth.TOTPIssuer)
	tokenManager := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.SessionTokenExpiry)
	timingDelay := auth.NewTimingDelay(auth.TimingConfig{
		BaseDelayMs:   100,
		RandomDelayMs: 100,
	})
	auditLogger := pkglogger.NewAuditLogger(logger)

	// Services
	loginService := services.NewLoginService(dir, secretStore, totpManager, tokenManager, timingDelay, logger, auditLogger)
	twoFactorService := services.NewTwoFactorService(dir, secretStore, totpManager, logger)

	// Handlers
	authHandler := handlers.NewAuthHandler(loginService, cfg.Auth.MinPasswordLength)
	twoFactorHandler := handlers.NewTwoFactorHandler(twoFactorService)

	var documentHandler *handlers.DocumentHandler
	if cfg.Therefore.ProxyConfigured() {
		documentHandler = handlers.NewDocumentHandler(therefore.NewClient(cfg.Therefore), logger)
	} else {
		logger.Info("therefore proxy not configured, document routes disabled")
	}

	// Setup router
	router := chi.NewRouter()
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(middleware.SecurityHeaders(middleware.SecurityHeadersConfig{Env: cfg.Server.Env}))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig(cfg.Server.AllowedOrigins)))
	router.Use(middleware.SecureLogger(logger, &pkghttp.IPConfig{TrustedProxies: cfg.Server.TrustedProxies}))
	router.Use(chimiddleware.Recoverer)
	router.Use(chimiddleware.Timeout(60 * time.Second))

	router.Route("/api", func(r chi.Router) {
		routes.RegisterRoutes(r, authHandler, twoFactorHandler, documentHandler, tokenManager, cfg.Server.Env)
	})

	// Health check with database
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		w.Header().Set("Content-Type", "application/json")
		if err := db.HealthCheck(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"unhealthy","database":"down"}`))
			return
		}

		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy","database":"up"}`))
	})

	// Create server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server
	go func() {
		logger.Info("starting server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutdown signal received")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("server stopped gracefully")
}

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
	"github.com/go-chi/chi/v5/middleware"

	"github.com/vantagehq/console/internal/background"
	"github.com/vantagehq/console/internal/config"
	"github.com/vantagehq/console/internal/dialog"
	"github.com/vantagehq/console/internal/directory"
	"github.com/vantagehq/console/internal/handlers"
	middlewareCustom "github.com/vantagehq/console/internal/middleware"
	"github.com/vantagehq/console/internal/routes"
	"github.com/vantagehq/console/internal/session"
	"github.com/vantagehq/console/internal/upstream"
	"github.com/vantagehq/console/pkg/httpapi"
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
		slog.String("upstream", cfg.Upstream.BaseURL))

	// Upstream client
	client := upstream.New(cfg.Upstream.BaseURL, cfg.Upstream.Timeout, logger)

	// Session store: Redis when configured, process memory otherwise
	var store session.Store
	var memStore *session.MemoryStore
	if cfg.Redis.Addr != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		redisStore, err := session.NewRedisStore(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		cancel()
		if err != nil {
			logger.Error("failed to connect to redis", slog.Any("error", err))
			os.Exit(1)
		}
		defer redisStore.Close()
		store = redisStore
		logger.Info("sessions stored in redis", slog.String("addr", cfg.Redis.Addr))
	} else {
		memStore = session.NewMemoryStore()
		store = memStore
		logger.Info("sessions stored in process memory")
	}

	// Per-session directory fetchers
	registry := directory.NewRegistry(client, logger, cfg.Session.PageSize)

	// Background sweeper: expired sessions (memory store only) and idle
	// fetchers
	var storeSweeper session.Sweeper
	if memStore != nil {
		storeSweeper = memStore
	}
	sweeper := background.NewSweeper(storeSweeper, registry, logger, cfg.Session.SweepInterval, cfg.Session.TTL)

	cookieConfig := session.CookieConfig{
		Domain:   cfg.Session.CookieDomain,
		Secure:   cfg.Session.CookieSecure,
		SameSite: cfg.Session.SameSite,
	}
	var ipConfig *httpapi.IPConfig
	if len(cfg.Server.TrustedProxies) > 0 {
		ipConfig = &httpapi.IPConfig{TrustedProxies: cfg.Server.TrustedProxies}
	}

	// Handlers
	dialogController := dialog.NewController(client, logger)
	authHandler := handlers.NewAuthHandler(client, store, registry, cookieConfig, ipConfig, cfg.Session.TTL, cfg.Session.PageSize, logger)
	directoryHandler := handlers.NewDirectoryHandler(registry, store, logger)
	dialogHandler := handlers.NewDialogHandler(dialogController, registry, store, logger)
	dashboardHandler := handlers.NewDashboardHandler(client, logger)
	adminHandler := handlers.NewAdminHandler(client, store, logger)
	shellHandler, err := handlers.NewShellHandler(logger)
	if err != nil {
		logger.Error("failed to load console shell", slog.Any("error", err))
		os.Exit(1)
	}

	// Setup CORS middleware
	corsConfig := middlewareCustom.DefaultCORSConfig(cfg.Server.AllowedOrigins)

	// Setup router
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middlewareCustom.SecurityHeaders(middlewareCustom.SecurityHeadersConfig{Env: cfg.Server.Env}))
	router.Use(middlewareCustom.CORS(corsConfig))
	router.Use(middlewareCustom.SecureLogger(logger))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))

	// Register routes
	routes.RegisterRoutes(router, authHandler, directoryHandler, dialogHandler, dashboardHandler, adminHandler, shellHandler, store, logger)

	// Health check
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	})

	// Create server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start sweeper
	sweepCtx, sweepCancel := context.WithCancel(context.Background())
	defer sweepCancel()

	go sweeper.Start(sweepCtx)

	// Start server
	go func() {
		logger.Info("starting console", slog.String("addr", server.Addr))
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

	sweepCancel()
	sweeper.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("console stopped")
}
